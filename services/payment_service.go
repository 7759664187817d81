package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
)

// amountEpsilon absorbs float noise when comparing money amounts
const amountEpsilon = 0.005

// PaymentParams is what the client hands to the (simulated) payment platform
type PaymentParams struct {
	OrderNo       string  `json:"order_no"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	Subject       string  `json:"subject"`
	Timestamp     int64   `json:"timestamp"`
	NonceStr      string  `json:"nonce_str"`
	CodeURL       string  `json:"code_url"`
	QRCode        string  `json:"qr_code"`
}

// PaymentSession is a payment request for one order. Creating it changes nothing.
type PaymentSession struct {
	OrderID uint          `json:"order_id"`
	Params  PaymentParams `json:"payment_params"`
	Order   *models.Order `json:"-"`
}

// CallbackPayload is the notification the payment platform posts back
type CallbackPayload struct {
	OrderNo       string  `json:"order_no"`
	TransactionID string  `json:"transaction_id"`
	PaymentMethod string  `json:"payment_method"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
}

const (
	CallbackStatusSuccess = "success"
	CallbackStatusFail    = "fail"
)

// RefundResult describes a completed refund
type RefundResult struct {
	RefundNo      string    `json:"refund_no"`
	OrderNo       string    `json:"order_no"`
	Amount        float64   `json:"amount"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	Reason        string    `json:"reason"`
	RefundedAt    time.Time `json:"refunded_at"`
}

// PaymentService simulates a payment gateway around orders
type PaymentService struct {
	store      *repository.Store
	locker     Locker
	events     EventPublisher
	gatewayURL string
	log        *zap.Logger
	now        func() time.Time
}

// NewPaymentService creates a payment service. gatewayURL is the base of the
// simulated pay page encoded into payment QR codes.
func NewPaymentService(
	store *repository.Store,
	locker Locker,
	events EventPublisher,
	gatewayURL string,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		store:      store,
		locker:     locker,
		events:     events,
		gatewayURL: gatewayURL,
		log:        log.Named("payments"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreatePayment prepares a payment session for the user's order
func (s *PaymentService) CreatePayment(ctx context.Context, userID, orderID uint, method string) (*PaymentSession, error) {
	paymentMethod, err := models.ParsePaymentMethod(method)
	if err != nil {
		return nil, validationf("unsupported payment method")
	}

	order, err := s.userOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusCancelled {
		return nil, validationf("order has been cancelled")
	}
	switch order.PaymentStatus {
	case models.PaymentStatusPaid:
		return nil, validationf("order already paid")
	case models.PaymentStatusRefunded:
		return nil, validationf("order has been refunded")
	}

	now := s.now()
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")
	codeURL := fmt.Sprintf("%s?order_no=%s&nonce_str=%s",
		s.gatewayURL, url.QueryEscape(order.OrderNo), nonce)

	qr, err := encodePaymentQR(codeURL)
	if err != nil {
		return nil, err
	}

	return &PaymentSession{
		OrderID: order.ID,
		Params: PaymentParams{
			OrderNo:       order.OrderNo,
			Amount:        order.Price,
			PaymentMethod: string(paymentMethod),
			Subject:       "Home therapy - " + order.ServiceName,
			Timestamp:     now.Unix(),
			NonceStr:      nonce,
			CodeURL:       codeURL,
			QRCode:        qr,
		},
		Order: order,
	}, nil
}

// HandleCallback reconciles a platform notification with the order.
// Replaying a success for an already paid order changes nothing.
func (s *PaymentService) HandleCallback(ctx context.Context, p CallbackPayload) (*models.Order, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, "payment:"+p.OrderNo)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order %s: %w", p.OrderNo, err)
	}
	defer release()

	order, err := s.store.Orders.GetByOrderNo(ctx, p.OrderNo)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if math.Abs(p.Amount-order.Price) > amountEpsilon {
		return nil, validationf("callback amount %.2f does not match order amount %.2f", p.Amount, order.Price)
	}

	var eventType string
	switch p.Status {
	case CallbackStatusSuccess:
		if !order.PaymentStatus.Payable() {
			s.log.Info("ignoring success callback",
				zap.String("order_no", order.OrderNo),
				zap.String("payment_status", order.PaymentStatus.String()),
			)
			return order, nil
		}
		if order.Status == models.OrderStatusCancelled {
			s.log.Warn("payment received for cancelled order", zap.String("order_no", order.OrderNo))
		}

		changed, err := s.store.Orders.MarkPaid(ctx, order.ID, p.PaymentMethod, p.TransactionID, s.now())
		if err != nil {
			return nil, fmt.Errorf("failed to record payment: %w", err)
		}
		if changed {
			eventType = EventOrderPaid
			s.log.Info("order paid",
				zap.String("order_no", order.OrderNo),
				zap.String("transaction_id", p.TransactionID),
			)
		}

	case CallbackStatusFail:
		changed, err := s.store.Orders.MarkPaymentFailed(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to record payment failure: %w", err)
		}
		if changed {
			eventType = EventOrderPaymentFailed
		}
	}

	order, err = s.reload(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if eventType != "" {
		publishAfterCommit(ctx, s.events, s.log, newOrderEvent(eventType, order, s.now()))
	}
	return order, nil
}

func (p CallbackPayload) validate() error {
	switch {
	case strings.TrimSpace(p.OrderNo) == "":
		return validationf("order_no is required")
	case strings.TrimSpace(p.TransactionID) == "":
		return validationf("transaction_id is required")
	case strings.TrimSpace(p.PaymentMethod) == "":
		return validationf("payment_method is required")
	case p.Amount <= 0:
		return validationf("amount must be greater than 0")
	case p.Status != CallbackStatusSuccess && p.Status != CallbackStatusFail:
		return validationf("status must be %q or %q", CallbackStatusSuccess, CallbackStatusFail)
	}
	if _, err := models.ParsePaymentMethod(p.PaymentMethod); err != nil {
		return validationf("unsupported payment method")
	}
	return nil
}

// GetPaymentStatus returns the user's order with its payment fields
func (s *PaymentService) GetPaymentStatus(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	return s.userOrder(ctx, userID, orderID)
}

// Refund returns money for a paid order. Any amount up to the order price
// moves the order to refunded; it cannot be paid or refunded again.
func (s *PaymentService) Refund(ctx context.Context, userID, orderID uint, amount float64, reason string) (*RefundResult, error) {
	if amount <= 0 {
		return nil, validationf("refund amount must be greater than 0")
	}

	order, err := s.userOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, "payment:"+order.OrderNo)
	if errors.Is(err, ErrLockBusy) {
		return nil, validationf("another payment operation is in progress, please retry")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order %s: %w", order.OrderNo, err)
	}
	defer release()

	if err := refundable(order, amount); err != nil {
		return nil, err
	}

	changed, err := s.store.Orders.MarkRefunded(ctx, order.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to record refund: %w", err)
	}
	if !changed {
		// lost a race with another refund or payment update
		current, err := s.reload(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if err := refundable(current, amount); err != nil {
			return nil, err
		}
		return nil, validationf("order is not paid")
	}

	now := s.now()
	order.PaymentStatus = models.PaymentStatusRefunded

	s.log.Info("order refunded",
		zap.String("order_no", order.OrderNo),
		zap.Float64("amount", amount),
	)
	publishAfterCommit(ctx, s.events, s.log, newOrderEvent(EventOrderRefunded, order, now))

	return &RefundResult{
		RefundNo:      NewRefundNo(now),
		OrderNo:       order.OrderNo,
		Amount:        amount,
		Status:        "success",
		TransactionID: order.TransactionID,
		Reason:        strings.TrimSpace(reason),
		RefundedAt:    now,
	}, nil
}

func refundable(order *models.Order, amount float64) error {
	switch order.PaymentStatus {
	case models.PaymentStatusPaid:
	case models.PaymentStatusRefunded:
		return validationf("order has already been refunded")
	default:
		return validationf("order is not paid")
	}
	if amount-order.Price > amountEpsilon {
		return validationf("refund amount exceeds order price")
	}
	return nil
}

func (s *PaymentService) userOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.store.Orders.GetForParty(ctx, orderID, models.Actor{ID: userID, Role: models.RoleUser})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

func (s *PaymentService) reload(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.store.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return order, nil
}
