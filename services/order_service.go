package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
	"github.com/kendall-kelly/home-therapy-api/utils"
)

const msgOrderNotAllowed = "order not found or status not allowed"

// CreateOrderInput is what a user supplies when booking
type CreateOrderInput struct {
	TherapistID    uint
	ServiceItemID  uint
	ServiceTime    time.Time
	ServiceAddress string
	ContactPhone   string
	Remark         string
}

// OrderService places orders and drives them through the lifecycle
type OrderService struct {
	store  *repository.Store
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

// NewOrderService creates an order service over store
func NewOrderService(store *repository.Store, events EventPublisher, log *zap.Logger) *OrderService {
	return &OrderService{
		store:  store,
		events: events,
		log:    log.Named("orders"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder books an active service item offered by an active therapist.
// The item's name, duration and price are copied onto the order.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	therapist, err := s.store.Therapists.GetActive(ctx, in.TherapistID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("therapist not found or unavailable")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load therapist: %w", err)
	}

	item, err := s.store.ServiceItems.GetActive(ctx, in.ServiceItemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("service item not found or unavailable")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service item: %w", err)
	}
	if !offers(therapist, item.ID) {
		return nil, notFound("service item not offered by therapist")
	}

	now := s.now()
	order := &models.Order{
		OrderNo:        NewOrderNo(now),
		UserID:         userID,
		TherapistID:    therapist.ID,
		ServiceItemID:  item.ID,
		ServiceName:    item.Name,
		Duration:       item.Duration,
		Price:          item.Price,
		ServiceTime:    in.ServiceTime.UTC(),
		ServiceAddress: strings.TrimSpace(in.ServiceAddress),
		ContactPhone:   strings.TrimSpace(in.ContactPhone),
		Remark:         strings.TrimSpace(in.Remark),
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusUnpaid,
	}

	if err := s.store.Orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("order number already exists, please retry")
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.log.Info("order created",
		zap.String("order_no", order.OrderNo),
		zap.Uint("user_id", userID),
		zap.Uint("therapist_id", therapist.ID),
	)
	publishAfterCommit(ctx, s.events, s.log, newOrderEvent(EventOrderCreated, order, now))

	return order, nil
}

// offers reports whether the therapist's active services include itemID
func offers(therapist *models.Therapist, itemID uint) bool {
	for _, item := range therapist.ServiceItems {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

func (in CreateOrderInput) validate() error {
	switch {
	case in.TherapistID == 0:
		return validationf("therapist_id is required")
	case in.ServiceItemID == 0:
		return validationf("service_item_id is required")
	case in.ServiceTime.IsZero():
		return validationf("service_time is required")
	case strings.TrimSpace(in.ServiceAddress) == "":
		return validationf("service_address is required")
	case strings.TrimSpace(in.ContactPhone) == "":
		return validationf("contact_phone is required")
	}
	return nil
}

// Accept moves a pending order assigned to the therapist to accepted
func (s *OrderService) Accept(ctx context.Context, therapistID, orderID uint) (*models.Order, error) {
	return s.Transition(ctx, models.Actor{ID: therapistID, Role: models.RoleTherapist}, orderID, ActionAccept)
}

// StartJourney marks the therapist as on the way
func (s *OrderService) StartJourney(ctx context.Context, therapistID, orderID uint) (*models.Order, error) {
	return s.Transition(ctx, models.Actor{ID: therapistID, Role: models.RoleTherapist}, orderID, ActionStartJourney)
}

// StartService marks the service as begun
func (s *OrderService) StartService(ctx context.Context, therapistID, orderID uint) (*models.Order, error) {
	return s.Transition(ctx, models.Actor{ID: therapistID, Role: models.RoleTherapist}, orderID, ActionStartService)
}

// Complete finishes the service and credits the therapist with one completed order
func (s *OrderService) Complete(ctx context.Context, therapistID, orderID uint) (*models.Order, error) {
	return s.Transition(ctx, models.Actor{ID: therapistID, Role: models.RoleTherapist}, orderID, ActionComplete)
}

// Cancel lets the owning user abandon an order that has not started service
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	return s.Transition(ctx, models.Actor{ID: userID, Role: models.RoleUser}, orderID, ActionCancel)
}

// Transition applies action to the order on behalf of actor.
// The ownership and source status are checked by the same conditional update
// that changes the status, so of two concurrent attempts exactly one succeeds.
func (s *OrderService) Transition(ctx context.Context, actor models.Actor, orderID uint, action Action) (*models.Order, error) {
	t, ok := lifecycle[action]
	if !ok {
		return nil, validationf("unknown order action %q", action)
	}
	owner, ok := t.owner(actor)
	if !ok {
		return nil, notFound(msgOrderNotAllowed)
	}

	var order *models.Order
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		changed, err := tx.Orders.UpdateStatusIf(ctx, orderID, owner, t.from, t.to)
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if !changed {
			return notFound(msgOrderNotAllowed)
		}

		if action == ActionComplete {
			if err := tx.Therapists.IncrementServiceCount(ctx, owner.ID); err != nil {
				return fmt.Errorf("failed to update service count: %w", err)
			}
		}

		order, err = tx.Orders.GetByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		zap.String("order_no", order.OrderNo),
		zap.String("action", string(action)),
		zap.String("status", order.Status.String()),
	)
	publishAfterCommit(ctx, s.events, s.log, newOrderEvent(EventOrderStatusChanged, order, s.now()))

	return order, nil
}

// ListOrders returns the caller's orders, newest first
func (s *OrderService) ListOrders(
	ctx context.Context,
	actor models.Actor,
	status *models.OrderStatus,
	page utils.Pagination,
) ([]models.Order, int64, error) {
	orders, total, err := s.store.Orders.ListForParty(ctx, partyOf(actor), status, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// GetOrder returns one order the caller is party to
func (s *OrderService) GetOrder(ctx context.Context, actor models.Actor, orderID uint) (*models.Order, error) {
	order, err := s.store.Orders.GetForParty(ctx, orderID, partyOf(actor))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

// partyOf folds admins onto the user side of an order
func partyOf(actor models.Actor) models.Actor {
	if actor.IsUser() {
		return models.Actor{ID: actor.ID, Role: models.RoleUser}
	}
	return actor
}
