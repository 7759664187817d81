package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/services"
)

// CreatePaymentRequest selects the payment channel; empty means wechat
type CreatePaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// RefundRequest represents the request body for refunding an order
type RefundRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Reason string  `json:"reason"`
}

// PaymentController serves payment sessions, gateway callbacks and refunds
type PaymentController struct {
	payments *services.PaymentService
	log      *zap.Logger
}

func NewPaymentController(payments *services.PaymentService, log *zap.Logger) *PaymentController {
	return &PaymentController{payments: payments, log: log}
}

// CreatePayment handles POST /api/v1/orders/:id/payment
func (h *PaymentController) CreatePayment(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CreatePaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request data: "+err.Error())
			return
		}
	}

	session, err := h.payments.CreatePayment(c.Request.Context(), actor.ID, orderID, req.PaymentMethod)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, PaymentSessionView{
		OrderID:       session.OrderID,
		PaymentParams: session.Params,
		OrderInfo:     orderView(session.Order),
	})
}

// PaymentCallback handles POST /api/v1/payments/callback. The gateway always
// gets a 200 so that it stops resending; failures are only logged.
func (h *PaymentController) PaymentCallback(c *gin.Context) {
	var payload services.CallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.Warn("malformed payment callback", zap.Error(err))
		respond(c, http.StatusOK, "callback received", nil)
		return
	}

	if _, err := h.payments.HandleCallback(c.Request.Context(), payload); err != nil {
		h.log.Warn("payment callback rejected",
			zap.String("order_no", payload.OrderNo),
			zap.String("status", payload.Status),
			zap.Error(err),
		)
	}

	respond(c, http.StatusOK, "callback received", nil)
}

// GetPaymentStatus handles GET /api/v1/orders/:id/payment
func (h *PaymentController) GetPaymentStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := h.payments.GetPaymentStatus(c.Request.Context(), actor.ID, orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, paymentStatusView(order))
}

// Refund handles POST /api/v1/orders/:id/refund
func (h *PaymentController) Refund(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refund amount must be greater than 0")
		return
	}

	result, err := h.payments.Refund(c.Request.Context(), actor.ID, orderID, req.Amount, req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, result)
}
