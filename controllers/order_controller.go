package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/middleware"
	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/services"
	"github.com/kendall-kelly/home-therapy-api/utils"
)

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	TherapistID    uint      `json:"therapist_id" binding:"required"`
	ServiceItemID  uint      `json:"service_item_id" binding:"required"`
	ServiceTime    time.Time `json:"service_time" binding:"required"`
	ServiceAddress string    `json:"service_address" binding:"required"`
	ContactPhone   string    `json:"contact_phone" binding:"required"`
	Remark         string    `json:"remark"`
}

// OrderController serves the order lifecycle endpoints
type OrderController struct {
	orders *services.OrderService
	log    *zap.Logger
}

func NewOrderController(orders *services.OrderService, log *zap.Logger) *OrderController {
	return &OrderController{orders: orders, log: log}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderController) CreateOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request data: "+err.Error())
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), actor.ID, services.CreateOrderInput{
		TherapistID:    req.TherapistID,
		ServiceItemID:  req.ServiceItemID,
		ServiceTime:    req.ServiceTime,
		ServiceAddress: req.ServiceAddress,
		ContactPhone:   req.ContactPhone,
		Remark:         req.Remark,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondCreated(c, orderView(order))
}

// ListOrders handles GET /api/v1/orders for users and therapists alike
func (h *OrderController) ListOrders(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var status *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid status")
			return
		}
		s, err := models.ParseOrderStatus(v)
		if err != nil {
			badRequest(c, "invalid status")
			return
		}
		status = &s
	}

	page := pagination(c)
	orders, total, err := h.orders.ListOrders(c.Request.Context(), actor, status, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, utils.NewPage(orderViews(orders), total, page))
}

// GetOrder handles GET /api/v1/orders/:id
func (h *OrderController) GetOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, orderView(order))
}

// TransitionOrder handles POST /api/v1/orders/:id/actions/:action.
// Dashes in the action name are accepted in place of underscores.
func (h *OrderController) TransitionOrder(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	action := services.Action(strings.ReplaceAll(c.Param("action"), "-", "_"))

	order, err := h.orders.Transition(c.Request.Context(), actor, orderID, action)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, orderView(order))
}

// currentActor returns the caller resolved by middleware.ResolveActor
func currentActor(c *gin.Context) (models.Actor, bool) {
	actor, found := middleware.GetActor(c)
	if !found {
		respond(c, http.StatusUnauthorized, "user not registered", nil)
		return models.Actor{}, false
	}
	return actor, true
}
