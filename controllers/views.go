package controllers

import (
	"time"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/services"
)

// OrderView is an order as sent to clients. Statuses stay integers and gain
// a readable name next to them.
type OrderView struct {
	models.Order
	StatusText        string `json:"status_text"`
	PaymentStatusText string `json:"payment_status_text"`
}

func orderView(order *models.Order) OrderView {
	return OrderView{
		Order:             *order,
		StatusText:        order.Status.String(),
		PaymentStatusText: order.PaymentStatus.String(),
	}
}

func orderViews(orders []models.Order) []OrderView {
	views := make([]OrderView, len(orders))
	for i := range orders {
		views[i] = orderView(&orders[i])
	}
	return views
}

// PaymentSessionView is the answer to a payment request
type PaymentSessionView struct {
	OrderID       uint                   `json:"order_id"`
	PaymentParams services.PaymentParams `json:"payment_params"`
	OrderInfo     OrderView              `json:"order_info"`
}

// PaymentStatusView reports the payment side of an order
type PaymentStatusView struct {
	OrderNo           string               `json:"order_no"`
	PaymentStatus     models.PaymentStatus `json:"payment_status"`
	PaymentStatusText string               `json:"payment_status_text"`
	PaymentMethod     string               `json:"payment_method"`
	PaidAt            *time.Time           `json:"paid_at"`
	TransactionID     string               `json:"transaction_id"`
}

func paymentStatusView(order *models.Order) PaymentStatusView {
	return PaymentStatusView{
		OrderNo:           order.OrderNo,
		PaymentStatus:     order.PaymentStatus,
		PaymentStatusText: order.PaymentStatus.String(),
		PaymentMethod:     order.PaymentMethod,
		PaidAt:            order.PaidAt,
		TransactionID:     order.TransactionID,
	}
}
