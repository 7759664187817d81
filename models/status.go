package models

import "fmt"

// OrderStatus is the lifecycle position of an order.
// Values are stored and sent on the wire as small integers.
type OrderStatus int

const (
	OrderStatusPending OrderStatus = iota
	OrderStatusAccepted
	OrderStatusOnTheWay
	OrderStatusInService
	OrderStatusCompleted
	OrderStatusCancelled
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusPending:   "pending",
	OrderStatusAccepted:  "accepted",
	OrderStatusOnTheWay:  "on_the_way",
	OrderStatusInService: "in_service",
	OrderStatusCompleted: "completed",
	OrderStatusCancelled: "cancelled",
}

// String returns the status name, or "unknown" for values outside the enumeration
func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the defined statuses
func (s OrderStatus) Valid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

// Cancellable reports whether a user may still cancel an order in this status
func (s OrderStatus) Cancellable() bool {
	return s >= OrderStatusPending && s <= OrderStatusOnTheWay
}

// ParseOrderStatus converts a wire integer into an OrderStatus
func ParseOrderStatus(v int) (OrderStatus, error) {
	s := OrderStatus(v)
	if !s.Valid() {
		return 0, fmt.Errorf("invalid order status %d", v)
	}
	return s, nil
}

// PaymentStatus tracks payment independently from the order lifecycle.
type PaymentStatus int

const (
	PaymentStatusUnpaid PaymentStatus = iota
	PaymentStatusPaid
	PaymentStatusFailed
	PaymentStatusRefunded
)

var paymentStatusNames = map[PaymentStatus]string{
	PaymentStatusUnpaid:   "unpaid",
	PaymentStatusPaid:     "paid",
	PaymentStatusFailed:   "failed",
	PaymentStatusRefunded: "refunded",
}

func (s PaymentStatus) String() string {
	if name, ok := paymentStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// Payable reports whether a successful payment may still be recorded
func (s PaymentStatus) Payable() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusFailed
}

// PaymentMethod is the channel a user pays through
type PaymentMethod string

const (
	PaymentMethodWechat PaymentMethod = "wechat"
	PaymentMethodAlipay PaymentMethod = "alipay"
	PaymentMethodCash   PaymentMethod = "cash"
)

// ParsePaymentMethod validates a payment method name. Empty input selects wechat.
func ParsePaymentMethod(v string) (PaymentMethod, error) {
	switch PaymentMethod(v) {
	case "":
		return PaymentMethodWechat, nil
	case PaymentMethodWechat, PaymentMethodAlipay, PaymentMethodCash:
		return PaymentMethod(v), nil
	}
	return "", fmt.Errorf("unsupported payment method %q", v)
}
