package models

import (
	"time"
)

// Order is a booking of one service item with one therapist.
// The service fields are a snapshot taken when the order is placed.
type Order struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	OrderNo        string        `gorm:"size:50;uniqueIndex;not null" json:"order_no"`
	UserID         uint          `gorm:"not null;index" json:"user_id"`
	User           *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TherapistID    uint          `gorm:"not null;index" json:"therapist_id"`
	Therapist      *Therapist    `gorm:"foreignKey:TherapistID" json:"therapist,omitempty"`
	ServiceItemID  uint          `gorm:"not null" json:"service_item_id"`
	ServiceName    string        `gorm:"size:100;not null" json:"service_name"`
	Duration       int           `gorm:"not null" json:"duration"`
	Price          float64       `gorm:"not null" json:"price"`
	ServiceTime    time.Time     `gorm:"not null" json:"service_time"`
	ServiceAddress string        `gorm:"size:255;not null" json:"service_address"`
	ContactPhone   string        `gorm:"size:20;not null" json:"contact_phone"`
	Remark         string        `gorm:"type:text" json:"remark"`
	Status         OrderStatus   `gorm:"not null;index" json:"status"`
	PaymentStatus  PaymentStatus `gorm:"not null" json:"payment_status"`
	PaymentMethod  string        `gorm:"size:20" json:"payment_method"`
	TransactionID  string        `gorm:"size:100" json:"transaction_id"`
	PaidAt         *time.Time    `json:"paid_at"`
	CreatedAt      time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// PartyColumn returns the ownership column that binds an actor's role to an order
func PartyColumn(role Role) string {
	if role == RoleTherapist {
		return "therapist_id"
	}
	return "user_id"
}

// IsParty reports whether the actor is the order's user or its assigned therapist
func (o Order) IsParty(a Actor) bool {
	switch a.Role {
	case RoleUser, RoleAdmin:
		return o.UserID == a.ID
	case RoleTherapist:
		return o.TherapistID == a.ID
	}
	return false
}

// Counterpart returns the other party of the order relative to a
func (o Order) Counterpart(a Actor) Actor {
	if a.Role == RoleTherapist {
		return Actor{ID: o.UserID, Role: RoleUser}
	}
	return Actor{ID: o.TherapistID, Role: RoleTherapist}
}
