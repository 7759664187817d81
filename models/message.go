package models

import (
	"time"
)

// Message represents a chat message between the two parties of an order.
// Users and therapists live in separate tables, so each side is an (id, role) pair.
type Message struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      uint      `gorm:"not null;index" json:"order_id"`
	SenderID     uint      `gorm:"not null" json:"sender_id"`
	SenderRole   Role      `gorm:"size:20;not null" json:"sender_role"`
	ReceiverID   uint      `gorm:"not null;index:idx_messages_receiver" json:"receiver_id"`
	ReceiverRole Role      `gorm:"size:20;not null;index:idx_messages_receiver" json:"receiver_role"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	IsRead       bool      `gorm:"not null;default:false;index:idx_messages_receiver" json:"is_read"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}
