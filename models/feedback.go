package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Feedback is a user's review of one completed order
type Feedback struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	OrderID     uint                        `gorm:"uniqueIndex;not null" json:"order_id"`
	UserID      uint                        `gorm:"not null;index" json:"user_id"`
	User        *User                       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TherapistID uint                        `gorm:"not null;index" json:"therapist_id"`
	Rating      float64                     `gorm:"not null" json:"rating"`
	Content     string                      `gorm:"type:text" json:"content"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for the Feedback model
func (Feedback) TableName() string {
	return "feedbacks"
}

// ValidRating reports whether r lies in the accepted rating range
func ValidRating(r float64) bool {
	return r >= MinRating && r <= MaxRating
}
