package models

import (
	"time"
)

// Role identifies which identity space an authenticated caller belongs to
type Role string

const (
	RoleUser      Role = "user"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"
)

// Actor is the resolved caller of a request
type Actor struct {
	ID   uint `json:"id"`
	Role Role `json:"role"`
}

// IsUser reports whether the actor acts on behalf of a customer account.
// Admins are user accounts too.
func (a Actor) IsUser() bool {
	return a.Role == RoleUser || a.Role == RoleAdmin
}

// User represents a customer account
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthSubject string    `gorm:"uniqueIndex;not null" json:"-"`
	Username    string    `gorm:"size:100;not null" json:"username"`
	Phone       string    `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	Email       string    `gorm:"size:120" json:"email"`
	AvatarURL   string    `gorm:"size:255" json:"avatar_url"`
	Status      int       `gorm:"not null;default:1" json:"status"`
	Role        Role      `gorm:"size:20;not null;default:'user'" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// Actor returns the caller identity for this account
func (u User) Actor() Actor {
	role := u.Role
	if role == "" {
		role = RoleUser
	}
	return Actor{ID: u.ID, Role: role}
}
