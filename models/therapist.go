package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultTherapistRating is the rating a therapist carries while no feedback exists
const DefaultTherapistRating = 5.0

// TherapistStatus is the review state of a therapist profile
type TherapistStatus int

const (
	TherapistStatusPending TherapistStatus = iota
	TherapistStatusActive
	TherapistStatusSuspended
)

// Valid reports whether s is a known therapist status
func (s TherapistStatus) Valid() bool {
	return s >= TherapistStatusPending && s <= TherapistStatusSuspended
}

// Therapist is a service provider. Therapists log in with their own subject,
// or through the user account referenced by UserID.
type Therapist struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	AuthSubject     *string         `gorm:"uniqueIndex" json:"-"`
	UserID          *uint           `gorm:"index" json:"user_id,omitempty"`
	Name            string          `gorm:"size:50;not null" json:"name"`
	Phone           string          `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	IDCard          string          `gorm:"size:18" json:"-"`
	Age             int             `json:"age"`
	Certification   string          `gorm:"size:255" json:"certification"`
	ExperienceYears int             `json:"experience_years"`
	Specialty       string          `gorm:"type:text" json:"specialty"`
	Introduction    string          `gorm:"type:text" json:"introduction"`
	AvatarKey       string          `gorm:"size:255" json:"-"`
	AvatarURL       string          `gorm:"-" json:"avatar_url,omitempty"` // computed from AvatarKey
	Rating          float64         `gorm:"not null" json:"rating"`
	ServiceCount    int             `gorm:"not null;default:0" json:"service_count"`
	Status          TherapistStatus `gorm:"not null" json:"status"`
	ServiceItems    []ServiceItem   `gorm:"many2many:therapist_services;" json:"service_items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Therapist model
func (Therapist) TableName() string {
	return "therapists"
}

// BeforeCreate assigns the default rating to new profiles
func (t *Therapist) BeforeCreate(tx *gorm.DB) error {
	if t.Rating == 0 {
		t.Rating = DefaultTherapistRating
	}
	return nil
}

// ServiceItemStatus controls whether a package can be booked
type ServiceItemStatus int

const (
	ServiceItemDisabled ServiceItemStatus = 0
	ServiceItemActive   ServiceItemStatus = 1
)

// ServiceItem is a bookable service package in the catalog
type ServiceItem struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"size:100;not null" json:"name"`
	Description string            `gorm:"type:text" json:"description"`
	Duration    int               `gorm:"not null;check:duration > 0" json:"duration"` // minutes
	Price       float64           `gorm:"not null;check:price >= 0" json:"price"`
	Category    string            `gorm:"size:50;not null" json:"category"` // classic, special, custom
	Status      ServiceItemStatus `gorm:"not null" json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TableName specifies the table name for the ServiceItem model
func (ServiceItem) TableName() string {
	return "service_items"
}
