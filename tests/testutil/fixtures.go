package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kendall-kelly/home-therapy-api/models"
)

// CreateUser inserts a customer account bound to subject
func CreateUser(t *testing.T, db *gorm.DB, subject string) *models.User {
	t.Helper()

	var count int64
	db.Model(&models.User{}).Count(&count)

	user := &models.User{
		AuthSubject: subject,
		Username:    "user-" + subject,
		Phone:       fmt.Sprintf("1380000%04d", count+1),
		Email:       subject + "@example.com",
		Role:        models.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateAdmin inserts an administrator account bound to subject
func CreateAdmin(t *testing.T, db *gorm.DB, subject string) *models.User {
	t.Helper()

	user := CreateUser(t, db, subject)
	require.NoError(t, db.Model(user).Update("role", models.RoleAdmin).Error)
	user.Role = models.RoleAdmin
	return user
}

// CreateTherapist inserts a therapist profile with the given status
func CreateTherapist(t *testing.T, db *gorm.DB, name string, status models.TherapistStatus) *models.Therapist {
	t.Helper()

	var count int64
	db.Model(&models.Therapist{}).Count(&count)

	subject := "therapist|" + name
	therapist := &models.Therapist{
		AuthSubject:     &subject,
		Name:            name,
		Phone:           fmt.Sprintf("1390000%04d", count+1),
		ExperienceYears: 5,
		Specialty:       "deep tissue",
		Status:          status,
	}
	require.NoError(t, db.Create(therapist).Error)
	return therapist
}

// CreateServiceItem inserts an active service package
func CreateServiceItem(t *testing.T, db *gorm.DB, name string, price float64, duration int) *models.ServiceItem {
	t.Helper()

	item := &models.ServiceItem{
		Name:     name,
		Duration: duration,
		Price:    price,
		Category: "classic",
		Status:   models.ServiceItemActive,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

// OfferServices adds items to the therapist's offered services
func OfferServices(t *testing.T, db *gorm.DB, therapist *models.Therapist, items ...*models.ServiceItem) {
	t.Helper()

	for _, item := range items {
		require.NoError(t, db.Model(therapist).Association("ServiceItems").Append(item))
	}
}

// CreateOrder inserts an order directly in the given status, bypassing the lifecycle
func CreateOrder(
	t *testing.T,
	db *gorm.DB,
	user *models.User,
	therapist *models.Therapist,
	item *models.ServiceItem,
	status models.OrderStatus,
) *models.Order {
	t.Helper()

	var count int64
	db.Model(&models.Order{}).Count(&count)

	order := &models.Order{
		OrderNo:        fmt.Sprintf("ORDTEST%06d", count+1),
		UserID:         user.ID,
		TherapistID:    therapist.ID,
		ServiceItemID:  item.ID,
		ServiceName:    item.Name,
		Duration:       item.Duration,
		Price:          item.Price,
		ServiceTime:    time.Now().Add(24 * time.Hour).UTC(),
		ServiceAddress: "88 Garden Road",
		ContactPhone:   user.Phone,
		Status:         status,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}
