package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
	"github.com/kendall-kelly/home-therapy-api/tests/testutil"
)

// testEnv is a migrated database with the collaborators every service needs
type testEnv struct {
	db     *gorm.DB
	store  *repository.Store
	events *MockEventPublisher
	log    *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	return &testEnv{
		db:     db,
		store:  repository.NewStore(db),
		events: NewMockEventPublisher(),
		log:    zap.NewNop(),
	}
}

// booking is a user, an active therapist and a bookable item
type booking struct {
	user      *models.User
	therapist *models.Therapist
	item      *models.ServiceItem
}

func (e *testEnv) newBooking(t *testing.T) booking {
	t.Helper()

	b := booking{
		user:      testutil.CreateUser(t, e.db, "auth0|customer"),
		therapist: testutil.CreateTherapist(t, e.db, "Lin", models.TherapistStatusActive),
		item:      testutil.CreateServiceItem(t, e.db, "Full body massage", 128.0, 60),
	}
	testutil.OfferServices(t, e.db, b.therapist, b.item)
	return b
}

func (e *testEnv) order(t *testing.T, b booking, status models.OrderStatus) *models.Order {
	t.Helper()
	return testutil.CreateOrder(t, e.db, b.user, b.therapist, b.item, status)
}

func (e *testEnv) reloadOrder(t *testing.T, id uint) *models.Order {
	t.Helper()

	order, err := e.store.Orders.GetByID(t.Context(), id)
	require.NoError(t, err)
	return order
}

func (e *testEnv) reloadTherapist(t *testing.T, id uint) *models.Therapist {
	t.Helper()

	therapist, err := e.store.Therapists.GetByID(t.Context(), id)
	require.NoError(t, err)
	return therapist
}

func requireValidation(t *testing.T, err error, contains string) {
	t.Helper()

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Message, contains)
}

func requireNotFound(t *testing.T, err error, message string) {
	t.Helper()

	require.ErrorIs(t, err, ErrNotFoundOrForbidden)
	require.EqualError(t, err, message)
}

func requireConflict(t *testing.T, err error, message string) {
	t.Helper()

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, message, ce.Message)
}
