package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kendall-kelly/home-therapy-api/config"
	"github.com/kendall-kelly/home-therapy-api/middleware"
	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
	"github.com/kendall-kelly/home-therapy-api/services"
	"github.com/kendall-kelly/home-therapy-api/tests/testutil"
)

const testJWTSecret = "controllers-test-secret"

// apiEnv is the full router over an in-memory database
type apiEnv struct {
	db     *gorm.DB
	store  *repository.Store
	events *services.MockEventPublisher
	s3     *services.MockS3Service
	router *gin.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	store := repository.NewStore(db)
	events := services.NewMockEventPublisher()
	s3 := services.NewMockS3Service()
	log := zap.NewNop()

	auth, err := middleware.EnsureValidToken(&config.Config{JWTSecret: testJWTSecret}, log)
	require.NoError(t, err)

	router := NewRouter(Dependencies{
		Store:     store,
		Orders:    services.NewOrderService(store, events, log),
		Payments:  services.NewPaymentService(store, services.NoopLocker{}, events, "https://pay.test/simulate", log),
		Feedback:  services.NewFeedbackService(store, events, log),
		Messages:  services.NewMessageService(store, events, log),
		Catalog:   services.NewCatalogService(store, services.NewS3ImageService(s3), log),
		Users:     services.NewUserService(store, nil, log),
		Auth:      auth,
		UploadDir: t.TempDir(),
		Log:       log,
	})

	return &apiEnv{db: db, store: store, events: events, s3: s3, router: router}
}

func (e *apiEnv) token(t *testing.T, subject string, role models.Role) string {
	t.Helper()

	token, err := middleware.IssueLocalToken(testJWTSecret, subject, role, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *apiEnv) userToken(t *testing.T, user *models.User) string {
	t.Helper()
	return e.token(t, user.AuthSubject, models.RoleUser)
}

func (e *apiEnv) therapistToken(t *testing.T, therapist *models.Therapist) string {
	t.Helper()
	require.NotNil(t, therapist.AuthSubject)
	return e.token(t, *therapist.AuthSubject, models.RoleTherapist)
}

// do sends a JSON request; body may be nil
func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// envelope is the decoded response body
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

// decodeData unmarshals the envelope's data into a map
func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var data map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	return data
}

// fixture is a user, an active therapist and a bookable item
type fixture struct {
	user      *models.User
	therapist *models.Therapist
	item      *models.ServiceItem
}

func (e *apiEnv) fixture(t *testing.T) fixture {
	t.Helper()

	f := fixture{
		user:      testutil.CreateUser(t, e.db, "auth0|customer"),
		therapist: testutil.CreateTherapist(t, e.db, "Lin", models.TherapistStatusActive),
		item:      testutil.CreateServiceItem(t, e.db, "Full body massage", 128.0, 60),
	}
	testutil.OfferServices(t, e.db, f.therapist, f.item)
	return f
}

func (e *apiEnv) order(t *testing.T, f fixture, status models.OrderStatus) *models.Order {
	t.Helper()
	return testutil.CreateOrder(t, e.db, f.user, f.therapist, f.item, status)
}
