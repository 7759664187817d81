package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kendall-kelly/home-therapy-api/config"
	"github.com/kendall-kelly/home-therapy-api/controllers"
	"github.com/kendall-kelly/home-therapy-api/middleware"
	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
	"github.com/kendall-kelly/home-therapy-api/services"
	"github.com/kendall-kelly/home-therapy-api/tests/testutil"
)

const jwtSecret = "integration-secret"

// harness is the API wired the way main wires it: real services over an
// in-memory database, Redis locks on miniredis and images on local disk
type harness struct {
	db        *gorm.DB
	router    *gin.Engine
	events    *services.MockEventPublisher
	uploadDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(t)

	db := testutil.NewTestDB(t)
	store := repository.NewStore(db)
	events := services.NewMockEventPublisher()
	log := zap.NewNop()
	uploadDir := t.TempDir()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	auth, err := middleware.EnsureValidToken(&config.Config{JWTSecret: jwtSecret}, log)
	require.NoError(t, err)

	router := controllers.NewRouter(controllers.Dependencies{
		Store:     store,
		Orders:    services.NewOrderService(store, events, log),
		Payments:  services.NewPaymentService(store, services.NewRedisLocker(client, 5*time.Second, log), events, "https://pay.test/simulate", log),
		Feedback:  services.NewFeedbackService(store, events, log),
		Messages:  services.NewMessageService(store, events, log),
		Catalog:   services.NewCatalogService(store, services.NewLocalImageService(uploadDir), log),
		Users:     services.NewUserService(store, nil, log),
		Auth:      auth,
		UploadDir: uploadDir,
		Log:       log,
	})

	return &harness{db: db, router: router, events: events, uploadDir: uploadDir}
}

func (h *harness) token(t *testing.T, subject string, role models.Role) string {
	t.Helper()

	token, err := middleware.IssueLocalToken(jwtSecret, subject, role, time.Hour)
	require.NoError(t, err)
	return token
}

// apiResponse is the envelope every endpoint answers with
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w, decodeResponse(t, w)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()

	var resp apiResponse
	if w.Header().Get("Content-Type") == "" || !json.Valid(w.Body.Bytes()) {
		return resp
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// into decodes the envelope data into v
func (r apiResponse) into(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, v))
}
