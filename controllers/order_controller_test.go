package controllers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/tests/testutil"
)

func TestCreateOrder(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)

	validBody := func() map[string]any {
		return map[string]any{
			"therapist_id":    f.therapist.ID,
			"service_item_id": f.item.ID,
			"service_time":    time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
			"service_address": "88 Garden Road",
			"contact_phone":   "13800000001",
			"remark":          "second floor",
		}
	}

	t.Run("creates order with snapshot", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/orders", env.userToken(t, f.user), validBody())
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		data := decodeData(t, w)
		assert.Equal(t, float64(0), data["status"])
		assert.Equal(t, "pending", data["status_text"])
		assert.Equal(t, float64(0), data["payment_status"])
		assert.Equal(t, "unpaid", data["payment_status_text"])
		assert.Equal(t, "Full body massage", data["service_name"])
		assert.Equal(t, 128.0, data["price"])
		assert.Equal(t, float64(60), data["duration"])
		assert.Equal(t, float64(f.user.ID), data["user_id"])
		assert.NotEmpty(t, data["order_no"])
	})

	t.Run("missing fields", func(t *testing.T) {
		body := validBody()
		delete(body, "service_address")

		w := env.do(t, http.MethodPost, "/api/v1/orders", env.userToken(t, f.user), body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 400, decode(t, w).Code)
	})

	t.Run("therapist cannot book", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/orders", env.therapistToken(t, f.therapist), validBody())
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unregistered subject", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/orders", env.token(t, "auth0|nobody", models.RoleUser), validBody())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "user not registered", decode(t, w).Message)
	})

	t.Run("no token", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/orders", "", validBody())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("inactive therapist", func(t *testing.T) {
		pending := testutil.CreateTherapist(t, env.db, "Pending", models.TherapistStatusPending)
		body := validBody()
		body["therapist_id"] = pending.ID

		w := env.do(t, http.MethodPost, "/api/v1/orders", env.userToken(t, f.user), body)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "therapist not found or unavailable", decode(t, w).Message)
	})
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)
	order := env.order(t, f, models.OrderStatusPending)
	therapistToken := env.therapistToken(t, f.therapist)

	steps := []struct {
		action     string
		wantStatus float64
		wantText   string
	}{
		{action: "accept", wantStatus: 1, wantText: "accepted"},
		{action: "start-journey", wantStatus: 2, wantText: "on_the_way"},
		{action: "start_service", wantStatus: 3, wantText: "in_service"},
		{action: "complete", wantStatus: 4, wantText: "completed"},
	}

	for _, step := range steps {
		path := fmt.Sprintf("/api/v1/orders/%d/actions/%s", order.ID, step.action)
		w := env.do(t, http.MethodPost, path, therapistToken, nil)
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", step.action, w.Body.String())

		data := decodeData(t, w)
		assert.Equal(t, step.wantStatus, data["status"])
		assert.Equal(t, step.wantText, data["status_text"])
	}

	var therapist models.Therapist
	require.NoError(t, env.db.First(&therapist, f.therapist.ID).Error)
	assert.Equal(t, 1, therapist.ServiceCount)

	// a second complete is out of sequence
	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/actions/complete", order.ID), therapistToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "order not found or status not allowed", decode(t, w).Message)
}

func TestTransitionOrder_Rejections(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)
	order := env.order(t, f, models.OrderStatusPending)
	other := testutil.CreateTherapist(t, env.db, "Other", models.TherapistStatusActive)

	tests := []struct {
		name       string
		token      string
		path       string
		wantStatus int
	}{
		{
			name:       "unassigned therapist",
			token:      env.therapistToken(t, other),
			path:       fmt.Sprintf("/api/v1/orders/%d/actions/accept", order.ID),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "user cannot accept",
			token:      env.userToken(t, f.user),
			path:       fmt.Sprintf("/api/v1/orders/%d/actions/accept", order.ID),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "therapist cannot cancel",
			token:      env.therapistToken(t, f.therapist),
			path:       fmt.Sprintf("/api/v1/orders/%d/actions/cancel", order.ID),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown action",
			token:      env.therapistToken(t, f.therapist),
			path:       fmt.Sprintf("/api/v1/orders/%d/actions/teleport", order.ID),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid id",
			token:      env.therapistToken(t, f.therapist),
			path:       "/api/v1/orders/abc/actions/accept",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.token, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	var reloaded models.Order
	require.NoError(t, env.db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, reloaded.Status)
}

func TestCancelOrder(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)
	order := env.order(t, f, models.OrderStatusAccepted)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/actions/cancel", order.ID), env.userToken(t, f.user), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decodeData(t, w)["status_text"])

	inService := env.order(t, f, models.OrderStatusInService)
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/actions/cancel", inService.ID), env.userToken(t, f.user), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAndGetOrders(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)
	first := env.order(t, f, models.OrderStatusPending)
	second := env.order(t, f, models.OrderStatusCompleted)

	stranger := testutil.CreateUser(t, env.db, "auth0|stranger")

	t.Run("user sees own orders", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/orders?page=1&per_page=10", env.userToken(t, f.user), nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeData(t, w)
		assert.Equal(t, float64(2), data["total"])
		assert.Len(t, data["items"], 2)
	})

	t.Run("status filter", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/orders?status=4", env.userToken(t, f.user), nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeData(t, w)
		items := data["items"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, float64(second.ID), items[0].(map[string]any)["id"])
	})

	t.Run("invalid status filter", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/orders?status=9", env.userToken(t, f.user), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("therapist sees assigned orders", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/orders", env.therapistToken(t, f.therapist), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), decodeData(t, w)["total"])
	})

	t.Run("stranger sees nothing", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/orders", env.userToken(t, stranger), nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, float64(0), data["total"])
		assert.Equal(t, []any{}, data["items"])
	})

	t.Run("get own order", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", first.ID), env.userToken(t, f.user), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, first.OrderNo, decodeData(t, w)["order_no"])
	})

	t.Run("get other user's order", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", first.ID), env.userToken(t, stranger), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
