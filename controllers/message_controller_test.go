package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/tests/testutil"
)

func TestSendMessage(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)
	order := env.order(t, f, models.OrderStatusAccepted)
	path := fmt.Sprintf("/api/v1/orders/%d/messages", order.ID)

	tests := []struct {
		name       string
		token      string
		body       map[string]any
		wantStatus int
	}{
		{
			name:       "user writes to therapist",
			token:      env.userToken(t, f.user),
			body:       map[string]any{"content": "please bring oil"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "therapist replies",
			token:      env.therapistToken(t, f.therapist),
			body:       map[string]any{"content": "on my way"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "empty content",
			token:      env.userToken(t, f.user),
			body:       map[string]any{"content": ""},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too long",
			token:      env.userToken(t, f.user),
			body:       map[string]any{"content": strings.Repeat("a", 2001)},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "stranger",
			token:      env.userToken(t, testutil.CreateUser(t, env.db, "auth0|stranger")),
			body:       map[string]any{"content": "hi"},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	var messages []models.Message
	require.NoError(t, env.db.Order("id").Find(&messages).Error)
	require.Len(t, messages, 2)
	assert.Equal(t, f.therapist.ID, messages[0].ReceiverID)
	assert.Equal(t, models.RoleTherapist, messages[0].ReceiverRole)
	assert.Equal(t, f.user.ID, messages[1].ReceiverID)
	assert.Equal(t, models.RoleUser, messages[1].ReceiverRole)
}

func TestMessageHistoryAndUnread(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)
	order := env.order(t, f, models.OrderStatusAccepted)
	userToken := env.userToken(t, f.user)
	therapistToken := env.therapistToken(t, f.therapist)
	path := fmt.Sprintf("/api/v1/orders/%d/messages", order.ID)

	for _, content := range []string{"first", "second"} {
		w := env.do(t, http.MethodPost, path, userToken, map[string]any{"content": content})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	unread := func(token string) float64 {
		w := env.do(t, http.MethodGet, "/api/v1/messages/unread-count", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		return decodeData(t, w)["unread_count"].(float64)
	}
	assert.Equal(t, float64(2), unread(therapistToken))
	assert.Equal(t, float64(0), unread(userToken))

	// the sender reading the thread leaves the therapist's messages unread
	w := env.do(t, http.MethodGet, path, userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), unread(therapistToken))

	w = env.do(t, http.MethodGet, path, therapistToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeData(t, w)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].(map[string]any)["content"])
	assert.Equal(t, float64(0), unread(therapistToken))

	stranger := testutil.CreateUser(t, env.db, "auth0|stranger")
	w = env.do(t, http.MethodGet, path, env.userToken(t, stranger), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationsAndMarkRead(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)
	older := env.order(t, f, models.OrderStatusAccepted)
	newer := env.order(t, f, models.OrderStatusPending)
	userToken := env.userToken(t, f.user)
	therapistToken := env.therapistToken(t, f.therapist)

	send := func(orderID uint, content string) uint {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/messages", orderID), userToken, map[string]any{"content": content})
		require.Equal(t, http.StatusCreated, w.Code)
		return uint(decodeData(t, w)["id"].(float64))
	}
	send(older.ID, "about the first order")
	latest := send(newer.ID, "about the second order")

	w := env.do(t, http.MethodGet, "/api/v1/messages/conversations", therapistToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeData(t, w)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, float64(newer.ID), items[0].(map[string]any)["order_id"])

	t.Run("sender cannot mark read", func(t *testing.T) {
		w := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/messages/%d/read", latest), userToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("receiver marks read", func(t *testing.T) {
		w := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/messages/%d/read", latest), therapistToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeData(t, w)["is_read"])
	})
}
