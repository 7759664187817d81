package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kendall-kelly/home-therapy-api/models"
)

func TestCreatePayment(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)
	order := env.order(t, f, models.OrderStatusPending)
	path := fmt.Sprintf("/api/v1/orders/%d/payment", order.ID)

	w := env.do(t, http.MethodPost, path, env.userToken(t, f.user), map[string]any{"payment_method": "alipay"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeData(t, w)
	assert.Equal(t, float64(order.ID), data["order_id"])

	params := data["payment_params"].(map[string]any)
	assert.Equal(t, order.OrderNo, params["order_no"])
	assert.Equal(t, 128.0, params["amount"])
	assert.Equal(t, "alipay", params["payment_method"])
	assert.True(t, strings.HasPrefix(params["code_url"].(string), "https://pay.test/simulate?"))
	assert.True(t, strings.HasPrefix(params["qr_code"].(string), "data:image/png;base64,"))

	info := data["order_info"].(map[string]any)
	assert.Equal(t, "unpaid", info["payment_status_text"])

	t.Run("defaults to wechat without a body", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, env.userToken(t, f.user), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		params := decodeData(t, w)["payment_params"].(map[string]any)
		assert.Equal(t, "wechat", params["payment_method"])
	})

	t.Run("unsupported method", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, env.userToken(t, f.user), map[string]any{"payment_method": "bitcoin"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cancelled order", func(t *testing.T) {
		cancelled := env.order(t, f, models.OrderStatusCancelled)
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/payment", cancelled.ID), env.userToken(t, f.user), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "order has been cancelled", decode(t, w).Message)
	})
}

func TestPaymentCallback(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)
	order := env.order(t, f, models.OrderStatusPending)

	payload := map[string]any{
		"order_no":       order.OrderNo,
		"transaction_id": "TX-1",
		"payment_method": "wechat",
		"amount":         128.0,
		"status":         "success",
	}

	w := env.do(t, http.MethodPost, "/api/v1/payments/callback", "", payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "callback received", decode(t, w).Message)

	var paid models.Order
	require.NoError(t, env.db.First(&paid, order.ID).Error)
	assert.Equal(t, models.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaidAt)

	t.Run("duplicate success keeps paid_at", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/payments/callback", "", payload)
		require.Equal(t, http.StatusOK, w.Code)

		var again models.Order
		require.NoError(t, env.db.First(&again, order.ID).Error)
		assert.True(t, paid.PaidAt.Equal(*again.PaidAt))
	})

	t.Run("rejected payloads still answer 200", func(t *testing.T) {
		bad := []any{
			map[string]any{"order_no": order.OrderNo},
			map[string]any{"order_no": "NOPE", "transaction_id": "TX", "payment_method": "wechat", "amount": 1.0, "status": "success"},
			"not an object",
		}
		for _, body := range bad {
			w := env.do(t, http.MethodPost, "/api/v1/payments/callback", "", body)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, 200, decode(t, w).Code)
		}
	})

	t.Run("payment status", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d/payment", order.ID), env.userToken(t, f.user), nil)
		require.Equal(t, http.StatusOK, w.Code)

		data := decodeData(t, w)
		assert.Equal(t, float64(1), data["payment_status"])
		assert.Equal(t, "paid", data["payment_status_text"])
		assert.Equal(t, "TX-1", data["transaction_id"])
		assert.Equal(t, "wechat", data["payment_method"])
		assert.NotNil(t, data["paid_at"])
	})
}

func TestRefund(t *testing.T) {
	env := newAPIEnv(t)
	f := env.fixture(t)
	order := env.order(t, f, models.OrderStatusCompleted)
	require.NoError(t, env.db.Model(order).Updates(map[string]any{
		"payment_status": models.PaymentStatusPaid,
		"transaction_id": "TX-9",
	}).Error)

	path := fmt.Sprintf("/api/v1/orders/%d/refund", order.ID)
	token := env.userToken(t, f.user)

	t.Run("amount above price", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, token, map[string]any{"amount": 500.0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing amount", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, token, map[string]any{"reason": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "refund amount must be greater than 0", decode(t, w).Message)
	})

	w := env.do(t, http.MethodPost, path, token, map[string]any{"amount": 128.0, "reason": "changed plans"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeData(t, w)
	assert.Equal(t, "success", data["status"])
	assert.Equal(t, "TX-9", data["transaction_id"])
	assert.Equal(t, "changed plans", data["reason"])
	assert.NotEmpty(t, data["refund_no"])

	t.Run("second refund fails", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, token, map[string]any{"amount": 1.0})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("therapist cannot refund", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, env.therapistToken(t, f.therapist), map[string]any{"amount": 1.0})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
