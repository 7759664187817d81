package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/models"
)

type stubResolver struct {
	actor models.Actor
	ok    bool
	err   error

	gotSubject string
	gotRole    models.Role
}

func (s *stubResolver) ResolveActor(_ context.Context, subject string, role models.Role) (models.Actor, bool, error) {
	s.gotSubject = subject
	s.gotRole = role
	return s.actor, s.ok, s.err
}

func serveWithToken(t *testing.T, handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	chain := append([]gin.HandlerFunc{func(c *gin.Context) {
		SetTokenContext(c, "auth0|abc", models.RoleTherapist, "tok")
		c.Next()
	}}, handlers...)
	chain = append(chain, func(c *gin.Context) {
		actor, ok := GetActor(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, actor)
	})
	router.GET("/", chain...)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestResolveActor(t *testing.T) {
	resolver := &stubResolver{actor: models.Actor{ID: 7, Role: models.RoleTherapist}, ok: true}

	w := serveWithToken(t, ResolveActor(resolver, zap.NewNop()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"therapist"}`, w.Body.String())
	assert.Equal(t, "auth0|abc", resolver.gotSubject)
	assert.Equal(t, models.RoleTherapist, resolver.gotRole)
}

func TestResolveActor_Unregistered(t *testing.T) {
	w := serveWithToken(t, ResolveActor(&stubResolver{}, zap.NewNop()))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"code":401,"message":"user not registered","data":null}`, w.Body.String())
}

func TestResolveActor_Error(t *testing.T) {
	w := serveWithToken(t, ResolveActor(&stubResolver{err: errors.New("db down")}, zap.NewNop()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResolveActor_NoSubject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", ResolveActor(&stubResolver{ok: true}, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		actor      models.Role
		allowed    []models.Role
		wantStatus int
	}{
		{name: "user allowed", actor: models.RoleUser, allowed: []models.Role{models.RoleUser}, wantStatus: http.StatusOK},
		{name: "therapist blocked", actor: models.RoleTherapist, allowed: []models.Role{models.RoleUser}, wantStatus: http.StatusForbidden},
		{name: "admin passes user check", actor: models.RoleAdmin, allowed: []models.Role{models.RoleUser}, wantStatus: http.StatusOK},
		{name: "user blocked from admin", actor: models.RoleUser, allowed: []models.Role{models.RoleAdmin}, wantStatus: http.StatusForbidden},
		{name: "admin blocked from therapist", actor: models.RoleAdmin, allowed: []models.Role{models.RoleTherapist}, wantStatus: http.StatusForbidden},
		{name: "either role", actor: models.RoleTherapist, allowed: []models.Role{models.RoleUser, models.RoleTherapist}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setActor := func(c *gin.Context) {
				SetActor(c, models.Actor{ID: 1, Role: tt.actor})
				c.Next()
			}
			w := serveWithToken(t, setActor, RequireRole(tt.allowed...))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequireRole_NoActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RequireRole(models.RoleUser)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
