package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/models"
)

// ContextKeyActor holds the resolved models.Actor
const ContextKeyActor = "actor"

// ActorResolver maps a verified token subject to an account. ok is false when
// the subject has no usable account.
type ActorResolver interface {
	ResolveActor(ctx context.Context, subject string, role models.Role) (actor models.Actor, ok bool, err error)
}

// ResolveActor runs after EnsureValidToken and loads the caller's account
func ResolveActor(resolver ActorResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := GetUserID(c)
		if err != nil {
			abortWithStatus(c, http.StatusUnauthorized, "invalid or missing token")
			return
		}

		actor, ok, err := resolver.ResolveActor(c.Request.Context(), subject, GetTokenRole(c))
		if err != nil {
			log.Error("failed to resolve actor", zap.String("subject", subject), zap.Error(err))
			abortWithStatus(c, http.StatusInternalServerError, "internal server error")
			return
		}
		if !ok {
			abortWithStatus(c, http.StatusUnauthorized, "user not registered")
			return
		}

		SetActor(c, actor)
		c.Next()
	}
}

// RequireRole lets the request through when the actor has one of roles.
// Admins pass every user check.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortWithStatus(c, http.StatusUnauthorized, "user not registered")
			return
		}

		allowed := slices.Contains(roles, actor.Role) ||
			(actor.Role == models.RoleAdmin && slices.Contains(roles, models.RoleUser))
		if !allowed {
			abortWithStatus(c, http.StatusForbidden, "insufficient permissions")
			return
		}

		c.Next()
	}
}

// SetActor stores the resolved caller on the request
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(ContextKeyActor, actor)
}

// GetActor returns the caller resolved by ResolveActor
func GetActor(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ContextKeyActor)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}
