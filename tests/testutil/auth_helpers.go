package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"

	"github.com/kendall-kelly/home-therapy-api/middleware"
	"github.com/kendall-kelly/home-therapy-api/models"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, role models.Role) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Role: string(role),
		},
	}
}

// MockTokenMiddleware stands in for EnsureValidToken and marks the request as
// authenticated for subject with the given role claim
func MockTokenMiddleware(subject string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetTokenContext(c, subject, role, "mock-token")
		c.Set(middleware.ContextKeyClaims, MockValidatedClaims(subject, "https://test.auth0.com/", role))
		c.Next()
	}
}

// MockActorMiddleware skips token handling and injects an already resolved actor
func MockActorMiddleware(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetActor(c, actor)
		c.Next()
	}
}
