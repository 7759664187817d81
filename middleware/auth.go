package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/config"
	"github.com/kendall-kelly/home-therapy-api/models"
)

// Gin context keys set by EnsureValidToken
const (
	ContextKeySubject     = "user_id"
	ContextKeyClaims      = "validated_claims"
	ContextKeyRole        = "token_role"
	ContextKeyAccessToken = "access_token"
)

// localIssuer is the issuer of tokens signed with JWT_SECRET
const localIssuer = "home-therapy-api"

// CustomClaims contains custom data we want from the token.
type CustomClaims struct {
	Role string `json:"role"`
}

// Validate rejects role claims outside the known identity spaces
func (c CustomClaims) Validate(ctx context.Context) error {
	switch models.Role(c.Role) {
	case "", models.RoleUser, models.RoleTherapist, models.RoleAdmin:
		return nil
	}
	return fmt.Errorf("unknown role claim %q", c.Role)
}

// TokenRole maps the role claim onto the identity space the subject lives in.
// Admin is a property of the user account, not of the token.
func (c CustomClaims) TokenRole() models.Role {
	if models.Role(c.Role) == models.RoleTherapist {
		return models.RoleTherapist
	}
	return models.RoleUser
}

// localClaims is the payload of locally signed tokens
type localClaims struct {
	jwt.RegisteredClaims
	CustomClaims
}

// EnsureValidToken checks the bearer token of every request. Tokens are
// verified against Auth0 when a domain is configured and against JWT_SECRET
// otherwise.
func EnsureValidToken(cfg *config.Config, log *zap.Logger) (gin.HandlerFunc, error) {
	if cfg.UsesAuth0() {
		return auth0Validator(cfg, log)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("no token verifier configured")
	}
	return localValidator([]byte(cfg.JWTSecret), log), nil
}

func auth0Validator(cfg *config.Config, log *zap.Logger) (gin.HandlerFunc, error) {
	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Info("rejected token", zap.String("path", r.URL.Path), zap.Error(err))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":401,"message":"invalid or missing token","data":null}`))
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			claims := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			var role models.Role = models.RoleUser
			if custom, ok := claims.CustomClaims.(*CustomClaims); ok {
				role = custom.TokenRole()
			}

			token, _ := bearerToken(r)
			SetTokenContext(c, claims.RegisteredClaims.Subject, role, token)
			c.Set(ContextKeyClaims, claims)
			c.Request = r

			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}, nil
}

func localValidator(secret []byte, log *zap.Logger) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(localIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(time.Minute),
	)

	return func(c *gin.Context) {
		raw, err := bearerToken(c.Request)
		if err != nil {
			log.Info("rejected token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			abortWithStatus(c, http.StatusUnauthorized, "invalid or missing token")
			return
		}

		claims := &localClaims{}
		_, err = parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err == nil {
			err = claims.CustomClaims.Validate(c.Request.Context())
		}
		if err == nil && claims.Subject == "" {
			err = errors.New("token has no subject")
		}
		if err != nil {
			log.Info("rejected token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			abortWithStatus(c, http.StatusUnauthorized, "invalid or missing token")
			return
		}

		SetTokenContext(c, claims.Subject, claims.TokenRole(), raw)
		c.Set(ContextKeyClaims, &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{
				Issuer:  claims.Issuer,
				Subject: claims.Subject,
			},
			CustomClaims: &CustomClaims{Role: claims.Role},
		})
		c.Next()
	}
}

// IssueLocalToken signs a token the local verifier accepts. It backs test
// tooling and development logins; there is no public issuing endpoint.
func IssueLocalToken(secret, subject string, role models.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := localClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    localIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		CustomClaims: CustomClaims{Role: string(role)},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("authorization header is missing")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("authorization header format must be Bearer {token}")
	}
	return strings.TrimSpace(token), nil
}

// SetTokenContext records an authenticated subject on the request
func SetTokenContext(c *gin.Context, subject string, role models.Role, accessToken string) {
	c.Set(ContextKeySubject, subject)
	c.Set(ContextKeyRole, role)
	c.Set(ContextKeyAccessToken, accessToken)
}

// GetUserID extracts the token subject from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get(ContextKeySubject)
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetTokenRole returns the identity space named by the token
func GetTokenRole(c *gin.Context) models.Role {
	if role, ok := c.Get(ContextKeyRole); ok {
		if r, ok := role.(models.Role); ok {
			return r
		}
	}
	return models.RoleUser
}

// GetAccessToken returns the raw bearer token of the request
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ContextKeyAccessToken)
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// abortWithStatus ends the request with the API's response envelope
func abortWithStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    status,
		"message": message,
		"data":    nil,
	})
}
