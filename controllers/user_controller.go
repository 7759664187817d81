package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/middleware"
	"github.com/kendall-kelly/home-therapy-api/services"
)

// RegisterRequest represents the request body for creating a user profile
type RegisterRequest struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email" binding:"omitempty,email"`
	AvatarURL *string `json:"avatar_url"`
}

// UserController serves sign-up and the caller's own profile
type UserController struct {
	users *services.UserService
	log   *zap.Logger
}

func NewUserController(users *services.UserService, log *zap.Logger) *UserController {
	return &UserController{users: users, log: log}
}

// Register handles POST /api/v1/users - creates the profile for the token subject.
// Missing name and email are taken from the identity provider when available.
func (h *UserController) Register(c *gin.Context) {
	subject, err := middleware.GetUserID(c)
	if err != nil {
		respond(c, http.StatusUnauthorized, "could not extract user id from token", nil)
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request data: "+err.Error())
		return
	}

	user, err := h.users.Register(c.Request.Context(), subject, middleware.GetAccessToken(c), services.RegisterInput{
		Username: req.Username,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondCreated(c, user)
}

// GetMyProfile handles GET /api/v1/users/me
func (h *UserController) GetMyProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	user, err := h.users.GetProfile(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me
func (h *UserController) UpdateMyProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request data: "+err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), actor.ID, services.ProfileUpdate{
		Username:  req.Username,
		Phone:     req.Phone,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, user)
}
