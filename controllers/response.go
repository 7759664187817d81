package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/services"
	"github.com/kendall-kelly/home-therapy-api/utils"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Code: status, Message: message, Data: data})
}

func respondOK(c *gin.Context, data any) {
	respond(c, http.StatusOK, "success", data)
}

func respondCreated(c *gin.Context, data any) {
	respond(c, http.StatusCreated, "created", data)
}

func badRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, message, nil)
}

// respondError maps a service error onto the envelope. Anything outside the
// service taxonomy is logged and hidden behind a generic 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var (
		validationErr *services.ValidationError
		conflictErr   *services.ConflictError
		notFoundErr   *services.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		badRequest(c, validationErr.Message)
	case errors.As(err, &conflictErr):
		badRequest(c, conflictErr.Message)
	case errors.As(err, &notFoundErr):
		respond(c, http.StatusNotFound, notFoundErr.Message, nil)
	case errors.Is(err, services.ErrNotFoundOrForbidden):
		respond(c, http.StatusNotFound, "not found", nil)
	default:
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		respond(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

// idParam reads a positive integer path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// pagination reads page and per_page, accepting size as an alias for per_page
func pagination(c *gin.Context) utils.Pagination {
	size := c.Query("per_page")
	if size == "" {
		size = c.Query("size")
	}
	return utils.ParsePagination(c.Query("page"), size)
}
