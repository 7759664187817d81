package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is the database view the health endpoints need
type Pinger interface {
	Ping(ctx context.Context) error
	Tables() ([]string, error)
}

// HealthController reports liveness and database connectivity
type HealthController struct {
	db  Pinger
	log *zap.Logger
}

func NewHealthController(db Pinger, log *zap.Logger) *HealthController {
	return &HealthController{db: db, log: log}
}

// HealthCheck handles GET /api/v1/health
func (h *HealthController) HealthCheck(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}

// DatabaseStatus handles GET /api/v1/database/status - checks connectivity
// and lists the tables
func (h *HealthController) DatabaseStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database ping failed", zap.Error(err))
		respond(c, http.StatusServiceUnavailable, "database connection failed", nil)
		return
	}

	tables, err := h.db.Tables()
	if err != nil {
		h.log.Error("failed to list tables", zap.Error(err))
		respond(c, http.StatusInternalServerError, "failed to query tables", nil)
		return
	}

	respondOK(c, gin.H{"status": "connected", "tables": tables})
}
