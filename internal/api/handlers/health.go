package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dhima/change-monitor/internal/api/response"
	"github.com/dhima/change-monitor/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceName and ServiceVersion are reported by the health endpoint.
const (
	ServiceName    = logging.ServiceName
	ServiceVersion = "1.0.0"
)

const storePingTimeout = 2 * time.Second

// StorePinger reports whether the change log store is reachable.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and change log store reachability.
type HealthHandler struct {
	logger  logging.Logger
	backend string
	store   StorePinger
}

// NewHealthHandler creates a new health check handler. backend names the
// change log storage in use.
func NewHealthHandler(logger logging.Logger, backend string, store StorePinger) *HealthHandler {
	return &HealthHandler{
		logger:  logger.With(zap.String("handler", "health")),
		backend: backend,
		store:   store,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status     string `json:"status" example:"ok"`
	Service    string `json:"service" example:"change-monitor"`
	Version    string `json:"version" example:"1.0.0"`
	Backend    string `json:"backend" example:"file"`
	StoreError string `json:"store_error,omitempty"`
} // @name HealthResponse

// Health godoc
// @Summary Health check endpoint
// @Description Returns ok when the change log store is reachable, degraded with 503 otherwise
// @Tags System
// @Produce json
// @Success 200 {object} response.SuccessResponse{data=HealthResponse}
// @Failure 503 {object} response.SuccessResponse{data=HealthResponse}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	health := HealthResponse{
		Status:  "ok",
		Service: ServiceName,
		Version: ServiceVersion,
		Backend: h.backend,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storePingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("change log store unreachable",
			zap.String("backend", h.backend),
			zap.Error(err),
		)
		health.Status = "degraded"
		health.StoreError = err.Error()
		response.Success(c, http.StatusServiceUnavailable, health, "change log store unreachable")
		return
	}

	response.OK(c, health)
}
