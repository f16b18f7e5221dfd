package handlers

import (
	"context"

	"github.com/dhima/change-monitor/internal/api/response"
	"github.com/dhima/change-monitor/internal/logging"
	"github.com/dhima/change-monitor/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InventoryReader counts what the change log currently holds.
type InventoryReader interface {
	Inventory(ctx context.Context) (models.Inventory, error)
}

// MetricsHandler handles metrics requests.
type MetricsHandler struct {
	logger    logging.Logger
	inventory InventoryReader
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(logger logging.Logger, inventory InventoryReader) *MetricsHandler {
	return &MetricsHandler{logger: logger, inventory: inventory}
}

// MetricsResponse represents the metrics response.
type MetricsResponse struct {
	ChangeLogEntries   int `json:"change_log_entries" example:"1250"`
	ChangeEventRecords int `json:"change_event_records" example:"1248"`
	MalformedEntries   int `json:"malformed_entries" example:"2"`
} // @name MetricsResponse

// Metrics godoc
// @Summary Get change log metrics
// @Description Returns how many entries the change log holds and how many of them cannot be parsed
// @Tags System
// @Produce json
// @Success 200 {object} MetricsResponse
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /metrics [get]
func (h *MetricsHandler) Metrics(c *gin.Context) {
	inv, err := h.inventory.Inventory(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to read change log inventory",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "failed to collect metrics")
		return
	}

	response.OK(c, MetricsResponse{
		ChangeLogEntries:   inv.TotalEntries,
		ChangeEventRecords: inv.Records,
		MalformedEntries:   inv.MalformedEntries,
	})
}
