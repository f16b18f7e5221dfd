package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dhima/change-monitor/internal/api/response"
	"github.com/dhima/change-monitor/internal/events"
	"github.com/dhima/change-monitor/internal/logging"
	"github.com/dhima/change-monitor/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// DefaultWindowDays is used when a query or prune call does not name a window.
const DefaultWindowDays = 30

// ChangeLogService is the subset of events.Service the log handler depends on.
type ChangeLogService interface {
	RecordChange(ctx context.Context, req models.RecordChangeRequest) (*models.ChangeEvent, error)
	QueryWindow(ctx context.Context, days int) (models.QueryResult, error)
	PruneWindow(ctx context.Context, days int) (models.PruneResult, error)
}

// recordChangeSchema checks field types before the body is bound. Presence of
// the required fields is left to the service so the messages stay uniform.
const recordChangeSchema = `{
	"type": "object",
	"properties": {
		"timestamp":     {"type": "string"},
		"url":           {"type": "string"},
		"email":         {"type": "string"},
		"lines_added":   {"type": ["integer", "null"]},
		"lines_removed": {"type": ["integer", "null"]},
		"diff_preview":  {"type": ["string", "null"]},
		"email_status":  {"type": ["string", "null"]},
		"check_type":    {"type": ["string", "null"]}
	}
}`

var recordChangeSchemaLoader = gojsonschema.NewStringLoader(recordChangeSchema)

// LogHandler serves the change log.
type LogHandler struct {
	logger  logging.Logger
	service ChangeLogService
}

// NewLogHandler creates a new change log handler.
func NewLogHandler(logger logging.Logger, service ChangeLogService) *LogHandler {
	return &LogHandler{
		logger:  logger.With(zap.String("handler", "logs")),
		service: service,
	}
}

// RecordChange godoc
// @Summary Record a change event
// @Description Appends one change event to the change log. timestamp, url and email are required; the other fields default.
// @Tags Logs
// @Accept json
// @Produce json
// @Param change body models.RecordChangeRequest true "Change event"
// @Success 201 {object} response.SuccessResponse{data=models.ChangeEvent}
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/logs [post]
func (h *LogHandler) RecordChange(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("invalid record change request",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := gojsonschema.Validate(recordChangeSchemaLoader, gojsonschema.NewGoLoader(payload))
	if err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if !result.Valid() {
		fieldErrors := response.SchemaErrors(result)
		h.logger.Warn("record change request failed schema validation",
			zap.Int("error_count", len(fieldErrors)),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.ValidationErrors(c, fieldErrors)
		return
	}

	var req models.RecordChangeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	event, err := h.service.RecordChange(c.Request.Context(), req)
	if h.handleServiceError(c, err, "record change") {
		return
	}

	h.logger.Info("change recorded",
		zap.String("url", event.ResourceURL),
		zap.String("email_status", string(event.DeliveryStatus)),
		zap.String("request_id", response.GetRequestID(c)),
	)

	response.Created(c, event, "change logged successfully")
}

// QueryLogs godoc
// @Summary List recent change events
// @Description Returns change events inside the retention window, newest first, with statistics over the returned set
// @Tags Logs
// @Produce json
// @Param days query int false "Retention window in days" default(30) minimum(1)
// @Success 200 {object} response.SuccessResponse{data=models.QueryResult}
// @Failure 400 {object} response.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/logs [get]
func (h *LogHandler) QueryLogs(c *gin.Context) {
	days, ok := h.parseDays(c, c.Query("days"))
	if !ok {
		return
	}

	result, err := h.service.QueryWindow(c.Request.Context(), days)
	if h.handleServiceError(c, err, "query logs") {
		return
	}

	response.OK(c, result)
}

// PruneLogs godoc
// @Summary Prune old change events
// @Description Removes change events older than the retention window. Lines that cannot be parsed are always kept.
// @Tags Logs
// @Accept json
// @Produce json
// @Param prune body models.PruneRequest false "Retention window"
// @Success 200 {object} response.SuccessResponse{data=models.PruneResult}
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/logs/prune [post]
func (h *LogHandler) PruneLogs(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	days := DefaultWindowDays
	if len(bytes.TrimSpace(body)) > 0 {
		var req models.PruneRequest
		if err := json.Unmarshal(body, &req); err != nil {
			response.BadRequest(c, "invalid request body", err.Error())
			return
		}
		if req.Days != nil {
			days = *req.Days
		}
	}

	result, err := h.service.PruneWindow(c.Request.Context(), days)
	if h.handleServiceError(c, err, "prune logs") {
		return
	}

	h.logger.Info("change log pruned",
		zap.Int("days", days),
		zap.Int("removed", result.Removed),
		zap.Int("remaining", result.Remaining),
		zap.String("request_id", response.GetRequestID(c)),
	)

	response.Success(c, http.StatusOK, result, "cleared "+strconv.Itoa(result.Removed)+" old log entries")
}

func (h *LogHandler) parseDays(c *gin.Context, raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultWindowDays, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		response.BadRequest(c, "invalid query parameters", "days must be an integer")
		return 0, false
	}
	return days, true
}

// handleServiceError writes the error response for err and reports whether it did.
func (h *LogHandler) handleServiceError(c *gin.Context, err error, operation string) bool {
	if err == nil {
		return false
	}

	var validationErr events.ValidationError
	if errors.As(err, &validationErr) {
		response.ValidationErrors(c, []response.ValidationError{{
			Field:   validationErr.Field,
			Message: validationErr.Error(),
		}})
		return true
	}

	h.logger.Error(operation+" failed",
		zap.Error(err),
		zap.String("request_id", response.GetRequestID(c)),
	)
	response.InternalServerError(c, "failed to "+operation)
	return true
}
