package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dhima/change-monitor/internal/api/response"
	"github.com/dhima/change-monitor/internal/events"
	"github.com/dhima/change-monitor/internal/logging"
	"github.com/dhima/change-monitor/internal/notify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Notifier delivers change notifications and checks provider credentials.
type Notifier interface {
	Dispatch(ctx context.Context, n notify.Notification, providerName string, creds notify.Credentials) error
	Probe(ctx context.Context, recipient, providerName string, creds notify.Credentials) (notify.ProbeResult, error)
}

// SendNotificationRequest is the body of a notification send call.
type SendNotificationRequest struct {
	Email        string `json:"email" binding:"required" example:"ops@example.com"`
	URL          string `json:"url" binding:"required" example:"https://example.com/robots.txt"`
	LinesAdded   int    `json:"lines_added" example:"3"`
	LinesRemoved int    `json:"lines_removed" example:"1"`
	DiffPreview  string `json:"diff_preview" example:"+Disallow: /admin"`
	Timestamp    string `json:"timestamp" example:"2024-01-15T09:30:00Z"`
	Service      string `json:"service" binding:"required" example:"sendgrid"`
	notify.Credentials
} // @name SendNotificationRequest

// TestNotificationRequest is the body of a credential check.
type TestNotificationRequest struct {
	Email   string `json:"email" binding:"required" example:"ops@example.com"`
	Service string `json:"service" binding:"required" example:"mailgun"`
	notify.Credentials
} // @name TestNotificationRequest

// NotificationHandler sends change notifications.
type NotificationHandler struct {
	logger   logging.Logger
	notifier Notifier
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(logger logging.Logger, notifier Notifier) *NotificationHandler {
	return &NotificationHandler{
		logger:   logger.With(zap.String("handler", "notifications")),
		notifier: notifier,
	}
}

// Send godoc
// @Summary Send a change notification
// @Description Renders the change as an HTML e-mail and makes one delivery attempt through the selected service
// @Tags Notifications
// @Accept json
// @Produce json
// @Param notification body SendNotificationRequest true "Change and provider credentials"
// @Success 200 {object} response.SuccessResponse{data=map[string]string}
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 502 {object} response.ErrorResponse "Provider rejected the message"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/notifications/send [post]
func (h *NotificationHandler) Send(c *gin.Context) {
	var req SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid send notification request",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "email, url and service are required", err.Error())
		return
	}

	n := notify.Notification{
		Recipient:    req.Email,
		ResourceURL:  req.URL,
		LinesAdded:   req.LinesAdded,
		LinesRemoved: req.LinesRemoved,
		DiffPreview:  req.DiffPreview,
		Timestamp:    parseOptionalTimestamp(req.Timestamp),
	}

	err := h.notifier.Dispatch(c.Request.Context(), n, req.Service, req.Credentials)
	if h.handleNotifyError(c, err, req.Service) {
		return
	}

	response.Success(c, http.StatusOK, gin.H{"service": req.Service}, "email sent successfully")
}

// Test godoc
// @Summary Check notification credentials
// @Description Verifies provider credentials without sending any e-mail
// @Tags Notifications
// @Accept json
// @Produce json
// @Param check body TestNotificationRequest true "Provider credentials"
// @Success 200 {object} response.SuccessResponse{data=notify.ProbeResult}
// @Failure 400 {object} response.ErrorResponse "Invalid request"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/notifications/test [post]
func (h *NotificationHandler) Test(c *gin.Context) {
	var req TestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "email and service are required", err.Error())
		return
	}

	result, err := h.notifier.Probe(c.Request.Context(), req.Email, req.Service, req.Credentials)
	if h.handleNotifyError(c, err, req.Service) {
		return
	}

	response.OK(c, result)
}

func (h *NotificationHandler) handleNotifyError(c *gin.Context, err error, service string) bool {
	if err == nil {
		return false
	}

	var providerErr *notify.ProviderError
	switch {
	case errors.Is(err, notify.ErrInvalidRecipient),
		errors.Is(err, notify.ErrMissingURL),
		errors.Is(err, notify.ErrUnknownProvider),
		errors.Is(err, notify.ErrMissingCredentials):
		response.BadRequest(c, err.Error(), gin.H{"service": service})
	case errors.As(err, &providerErr):
		h.logger.Warn("notification provider rejected request",
			zap.String("service", service),
			zap.Int("status", providerErr.StatusCode),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadGateway(c, "failed to send email", providerErr.Error())
	default:
		h.logger.Error("notification failed",
			zap.Error(err),
			zap.String("service", service),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.Error(c, http.StatusInternalServerError, "failed to send email", err.Error())
	}
	return true
}

// parseOptionalTimestamp returns the zero time for empty or unparseable input;
// the rendered e-mail then says "unknown".
func parseOptionalTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := events.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}
