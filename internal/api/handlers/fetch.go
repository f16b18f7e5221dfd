package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dhima/change-monitor/internal/api/response"
	"github.com/dhima/change-monitor/internal/fetch"
	"github.com/dhima/change-monitor/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fetcher retrieves a remote resource.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// FetchHandler proxies resource fetches for browser clients blocked by CORS.
type FetchHandler struct {
	logger  logging.Logger
	fetcher Fetcher
}

// NewFetchHandler creates a new fetch proxy handler.
func NewFetchHandler(logger logging.Logger, fetcher Fetcher) *FetchHandler {
	return &FetchHandler{
		logger:  logger.With(zap.String("handler", "fetch")),
		fetcher: fetcher,
	}
}

// Fetch godoc
// @Summary Fetch a remote resource
// @Description Retrieves an http or https URL server-side and returns its body as plain text. Upstream error statuses are passed through.
// @Tags Fetch
// @Produce plain
// @Param url query string true "Absolute http or https URL" example(https://example.com/robots.txt)
// @Success 200 {string} string "Resource body"
// @Failure 400 {object} response.ErrorResponse "Missing or invalid URL"
// @Failure 429 {object} response.ErrorResponse "Too many fetches for this host"
// @Failure 500 {object} response.ErrorResponse "Fetch failed"
// @Router /api/v1/fetch [get]
func (h *FetchHandler) Fetch(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		response.BadRequest(c, "URL parameter is required", gin.H{"example": "/api/v1/fetch?url=https://example.com/file.txt"})
		return
	}

	result, err := h.fetcher.Fetch(c.Request.Context(), rawURL)
	if err != nil {
		h.handleFetchError(c, rawURL, err)
		return
	}

	response.PlainText(c, result.Body)
}

func (h *FetchHandler) handleFetchError(c *gin.Context, rawURL string, err error) {
	var upstream *fetch.UpstreamError
	switch {
	case errors.Is(err, fetch.ErrInvalidURL):
		response.BadRequest(c, "invalid URL format, must start with http:// or https://", nil)
	case errors.Is(err, fetch.ErrRateLimited):
		response.TooManyRequests(c, err.Error(), gin.H{"url": rawURL})
	case errors.As(err, &upstream):
		response.Upstream(c, upstream.StatusCode, upstream.Error(), gin.H{
			"url":         rawURL,
			"status_text": upstream.Status,
		})
	case errors.Is(err, fetch.ErrBodyTooLarge):
		response.BadGateway(c, err.Error(), gin.H{"url": rawURL})
	default:
		h.logger.Error("fetch failed",
			zap.Error(err),
			zap.String("url", rawURL),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.Error(c, http.StatusInternalServerError, "failed to fetch URL", gin.H{
			"url":     rawURL,
			"message": err.Error(),
		})
	}
}
