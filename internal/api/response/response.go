// Package response writes the JSON envelopes shared by every API handler.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// RequestIDKey is the gin context key the request ID middleware fills.
const RequestIDKey = "request_id"

// SuccessResponse represents a successful API response.
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
} // @name SuccessResponse

// ErrorResponse represents an error API response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
} // @name ErrorResponse

// ValidationError names one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
} // @name FieldError

func Success(c *gin.Context, statusCode int, data interface{}, message string) {
	c.JSON(statusCode, SuccessResponse{Data: data, Message: message})
}

func Created(c *gin.Context, data interface{}, message string) {
	Success(c, http.StatusCreated, data, message)
}

func OK(c *gin.Context, data interface{}) {
	Success(c, http.StatusOK, data, "")
}

// PlainText sends a fetched body verbatim as uncached UTF-8 text.
func PlainText(c *gin.Context, body []byte) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}

// Error aborts the chain with an error envelope carrying the request ID.
func Error(c *gin.Context, statusCode int, err string, details interface{}) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error:   err,
		Details: details,
		TraceID: GetRequestID(c),
	})
}

func BadRequest(c *gin.Context, err string, details interface{}) {
	Error(c, http.StatusBadRequest, err, details)
}

func NotFound(c *gin.Context, err string) {
	Error(c, http.StatusNotFound, err, nil)
}

func TooManyRequests(c *gin.Context, err string, details interface{}) {
	Error(c, http.StatusTooManyRequests, err, details)
}

func InternalServerError(c *gin.Context, err string) {
	Error(c, http.StatusInternalServerError, err, nil)
}

// BadGateway reports an upstream that rejected or mangled the request.
func BadGateway(c *gin.Context, err string, details interface{}) {
	Error(c, http.StatusBadGateway, err, details)
}

// Upstream relays an upstream error status to the caller. Anything that is
// not a 4xx or 5xx becomes 502.
func Upstream(c *gin.Context, upstreamStatus int, err string, details interface{}) {
	if upstreamStatus < http.StatusBadRequest || upstreamStatus > 599 {
		upstreamStatus = http.StatusBadGateway
	}
	Error(c, upstreamStatus, err, details)
}

// ValidationErrors sends a 400 listing every rejected field.
func ValidationErrors(c *gin.Context, errors []ValidationError) {
	BadRequest(c, "validation failed", errors)
}

// SchemaErrors converts JSON schema failures into field errors.
func SchemaErrors(result *gojsonschema.Result) []ValidationError {
	fieldErrors := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		fieldErrors = append(fieldErrors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return fieldErrors
}

// GetRequestID returns the request ID, minting and storing one when the
// middleware did not run so every log line and envelope agree.
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	id := uuid.New().String()
	c.Set(RequestIDKey, id)
	return id
}
