package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhima/change-monitor/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealth_StoreReachabilityVariesReportsStatus(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantCode   int
		wantStatus string
	}{
		{name: "reachable", wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "unreachable", pingErr: errors.New("failed to ping sqlite: database is closed"), wantCode: http.StatusServiceUnavailable, wantStatus: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.GET("/health", NewHealthHandler(logging.NewNoOpLogger(), "sqlite", fakePinger{err: tt.pingErr}).Health)

			// Act
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			// Assert
			require.Equal(t, tt.wantCode, w.Code)
			var envelope struct {
				Data HealthResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
			assert.Equal(t, tt.wantStatus, envelope.Data.Status)
			assert.Equal(t, ServiceName, envelope.Data.Service)
			assert.Equal(t, ServiceVersion, envelope.Data.Version)
			assert.Equal(t, "sqlite", envelope.Data.Backend)
			if tt.pingErr != nil {
				assert.Equal(t, tt.pingErr.Error(), envelope.Data.StoreError)
			} else {
				assert.Empty(t, envelope.Data.StoreError)
			}
		})
	}
}
