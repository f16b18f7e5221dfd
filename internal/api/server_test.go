package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dhima/change-monitor/internal/logging"
	"github.com/dhima/change-monitor/internal/models"
	"github.com/dhima/change-monitor/internal/storage"
	"github.com/dhima/change-monitor/internal/testutil/fakes"
	"github.com/dhima/change-monitor/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closingPublisher struct {
	fakes.FakePublisher
	closed bool
}

func (p *closingPublisher) Close() error {
	p.closed = true
	return nil
}

func newTestServer(t *testing.T, origins []string) (*Server, *closingPublisher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.App{
		APIPort:          "0",
		Environment:      "test",
		CORSOrigins:      origins,
		StoreBackend:     storage.BackendFile,
		LogPath:          filepath.Join(t.TempDir(), "changes.log"),
		FetchTimeout:     time.Second,
		FetchRatePerHost: 0,
		NotifyFromEmail:  "noreply@example.com",
		SendGridBaseURL:  "http://127.0.0.1:1",
		MailgunBaseURL:   "http://127.0.0.1:1",
	}
	pub := &closingPublisher{}
	store := &storage.Handle{Store: storage.NewFileStore(cfg.LogPath), Backend: storage.BackendFile}
	return newServer(cfg, logging.NewNoOpLogger(), store, pub), pub
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_ChangeRecordedQueryReturnsItAndPublisherSeesIt(t *testing.T) {
	// Arrange
	s, pub := newTestServer(t, []string{"*"})
	ts := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	body := `{"timestamp":"` + ts + `","url":"https://example.com/robots.txt","email":"ops@example.com","email_status":"sent"}`

	// Act
	created := serve(s, http.MethodPost, "/api/v1/logs", body)
	queried := serve(s, http.MethodGet, "/api/v1/logs?days=7", "")

	// Assert
	require.Equal(t, http.StatusCreated, created.Code)
	require.Equal(t, http.StatusOK, queried.Code)
	var envelope struct {
		Data models.QueryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(queried.Body.Bytes(), &envelope))
	require.Equal(t, 1, envelope.Data.Count)
	assert.Equal(t, "https://example.com/robots.txt", envelope.Data.Logs[0].ResourceURL)
	assert.Equal(t, 1, envelope.Data.Statistics.SentCount)
	assert.Len(t, pub.Published(), 1)
}

func TestServer_SystemRoutesCalledRespond(t *testing.T) {
	// Arrange
	s, _ := newTestServer(t, []string{"*"})

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/health", wantStatus: http.StatusOK, wantBody: `"backend":"file"`},
		{path: "/metrics", wantStatus: http.StatusOK, wantBody: `"change_log_entries":0`},
		{path: "/api/v1/unknown", wantStatus: http.StatusNotFound, wantBody: "route not found"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			// Act
			w := serve(s, http.MethodGet, tt.path, "")

			// Assert
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestServer_FetchGivenNonHTTPURLReturns400(t *testing.T) {
	// Arrange
	s, _ := newTestServer(t, []string{"*"})

	// Act
	w := serve(s, http.MethodGet, "/api/v1/fetch?url=file:///etc/passwd", "")

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_NotificationServiceUnknownReturns400(t *testing.T) {
	// Arrange
	s, _ := newTestServer(t, []string{"*"})

	// Act
	w := serve(s, http.MethodPost, "/api/v1/notifications/send",
		`{"email":"ops@example.com","url":"https://example.com","service":"pigeon"}`)

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_PreflightFromAllowedOriginEchoesOrigin(t *testing.T) {
	// Arrange
	s, _ := newTestServer(t, []string{"https://monitor.example.com"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/logs", nil)
	req.Header.Set("Origin", "https://monitor.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	// Act
	s.Handler().ServeHTTP(w, req)

	// Assert
	assert.Equal(t, "https://monitor.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_ClosedReleasesPublisher(t *testing.T) {
	// Arrange
	s, pub := newTestServer(t, []string{"*"})

	// Act
	s.close()

	// Assert
	assert.True(t, pub.closed)
}
