package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhima/change-monitor/internal/fetch"
	"github.com/dhima/change-monitor/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeFetcher struct {
	result *fetch.Result
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(context.Context, string) (*fetch.Result, error) {
	f.calls++
	return f.result, f.err
}

func newFetchRouter(fetcher Fetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewFetchHandler(logging.NewNoOpLogger(), fetcher)
	r := gin.New()
	r.GET("/api/v1/fetch", h.Fetch)
	return r
}

func TestFetch_UpstreamSucceedsReturnsPlainTextBody(t *testing.T) {
	// Arrange
	fetcher := &fakeFetcher{result: &fetch.Result{StatusCode: http.StatusOK, Body: []byte("User-agent: *\n")}}
	r := newFetchRouter(fetcher)

	// Act
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/fetch?url=https://example.com/robots.txt", nil))

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "User-agent: *\n", w.Body.String())
}

func TestFetch_URLMissingReturns400WithoutFetching(t *testing.T) {
	// Arrange
	fetcher := &fakeFetcher{}
	r := newFetchRouter(fetcher)

	// Act
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/fetch", nil))

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, fetcher.calls)
}

func TestFetch_ErrorReturnedMapsStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "invalid url", err: fetch.ErrInvalidURL, wantStatus: http.StatusBadRequest, wantBody: "http://"},
		{name: "rate limited", err: fetch.ErrRateLimited, wantStatus: http.StatusTooManyRequests, wantBody: "too many fetches"},
		{name: "upstream not found", err: &fetch.UpstreamError{StatusCode: http.StatusNotFound, Status: "404 Not Found"}, wantStatus: http.StatusNotFound, wantBody: "server returned status 404"},
		{name: "body too large", err: fetch.ErrBodyTooLarge, wantStatus: http.StatusBadGateway, wantBody: "size limit"},
		{name: "transport failure", err: errors.New("connection refused"), wantStatus: http.StatusInternalServerError, wantBody: "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			r := newFetchRouter(&fakeFetcher{err: tt.err})

			// Act
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/fetch?url=https://example.com/x", nil))

			// Assert
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestFetch_RealProxyGivenFTPURLRejectsBeforeNetwork(t *testing.T) {
	// Arrange
	r := newFetchRouter(fetch.NewProxy(fetch.Options{}, nil))

	// Act
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/fetch?url=ftp://example.com/file", nil))

	// Assert
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
