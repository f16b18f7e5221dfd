package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidateURL_NotAbsoluteHTTPReturnsErrInvalidURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "example.com/robots.txt", "ftp://example.com/file", "file:///etc/passwd", "javascript:alert(1)", "http://", "://bad"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ValidateURL(raw)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestValidateURL_HTTPOrHTTPSAccepts(t *testing.T) {
	for _, raw := range []string{"http://example.com", "HTTPS://example.com/robots.txt?x=1"} {
		u, err := ValidateURL(raw)
		require.NoError(t, err)
		assert.Equal(t, "example.com", u.Hostname())
	}
}

func TestFetch_InvalidURLNoRequestIsMade(t *testing.T) {
	// Arrange
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()
	proxy := NewProxy(Options{}, zap.NewNop())

	// Act
	_, err := proxy.Fetch(context.Background(), strings.Replace(server.URL, "http://", "gopher://", 1))

	// Assert
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestFetch_UpstreamOKReturnsBodyAndSendsUserAgent(t *testing.T) {
	// Arrange
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /admin\n"))
	}))
	defer server.Close()
	proxy := NewProxy(Options{}, zap.NewNop())

	// Act
	result, err := proxy.Fetch(context.Background(), server.URL+"/robots.txt")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, UserAgent, gotAgent)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "text/plain", result.ContentType)
	assert.Equal(t, "User-agent: *\nDisallow: /admin\n", string(result.Body))
}

func TestFetch_UpstreamNotOKReturnsUpstreamError(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()
	proxy := NewProxy(Options{}, zap.NewNop())

	// Act
	_, err := proxy.Fetch(context.Background(), server.URL)

	// Assert
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)
	assert.Equal(t, "Not Found", upstream.Status)
	assert.Equal(t, "server returned status 404", upstream.Error())
}

func TestFetch_BodyExceedsLimitReturnsErrBodyTooLarge(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer server.Close()
	proxy := NewProxy(Options{MaxBytes: 32}, zap.NewNop())

	// Act
	_, err := proxy.Fetch(context.Background(), server.URL)

	// Assert
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestFetch_UpstreamSlowTimesOut(t *testing.T) {
	// Arrange
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)
	proxy := NewProxy(Options{Timeout: 50 * time.Millisecond}, zap.NewNop())

	// Act
	_, err := proxy.Fetch(context.Background(), server.URL)

	// Assert
	assert.Error(t, err)
	var upstream *UpstreamError
	assert.False(t, errors.As(err, &upstream))
}

func TestFetch_HostExceedsRateReturnsErrRateLimited(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()
	proxy := NewProxy(Options{RatePerHost: 0.001, Burst: 2}, zap.NewNop())

	// Act
	_, first := proxy.Fetch(context.Background(), server.URL)
	_, second := proxy.Fetch(context.Background(), server.URL)
	_, third := proxy.Fetch(context.Background(), server.URL)

	// Assert
	assert.NoError(t, first)
	assert.NoError(t, second)
	assert.ErrorIs(t, third, ErrRateLimited)
}

func TestFetch_ManyHostsStayWithinLimiterCap(t *testing.T) {
	// Arrange
	proxy := NewProxy(Options{RatePerHost: 0.001, Burst: 1, MaxHosts: 8}, zap.NewNop())

	// Act
	for i := 0; i < 100; i++ {
		proxy.allow(fmt.Sprintf("host-%d.example", i))
	}

	// Assert
	assert.LessOrEqual(t, proxy.trackedHosts(), 8)
	assert.True(t, proxy.allow("fresh.example"))
}

func TestFetch_LimiterCapKeepsRecentHostThrottled(t *testing.T) {
	// Arrange
	proxy := NewProxy(Options{RatePerHost: 0.001, Burst: 1, MaxHosts: 2}, zap.NewNop())
	assert.True(t, proxy.allow("old.example"))
	assert.True(t, proxy.allow("busy.example"))

	// Act
	assert.False(t, proxy.allow("old.example"))
	third := proxy.allow("new.example")

	// Assert
	assert.True(t, third)
	assert.Equal(t, 2, proxy.trackedHosts())
	assert.False(t, proxy.allow("old.example"))
}

func TestNewProxy_ZeroOptionsAppliesDefaults(t *testing.T) {
	// Act
	proxy := NewProxy(Options{}, nil)

	// Assert
	assert.Equal(t, DefaultTimeout, proxy.client.Timeout)
	assert.Equal(t, int64(DefaultMaxBytes), proxy.maxBytes)
	assert.Equal(t, 1, proxy.burst)
	assert.True(t, proxy.allow("example.com"))
	assert.True(t, proxy.allow("example.com"))
}
