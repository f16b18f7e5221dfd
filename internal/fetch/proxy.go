// Package fetch retrieves remote resources on behalf of browser clients that
// cannot reach them directly because of CORS.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// UserAgent is sent with every upstream request.
const UserAgent = "URL-Monitor/1.0"

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxBytes = 10 << 20
)

var (
	// ErrInvalidURL is returned before any network I/O for URLs that are not
	// absolute http or https URLs.
	ErrInvalidURL = errors.New("url must be an absolute http:// or https:// URL")

	// ErrRateLimited is returned when a host has been fetched too often.
	ErrRateLimited = errors.New("too many fetches for this host, try again later")

	// ErrBodyTooLarge is returned when the upstream body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("upstream response body exceeds size limit")
)

// UpstreamError carries a non-2xx upstream status.
type UpstreamError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// Options configures a Proxy. Zero values fall back to defaults; a zero
// RatePerHost disables rate limiting.
type Options struct {
	Timeout     time.Duration
	MaxBytes    int64
	RatePerHost float64
	Burst       int
	MaxHosts    int
	Client      *http.Client
}

// Result is a successfully fetched resource.
type Result struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Proxy fetches remote text resources.
type Proxy struct {
	client   *http.Client
	maxBytes int64
	limit    rate.Limit
	burst    int
	logger   *zap.Logger

	mu       sync.Mutex
	limiters map[string]*hostLimiter
	maxHosts int
	uses     uint64
}

type hostLimiter struct {
	limiter  *rate.Limiter
	lastUsed uint64
}

// DefaultMaxTrackedHosts bounds how many per-host limiters are held at once.
const DefaultMaxTrackedHosts = 1024

// NewProxy builds a Proxy from opts.
func NewProxy(opts Options, logger *zap.Logger) *Proxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = int(opts.RatePerHost)
		if burst < 1 {
			burst = 1
		}
	}

	maxHosts := opts.MaxHosts
	if maxHosts <= 0 {
		maxHosts = DefaultMaxTrackedHosts
	}

	return &Proxy{
		client:   client,
		maxBytes: maxBytes,
		limit:    rate.Limit(opts.RatePerHost),
		burst:    burst,
		logger:   logger,
		limiters: make(map[string]*hostLimiter),
		maxHosts: maxHosts,
	}
}

// ValidateURL accepts only absolute http and https URLs with a host.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURL
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, ErrInvalidURL
	}
	if u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// Fetch retrieves rawURL and returns its body.
func (p *Proxy) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	if !p.allow(target.Hostname()) {
		p.logger.Warn("fetch rate limited", zap.String("host", target.Hostname()))
		return nil, ErrRateLimited
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("upstream fetch failed",
			zap.String("url", target.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &UpstreamError{
			URL:        target.String(),
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream body: %w", err)
	}
	if int64(len(body)) > p.maxBytes {
		return nil, ErrBodyTooLarge
	}

	p.logger.Info("fetched url",
		zap.String("url", target.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", time.Since(start)))

	return &Result{
		URL:         target.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (p *Proxy) allow(host string) bool {
	if p.limit <= 0 {
		return true
	}
	host = strings.ToLower(host)
	now := time.Now()

	p.mu.Lock()
	entry, ok := p.limiters[host]
	if !ok {
		if len(p.limiters) >= p.maxHosts {
			p.evictLocked(now)
		}
		entry = &hostLimiter{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.limiters[host] = entry
	}
	p.uses++
	entry.lastUsed = p.uses
	p.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// evictLocked drops every limiter whose bucket has refilled. If none has, the
// least recently used one goes. Callers hold p.mu.
func (p *Proxy) evictLocked(now time.Time) {
	var oldestHost string
	var oldest uint64
	for host, entry := range p.limiters {
		if entry.limiter.TokensAt(now) >= float64(p.burst) {
			delete(p.limiters, host)
			continue
		}
		if oldestHost == "" || entry.lastUsed < oldest {
			oldestHost, oldest = host, entry.lastUsed
		}
	}
	if len(p.limiters) >= p.maxHosts && oldestHost != "" {
		delete(p.limiters, oldestHost)
	}
}

// trackedHosts reports how many per-host limiters are held.
func (p *Proxy) trackedHosts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.limiters)
}
