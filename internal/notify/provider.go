// Package notify delivers change notifications through interchangeable
// e-mail providers. Every call is a single attempt; nothing is retried or kept.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownProvider     = errors.New("unknown email service")
	ErrInvalidRecipient    = errors.New("invalid email address")
	ErrMissingURL          = errors.New("url is required")
	ErrMissingCredentials  = errors.New("missing provider credentials")
	ErrProbeNotImplemented = errors.New("provider does not support credential checks")
)

// Credentials are supplied per call and never stored.
type Credentials struct {
	APIKey       string `json:"api_key,omitempty"`
	Domain       string `json:"domain,omitempty"`
	SMTPHost     string `json:"smtp_server,omitempty"`
	SMTPPort     int    `json:"smtp_port,omitempty"`
	SMTPUsername string `json:"smtp_email,omitempty"`
	SMTPPassword string `json:"smtp_password,omitempty"`
}

// Message is a rendered e-mail ready for delivery.
type Message struct {
	FromName string
	From     string
	To       string
	Subject  string
	HTML     string
}

// Provider delivers a rendered message.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message, creds Credentials) error
}

// Prober is implemented by providers that can check credentials without
// sending anything.
type Prober interface {
	Probe(ctx context.Context, creds Credentials) error
}

// ProviderError reports a rejected delivery or probe.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s API error: %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: %d - %s", e.Provider, e.StatusCode, body)
}

// Registry looks providers up by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns a registry holding providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any provider with the same name.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToLower(p.Name())] = p
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func requireCredentials(provider string, fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s requires %s", ErrMissingCredentials, provider, strings.Join(missing, ", "))
}
