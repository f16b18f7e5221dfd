package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultFromName is the display name on outgoing notifications.
const DefaultFromName = "URL Monitor"

var recipientPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidRecipient reports whether addr looks like an e-mail address.
func ValidRecipient(addr string) bool {
	return recipientPattern.MatchString(addr)
}

// Notification is the change-event shaped payload to deliver.
type Notification struct {
	Recipient    string
	ResourceURL  string
	LinesAdded   int
	LinesRemoved int
	DiffPreview  string
	Timestamp    time.Time
}

// ProbeResult reports whether a provider accepted the credentials.
type ProbeResult struct {
	Valid    bool   `json:"valid" example:"true"`
	Message  string `json:"message" example:"SendGrid API key is valid!"`
	Provider string `json:"service" example:"sendgrid"`
} // @name ProbeResult

// Dispatcher renders notifications and hands them to the selected provider.
type Dispatcher struct {
	registry *Registry
	from     string
	fromName string
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher sending from the given address.
func NewDispatcher(registry *Registry, from string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{registry: registry, from: from, fromName: DefaultFromName, logger: logger}
}

// NewDefaultRegistry registers the sendgrid, mailgun and smtp providers.
func NewDefaultRegistry(sendGridBaseURL, mailgunBaseURL string, client *http.Client) *Registry {
	return NewRegistry(
		NewSendGrid(sendGridBaseURL, client),
		NewMailgun(mailgunBaseURL, client),
		NewSMTP(),
	)
}

// Providers lists the names accepted by Dispatch and Probe.
func (d *Dispatcher) Providers() []string {
	return d.registry.Names()
}

// Dispatch makes one delivery attempt of n through providerName.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification, providerName string, creds Credentials) error {
	n.Recipient = strings.TrimSpace(n.Recipient)
	if !ValidRecipient(n.Recipient) {
		return ErrInvalidRecipient
	}
	if strings.TrimSpace(n.ResourceURL) == "" {
		return ErrMissingURL
	}
	provider, err := d.registry.Lookup(providerName)
	if err != nil {
		return err
	}
	if n.LinesAdded < 0 {
		n.LinesAdded = 0
	}
	if n.LinesRemoved < 0 {
		n.LinesRemoved = 0
	}

	html, err := RenderHTML(n)
	if err != nil {
		return err
	}
	msg := Message{
		FromName: d.fromName,
		From:     d.from,
		To:       n.Recipient,
		Subject:  Subject(n.ResourceURL),
		HTML:     html,
	}

	if err := provider.Send(ctx, msg, creds); err != nil {
		d.logger.Warn("notification delivery failed",
			zap.String("service", provider.Name()),
			zap.String("url", n.ResourceURL),
			zap.Error(err))
		return err
	}

	d.logger.Info("notification sent",
		zap.String("service", provider.Name()),
		zap.String("url", n.ResourceURL))
	return nil
}

// Probe checks credentials against providerName without sending anything.
// Provider rejections come back as an invalid result; only malformed input is
// returned as an error.
func (d *Dispatcher) Probe(ctx context.Context, recipient, providerName string, creds Credentials) (ProbeResult, error) {
	if !ValidRecipient(strings.TrimSpace(recipient)) {
		return ProbeResult{}, ErrInvalidRecipient
	}
	provider, err := d.registry.Lookup(providerName)
	if err != nil {
		return ProbeResult{}, err
	}

	result := ProbeResult{Provider: provider.Name()}
	prober, ok := provider.(Prober)
	if !ok {
		result.Message = ErrProbeNotImplemented.Error()
		return result, nil
	}

	err = prober.Probe(ctx, creds)
	switch {
	case err == nil:
		result.Valid = true
		result.Message = displayName(provider.Name()) + " credentials are valid!"
	case errors.Is(err, ErrMissingCredentials):
		return ProbeResult{}, err
	default:
		var perr *ProviderError
		if errors.As(err, &perr) {
			result.Message = fmt.Sprintf("Invalid %s credentials. Status: %d", displayName(provider.Name()), perr.StatusCode)
		} else {
			result.Message = err.Error()
		}
	}

	d.logger.Info("notification credentials checked",
		zap.String("service", provider.Name()),
		zap.Bool("valid", result.Valid))
	return result, nil
}

func displayName(provider string) string {
	switch provider {
	case "sendgrid":
		return "SendGrid"
	case "mailgun":
		return "Mailgun"
	case "smtp":
		return "SMTP"
	}
	return provider
}
