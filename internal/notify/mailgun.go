package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultMailgunBaseURL = "https://api.mailgun.net"

// Mailgun delivers through the Mailgun v3 messages API.
type Mailgun struct {
	BaseURL string
	Client  *http.Client
}

// NewMailgun returns a Mailgun provider talking to baseURL.
func NewMailgun(baseURL string, client *http.Client) *Mailgun {
	if baseURL == "" {
		baseURL = DefaultMailgunBaseURL
	}
	return &Mailgun{BaseURL: strings.TrimRight(baseURL, "/"), Client: defaultClient(client)}
}

func (m *Mailgun) Name() string { return "mailgun" }

// Send posts a form-encoded message. The sender is noreply@ the sending domain.
func (m *Mailgun) Send(ctx context.Context, msg Message, creds Credentials) error {
	if err := requireCredentials(m.Name(), map[string]string{"api_key": creds.APIKey, "domain": creds.Domain}); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("from", fmt.Sprintf("%s <noreply@%s>", msg.FromName, creds.Domain))
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("html", msg.HTML)

	endpoint := fmt.Sprintf("%s/v3/%s/messages", m.BaseURL, url.PathEscape(creds.Domain))
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build mailgun request: %w", err)
	}
	req.SetBasicAuth("api", creds.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(ctx, m.Client, "Mailgun", req)
}

// Probe lists domains to check the API key.
func (m *Mailgun) Probe(ctx context.Context, creds Credentials) error {
	if err := requireCredentials(m.Name(), map[string]string{"api_key": creds.APIKey}); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodGet, m.BaseURL+"/v3/domains", nil)
	if err != nil {
		return fmt.Errorf("failed to build mailgun request: %w", err)
	}
	req.SetBasicAuth("api", creds.APIKey)

	return do(ctx, m.Client, "Mailgun", req)
}
