package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const DefaultSendGridBaseURL = "https://api.sendgrid.com"

// SendGrid delivers through the SendGrid v3 mail API.
type SendGrid struct {
	BaseURL string
	Client  *http.Client
}

// NewSendGrid returns a SendGrid provider talking to baseURL.
func NewSendGrid(baseURL string, client *http.Client) *SendGrid {
	if baseURL == "" {
		baseURL = DefaultSendGridBaseURL
	}
	return &SendGrid{BaseURL: strings.TrimRight(baseURL, "/"), Client: defaultClient(client)}
}

func (s *SendGrid) Name() string { return "sendgrid" }

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPayload struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func (s *SendGrid) Send(ctx context.Context, msg Message, creds Credentials) error {
	if err := requireCredentials(s.Name(), map[string]string{"api_key": creds.APIKey}); err != nil {
		return err
	}

	payload := sendGridPayload{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: msg.To}}}},
		From:             sendGridAddress{Email: msg.From, Name: msg.FromName},
		Subject:          msg.Subject,
		Content:          []sendGridContent{{Type: "text/html", Value: msg.HTML}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sendgrid payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	req.Header.Set("Content-Type", "application/json")

	return do(ctx, s.Client, "SendGrid", req)
}

// Probe checks the API key against the account endpoint.
func (s *SendGrid) Probe(ctx context.Context, creds Credentials) error {
	if err := requireCredentials(s.Name(), map[string]string{"api_key": creds.APIKey}); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodGet, s.BaseURL+"/v3/user/account", nil)
	if err != nil {
		return fmt.Errorf("failed to build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	req.Header.Set("Content-Type", "application/json")

	return do(ctx, s.Client, "SendGrid", req)
}
