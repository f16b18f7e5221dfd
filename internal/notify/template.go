package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"time"
)

const emailTemplate = `<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background-color: #f0f0f0; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
    .header h2 { margin: 0; color: #d9534f; }
    .details { background-color: #f9f9f9; padding: 15px; border-left: 4px solid #5cb85c; margin-bottom: 20px; }
    .stats { display: flex; gap: 20px; margin: 15px 0; }
    .stat { flex: 1; padding: 10px; background-color: #f0f0f0; border-radius: 5px; text-align: center; }
    .stat-number { font-size: 24px; font-weight: bold; }
    .stat-label { color: #666; font-size: 12px; text-transform: uppercase; }
    .added { color: #28a745; }
    .removed { color: #dc3545; }
    .diff-preview { background-color: #f5f5f5; padding: 10px; border-radius: 5px; font-family: monospace; font-size: 12px; white-space: pre-wrap; }
    .footer { color: #999; font-size: 12px; margin-top: 30px; text-align: center; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h2>URL Change Detected!</h2></div>
    <div class="details">
      <p><strong>URL:</strong><br/><a href="{{.URL}}">{{.URL}}</a></p>
      <p><strong>Detected at:</strong><br/>{{.DetectedAt}}</p>
    </div>
    <div class="stats">
      <div class="stat"><div class="stat-number added">+{{.LinesAdded}}</div><div class="stat-label">Lines Added</div></div>
      <div class="stat"><div class="stat-number removed">-{{.LinesRemoved}}</div><div class="stat-label">Lines Removed</div></div>
      <div class="stat"><div class="stat-number">{{.TotalChanges}}</div><div class="stat-label">Total Changes</div></div>
    </div>
    {{- if .DiffPreview}}
    <div style="margin-bottom: 20px;">
      <p><strong>Change Preview:</strong></p>
      <div class="diff-preview">{{.DiffPreview}}</div>
    </div>
    {{- end}}
    <div class="footer">
      <p>This is an automated message from URL Monitor.<br/>View the full diff in your URL Monitor application.</p>
    </div>
  </div>
</body>
</html>
`

var emailHTML = template.Must(template.New("change-email").Parse(emailTemplate))

type emailView struct {
	URL          string
	DetectedAt   string
	LinesAdded   int
	LinesRemoved int
	TotalChanges int
	DiffPreview  string
}

// Subject returns the subject line for a change on resourceURL.
func Subject(resourceURL string) string {
	host := resourceURL
	if u, err := url.Parse(resourceURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return "URL Change Detected: " + host
}

// RenderHTML renders the notification body. Every interpolated value is
// escaped by html/template.
func RenderHTML(n Notification) (string, error) {
	detected := "unknown"
	if !n.Timestamp.IsZero() {
		detected = n.Timestamp.UTC().Format(time.RFC1123)
	}
	view := emailView{
		URL:          n.ResourceURL,
		DetectedAt:   detected,
		LinesAdded:   n.LinesAdded,
		LinesRemoved: n.LinesRemoved,
		TotalChanges: n.LinesAdded + n.LinesRemoved,
		DiffPreview:  n.DiffPreview,
	}

	var buf bytes.Buffer
	if err := emailHTML.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render notification: %w", err)
	}
	return buf.String(), nil
}
