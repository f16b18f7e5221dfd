package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

const defaultSMTPPort = 587

// SMTP delivers through any SMTP relay using PLAIN authentication.
// DialTimeout bounds the connect and Timeout bounds the whole conversation.
type SMTP struct {
	DialTimeout time.Duration
	Timeout     time.Duration
}

// NewSMTP returns an SMTP provider.
func NewSMTP() *SMTP {
	return &SMTP{DialTimeout: 10 * time.Second, Timeout: 30 * time.Second}
}

func (s *SMTP) Name() string { return "smtp" }

func smtpAddr(creds Credentials) string {
	port := creds.SMTPPort
	if port == 0 {
		port = defaultSMTPPort
	}
	return net.JoinHostPort(creds.SMTPHost, strconv.Itoa(port))
}

func (s *SMTP) checkCredentials(creds Credentials) error {
	return requireCredentials(s.Name(), map[string]string{
		"smtp_server":   creds.SMTPHost,
		"smtp_email":    creds.SMTPUsername,
		"smtp_password": creds.SMTPPassword,
	})
}

// Send relays msg from the authenticated account.
func (s *SMTP) Send(ctx context.Context, msg Message, creds Credentials) error {
	if err := s.checkCredentials(creds); err != nil {
		return err
	}

	client, err := s.open(ctx, creds)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Mail(creds.SMTPUsername); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	if _, err := w.Write(buildMIME(creds.SMTPUsername, msg)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	return client.Quit()
}

// Probe connects, upgrades to TLS when offered and authenticates, then quits
// without sending.
func (s *SMTP) Probe(ctx context.Context, creds Credentials) error {
	if err := s.checkCredentials(creds); err != nil {
		return err
	}

	client, err := s.open(ctx, creds)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Quit()
}

// open dials the relay and returns an authenticated client. Every read and
// write after the dial shares one deadline taken from Timeout or ctx,
// whichever is sooner.
func (s *SMTP) open(ctx context.Context, creds Credentials) (*smtp.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: s.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", smtpAddr(creds))
	if err != nil {
		return nil, fmt.Errorf("smtp connect failed: %w", err)
	}

	var deadline time.Time
	if s.Timeout > 0 {
		deadline = time.Now().Add(s.Timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if !deadline.IsZero() {
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("smtp connect failed: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, creds.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("smtp handshake failed: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: creds.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("smtp starttls failed: %w", err)
		}
	}
	if err := client.Auth(smtp.PlainAuth("", creds.SMTPUsername, creds.SMTPPassword, creds.SMTPHost)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("smtp authentication failed: %w", err)
	}
	return client, nil
}

func buildMIME(from string, msg Message) []byte {
	var buf bytes.Buffer
	sender := from
	if msg.FromName != "" {
		sender = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", msg.FromName), from)
	}
	fmt.Fprintf(&buf, "From: %s\r\n", sender)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTML)
	return buf.Bytes()
}
