// internal/mailer/smtp.go
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"garage-backoffice/internal/common/config"
)

// Transport delivers a fully built message to the relay. Abstracted so tests
// can capture outgoing mail without a live SMTP server.
type Transport interface {
	Verify(ctx context.Context) error
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// SMTPTransport talks to the configured SMTP relay.
type SMTPTransport struct {
	cfg config.SMTPConfig
}

func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) addr() string {
	return fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
}

func (t *SMTPTransport) auth() smtp.Auth {
	if t.cfg.Username != "" && t.cfg.Password != "" {
		return smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
	}
	return nil
}

// Verify dials the relay, optionally negotiates STARTTLS and quits. It sends
// no mail.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := smtp.Dial(t.addr())
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if t.cfg.UseTLS {
		tlsConfig := &tls.Config{
			ServerName:         t.cfg.Host,
			InsecureSkipVerify: false,
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	return client.Quit()
}

func (t *SMTPTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	if t.cfg.UseTLS {
		return t.sendWithTLS(from, to, msg)
	}

	return smtp.SendMail(t.addr(), t.auth(), from, to, msg)
}

func (t *SMTPTransport) sendWithTLS(from string, to []string, msg []byte) error {
	client, err := smtp.Dial(t.addr())
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName:         t.cfg.Host,
		InsecureSkipVerify: false,
	}

	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth := t.auth(); auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, addr := range to {
		if err = client.Rcpt(addr); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", addr, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
