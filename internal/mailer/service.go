// internal/mailer/service.go
package mailer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"garage-backoffice/internal/common/config"
	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/common/metrics"
	"garage-backoffice/internal/registration"
)

// Service sends the transactional emails of the site: the post-submission
// pair (admin + requester) and the contact form. Relay connectivity is
// verified before any send; a dead relay aborts the whole operation, while a
// single unreachable attachment is skipped and logged.
type Service struct {
	cfg        config.SMTPConfig
	transport  Transport
	httpClient *http.Client
	logger     logger.Logger
}

func NewService(cfg config.SMTPConfig, transport Transport, log logger.Logger) *Service {
	if transport == nil {
		transport = NewSMTPTransport(cfg)
	}
	return &Service{
		cfg:       cfg,
		transport: transport,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

func (s *Service) checkConfig() error {
	if s.cfg.Host == "" || s.cfg.DefaultFrom == "" || s.cfg.AdminEmail == "" {
		return errors.NewConfigurationError("SMTP host, sender and admin recipient must be configured")
	}
	return nil
}

// SendRegistrationEmails sends the admin and requester copies for a submitted
// registration, with the stored documents attached.
func (s *Service) SendRegistrationEmails(ctx context.Context, rec *registration.Record) error {
	if err := s.checkConfig(); err != nil {
		return err
	}

	if err := s.transport.Verify(ctx); err != nil {
		return errors.NewNotificationUnavailableError(err)
	}

	attachments := s.fetchAttachments(ctx, rec.Documents)

	adminMsg := buildMessage(
		s.cfg.DefaultFrom,
		s.cfg.AdminEmail,
		fmt.Sprintf("Nouvelle demande de carte grise - %s", rec.ServiceKey),
		adminRegistrationBody(rec),
		attachments,
	)
	if err := s.transport.Send(ctx, s.cfg.DefaultFrom, []string{s.cfg.AdminEmail}, adminMsg); err != nil {
		return errors.NewNotificationSendFailedError(err)
	}
	metrics.EmailsSent.WithLabelValues("registration_admin").Inc()

	requesterMsg := buildMessage(
		s.cfg.DefaultFrom,
		rec.ContactEmail,
		"Confirmation de votre demande de carte grise",
		requesterRegistrationBody(rec),
		nil,
	)
	if err := s.transport.Send(ctx, s.cfg.DefaultFrom, []string{rec.ContactEmail}, requesterMsg); err != nil {
		return errors.NewNotificationSendFailedError(err)
	}
	metrics.EmailsSent.WithLabelValues("registration_requester").Inc()

	s.logger.Info("Registration emails sent", map[string]interface{}{
		"registration_id": rec.ID,
		"attachments":     len(attachments),
	})

	return nil
}

// SendContactEmail delivers a contact-form message to the admin and a
// confirmation copy to the sender.
func (s *Service) SendContactEmail(ctx context.Context, payload *ContactPayload) error {
	if err := s.checkConfig(); err != nil {
		return err
	}

	if err := s.transport.Verify(ctx); err != nil {
		return errors.NewNotificationUnavailableError(err)
	}

	subject := "Contact garage"
	if payload.Subject != "" {
		subject = payload.Subject
	}

	recipients := []string{s.cfg.AdminEmail, payload.Email}
	for _, to := range recipients {
		msg := buildMessage(s.cfg.DefaultFrom, to, subject, contactBody(payload), nil)
		if err := s.transport.Send(ctx, s.cfg.DefaultFrom, []string{to}, msg); err != nil {
			return errors.NewNotificationSendFailedError(err)
		}
	}
	metrics.EmailsSent.WithLabelValues("contact").Inc()

	return nil
}

// fetchAttachments downloads each stored document. A failed fetch skips that
// attachment and logs a warning; the send goes on without it.
func (s *Service) fetchAttachments(ctx context.Context, documents map[string]string) []Attachment {
	var attachments []Attachment
	for docType, url := range documents {
		data, err := s.fetchDocument(ctx, url)
		if err != nil {
			metrics.AttachmentsSkipped.Inc()
			s.logger.Warn("Skipping unreachable attachment", map[string]interface{}{
				"document_type": docType,
				"url":           url,
				"error":         err.Error(),
			})
			continue
		}
		attachments = append(attachments, Attachment{
			Filename: attachmentFilename(docType, url),
			Data:     data,
		})
	}
	return attachments
}

func (s *Service) fetchDocument(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// attachmentFilename names the attachment after its document type, keeping
// the stored object's extension so the MIME type stays correct.
func attachmentFilename(docType, url string) string {
	ext := path.Ext(url)
	if idx := strings.IndexAny(ext, "?#"); idx >= 0 {
		ext = ext[:idx]
	}
	if ext == "" {
		ext = ".bin"
	}
	return docType + ext
}
