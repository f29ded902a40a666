package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// SendGridMailer sends HTML e-mail through the SendGrid v3 API
type SendGridMailer struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
	log      *zap.Logger
}

// NewSendGridMailer creates a mailer. host overrides the API host and is
// empty in production. With no API key, messages are logged instead of sent.
func NewSendGridMailer(apiKey, host, fromName, fromAddr string, log *zap.Logger) *SendGridMailer {
	var client *sendgrid.Client
	if apiKey != "" {
		if host == "" {
			client = sendgrid.NewSendClient(apiKey)
		} else {
			req := sendgrid.GetRequest(apiKey, "/v3/mail/send", host)
			req.Method = "POST"
			client = &sendgrid.Client{Request: req}
		}
	}
	return &SendGridMailer{
		client:   client,
		fromName: fromName,
		fromAddr: fromAddr,
		log:      log.Named("sendgrid"),
	}
}

// Configured reports whether messages are actually delivered.
func (m *SendGridMailer) Configured() bool {
	return m.client != nil
}

// SendEmail delivers an HTML message to a single recipient.
func (m *SendGridMailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if !m.Configured() {
		m.log.Info("email delivery disabled, message dropped", zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(m.fromName, m.fromAddr))
	message.Subject = subject

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", to))
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/html", htmlBody))

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("while sending mail through SendGrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2XX response while sending mail through SendGrid: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}
