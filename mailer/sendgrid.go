// Package mailer delivers transactional email through SendGrid.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/jai-platform/jai-api/config"
)

// ErrDisabled is returned when no SendGrid API key is configured
var ErrDisabled = errors.New("email delivery is not configured")

// SendGrid sends email through the SendGrid v3 mail send endpoint
type SendGrid struct {
	apiKey   string
	from     *mail.Email
	endpoint string
}

// NewSendGrid builds a mailer from the mail configuration
func NewSendGrid(conf config.MailConfig) *SendGrid {
	return &SendGrid{
		apiKey: conf.SendgridAPIKey,
		from:   mail.NewEmail(conf.FromName, conf.FromAddress),
	}
}

// Enabled reports whether an API key is configured
func (s *SendGrid) Enabled() bool {
	return s.apiKey != ""
}

// Send delivers one email with a plain text and html body
func (s *SendGrid) Send(ctx context.Context, toEmail, toName, subject, plain, html string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(s.from, subject, to, plain, html)

	client := sendgrid.NewSendClient(s.apiKey)
	if s.endpoint != "" {
		client.BaseURL = s.endpoint
	}
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		zap.S().Errorw("failed to send email", "error", err, "to", toEmail)
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", toEmail)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	zap.S().Infow("email sent successfully", "to", toEmail, "subject", subject)
	return nil
}
