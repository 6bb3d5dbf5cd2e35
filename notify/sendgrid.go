package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/suisse-offerten/marketplace-api/config"
)

// SendGridSender sends through the SendGrid v3 API.
type SendGridSender struct {
	fromName  string
	fromEmail string
	client    *sendgrid.Client
	logger    zerolog.Logger
}

func NewSendGridSender(cfg config.MailConfig, logger zerolog.Logger) *SendGridSender {
	return &SendGridSender{
		fromName:  cfg.ProductName,
		fromEmail: cfg.From,
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error().Err(err).Str("to", msg.To).Msg("Error sending email")
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error().Int("status", response.StatusCode).Str("body", response.Body).Msg("SendGrid API Error")
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	s.logger.Debug().Str("to", msg.To).Int("status", response.StatusCode).Msg("Email sent")
	return nil
}
