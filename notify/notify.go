// Package notify renders the marketplace emails and hands them to a mail
// transport (SMTP or SendGrid).
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suisse-offerten/marketplace-api/config"
)

// Message is a rendered email ready for a transport.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds the transport selected by MAIL_PROVIDER.
func NewSender(cfg config.MailConfig, logger zerolog.Logger) (Sender, error) {
	switch cfg.Provider {
	case config.MailProviderSMTP:
		return NewSMTPSender(cfg), nil
	case config.MailProviderSendGrid:
		return NewSendGridSender(cfg, logger), nil
	}
	return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
}
