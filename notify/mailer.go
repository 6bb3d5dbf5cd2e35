package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/matcornic/hermes/v2"
	"github.com/rs/zerolog"

	"github.com/suisse-offerten/marketplace-api/config"
	"github.com/suisse-offerten/marketplace-api/metrics"
	"github.com/suisse-offerten/marketplace-api/models"
)

// Email kinds, used as metric labels.
const (
	KindVerification = "verification"
	KindPasswordOTP  = "password_otp"
	KindResetLink    = "reset_link"
	KindJobMatch     = "job_match"
)

const signature = "Best regards"

// Mailer renders the marketplace emails with hermes and sends them.
type Mailer struct {
	sender      Sender
	hermes      hermes.Hermes
	siteURL     string
	supportMail string
	logger      zerolog.Logger
}

func NewMailer(sender Sender, cfg config.MailConfig, siteURL string, logger zerolog.Logger) *Mailer {
	return &Mailer{
		sender: sender,
		hermes: hermes.Hermes{
			Product: hermes.Product{
				Name:      cfg.ProductName,
				Link:      cfg.ProductLink,
				Copyright: fmt.Sprintf("Copyright © %s. All rights reserved.", cfg.ProductName),
			},
		},
		siteURL:     strings.TrimRight(siteURL, "/"),
		supportMail: cfg.SupportMail,
		logger:      logger,
	}
}

// SendVerificationCode mails the registration code.
func (m *Mailer) SendVerificationCode(ctx context.Context, to, name, code string) error {
	body := hermes.Body{
		Name:   name,
		Intros: []string{"Welcome! Thank you for registering with " + m.hermes.Product.Name + "."},
		Table: hermes.Table{Data: [][]hermes.Entry{
			{{Key: "Your Verification Code", Value: code}},
		}},
		Outros: m.outros("Enter this code on the verification page to activate your account."),
	}
	return m.send(ctx, KindVerification, to, name, "Email verification code", body)
}

// SendPasswordOTP mails the one-time password of the reset flow.
func (m *Mailer) SendPasswordOTP(ctx context.Context, to, otp string) error {
	body := hermes.Body{
		Name:   to,
		Intros: []string{"You requested a password reset."},
		Table: hermes.Table{Data: [][]hermes.Entry{
			{{Key: "Message", Value: "Your OTP: " + otp}},
		}},
		Outros: m.outros("Use this OTP to change your password. It is valid for 5 minutes."),
	}
	return m.send(ctx, KindPasswordOTP, to, "", "Reset password", body)
}

// SendResetLink mails the change-password link.
func (m *Mailer) SendResetLink(ctx context.Context, to, link string) error {
	body := hermes.Body{
		Name:   to,
		Intros: []string{"You asked to change your password."},
		Actions: []hermes.Action{{
			Instructions: "Click the button below to choose a new password.",
			Button:       hermes.Button{Text: "Change password", Link: link},
		}},
		Outros: m.outros("If you did not request this, you can ignore this email."),
	}
	return m.send(ctx, KindResetLink, to, "", "Change password link", body)
}

// SendJobNotification tells a matched seller about a newly active job.
func (m *Mailer) SendJobNotification(ctx context.Context, to, sellerName string, job models.Job) error {
	subject := "New job posted: " + job.JobTitle
	body := hermes.Body{
		Name:   sellerName,
		Intros: []string{subject},
		Dictionary: []hermes.Entry{
			{Key: "Job Title", Value: job.JobTitle},
			{Key: "Job Description", Value: job.JobDescription},
			{Key: "Job Location", Value: job.JobLocation},
			{Key: "Job Number", Value: job.JobNumber},
		},
		Actions: []hermes.Action{{
			Instructions: "Visit this link to see recent jobs",
			Button:       hermes.Button{Text: "See jobs", Link: m.siteURL + "/search-job"},
		}},
		Outros: m.outros(""),
	}
	return m.send(ctx, KindJobMatch, to, sellerName, subject, body)
}

func (m *Mailer) outros(first string) []string {
	var out []string
	if first != "" {
		out = append(out, first)
	}
	if m.supportMail != "" {
		out = append(out, "E-mail: "+m.supportMail)
	}
	return out
}

func (m *Mailer) send(ctx context.Context, kind, to, toName, subject string, body hermes.Body) (err error) {
	defer func() {
		metrics.EmailsTotal.WithLabelValues(kind, metrics.Result(err)).Inc()
	}()

	body.Signature = signature
	email := hermes.Email{Body: body}

	html, err := m.hermes.GenerateHTML(email)
	if err != nil {
		return fmt.Errorf("render %s email: %w", kind, err)
	}
	text, err := m.hermes.GeneratePlainText(email)
	if err != nil {
		return fmt.Errorf("render %s email: %w", kind, err)
	}

	if err := m.sender.Send(ctx, Message{To: to, ToName: toName, Subject: subject, HTML: html, Text: text}); err != nil {
		return err
	}
	m.logger.Debug().Str("kind", kind).Str("to", to).Msg("email sent")
	return nil
}
