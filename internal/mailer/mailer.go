// Package mailer delivers account e-mails.
package mailer

import (
	"context"
	"fmt"

	"city-tours/internal/config"

	mail "github.com/go-mail/mail"
	"github.com/rs/zerolog/log"
)

const resetSubject = "Restablecer contraseña"

// Mailer sends the password reset link to a user
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// New returns an SMTP mailer, or a log-only mailer when no SMTP host is configured
func New(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends mail through an SMTP relay
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// SendPasswordReset sends the reset link to the given address
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	msg := resetMessage(m.from, to, link)

	errCh := make(chan error, 1)
	go func() { errCh <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Str("to", to).Msg("Failed to send password reset mail")
			return fmt.Errorf("failed to send mail: %w", err)
		}
		log.Info().Str("to", to).Msg("Password reset mail sent")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func resetMessage(from, to, link string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", resetSubject)
	m.SetBody("text/plain", fmt.Sprintf(
		"Hemos recibido una solicitud para restablecer tu contraseña.\n\nAbre este enlace para elegir una nueva:\n%s\n\nSi no la solicitaste, ignora este mensaje.\n", link))
	m.AddAlternative("text/html", fmt.Sprintf(
		`<p>Hemos recibido una solicitud para restablecer tu contraseña.</p><p><a href="%s">Elegir una nueva contraseña</a></p><p>Si no la solicitaste, ignora este mensaje.</p>`, link))
	return m
}

// LogMailer writes the reset link to the log instead of sending it
type LogMailer struct{}

// SendPasswordReset logs the link
func (LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	log.Info().Str("to", to).Str("link", link).Msg("Password reset requested (smtp disabled)")
	return nil
}
