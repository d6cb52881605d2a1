package mailer

import (
	"context"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"makerhub-api/internal/config"
)

// Mailer sends plain transactional mail
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers through gomail
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// New returns an SMTP mailer, or a LogMailer when no host is configured
func New(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		log.Println("⚠️ SMTP_HOST not set, emails will be logged instead of sent")
		return LogMailer{}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogMailer prints messages, used in development
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	log.Printf("📧 [mail] to=%s subject=%q\n%s", to, subject, body)
	return nil
}
