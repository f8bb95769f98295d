package infra

import (
	"fmt"
	"net/smtp"

	"github.com/Code-Vida/apistock/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends transactional email through the configured SMTP relay.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// Send delivers a plain text message with an optional HTML alternative.
func (m *Mailer) Send(to, subject, text, html string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(text)
	if html != "" {
		e.HTML = []byte(html)
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}
