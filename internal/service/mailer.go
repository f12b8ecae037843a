package service

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
)

// Mailer delivers outbound notification email. Delivery is fire-and-forget
// from the caller's perspective.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, to, link string) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool
}

// SMTPMailer sends email through a plain SMTP relay. When disabled it logs
// the message instead, which keeps local development mail-server free.
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates a new SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendPasswordResetEmail sends the reset link to the address.
func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, link string) error {
	subject := "Reset Password Link"
	body := resetPasswordHTML(link)

	if !m.cfg.Enabled {
		log.Printf("mailer disabled, would send %q to %s: %s", subject, to, link)
		return nil
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		m.cfg.From, to, subject, body,
	)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return smtp.SendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, []string{to}, []byte(msg))
}

func resetPasswordHTML(link string) string {
	return fmt.Sprintf(`<div style="font-family:sans-serif">
  <p>We received a request to reset your password.</p>
  <p><a href="%s" style="background:#1a73e8;color:#fff;padding:10px 18px;border-radius:4px;text-decoration:none">Reset Password</a></p>
  <p>If you did not request this, you can ignore this email.</p>
</div>`, link)
}

// Ensure SMTPMailer implements Mailer.
var _ Mailer = (*SMTPMailer)(nil)
