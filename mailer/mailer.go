// Package mailer delivers transactional mail (verification codes, password
// reset codes, username recovery, contact-form alerts) over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"scholarmate/config"
)

// Mailer sends a plain-text message to the given recipients.
type Mailer interface {
	Send(to []string, subject, body string) error
}

// SMTP is the production Mailer.
type SMTP struct {
	host string
	port int
	user string
	pass string
	from string
}

// NewSMTP builds a mailer from config.
func NewSMTP(cfg *config.Config) *SMTP {
	return &SMTP{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPassword,
		from: cfg.DefaultFromEmail,
	}
}

func (m *SMTP) Send(to []string, subject, body string) error {
	if m.host == "" || m.from == "" {
		return fmt.Errorf("mailer: SMTP_HOST / DEFAULT_FROM_EMAIL not configured")
	}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var a smtp.Auth
	if m.user != "" {
		a = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	return smtp.SendMail(addr, a, m.from, to, []byte(msg.String()))
}

// LogOnly logs instead of sending; used when SMTP is not configured.
type LogOnly struct {
	Logger *zap.Logger
}

func (m *LogOnly) Send(to []string, subject, body string) error {
	m.Logger.Info("Mail delivery skipped (SMTP not configured)",
		zap.Strings("to", to), zap.String("subject", subject))
	return nil
}
