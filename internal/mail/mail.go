// Package mail sends the hub's operational notifications: fault reports
// to engineers and password-reset links to customers.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Sender delivers one plain-text message. The hub treats delivery as
// best-effort; a failed send is logged, never retried.
type Sender interface {
	Send(to []string, subject, body string) error
}

// SMTPSender sends through a single SMTP host using PLAIN auth over
// STARTTLS (the smtp package negotiates TLS when the server offers it).
type SMTPSender struct {
	Host     string
	Port     int
	From     string
	Password string
}

func (s *SMTPSender) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("mail: no recipients")
	}

	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + strings.Join(to, ","),
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)
	return smtp.SendMail(addr, auth, s.From, to, []byte(msg))
}

// Discard drops every message. Used when the hub runs without SMTP
// credentials.
type Discard struct{}

func (Discard) Send([]string, string, string) error { return nil }
