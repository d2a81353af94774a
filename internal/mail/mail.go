package mail

import (
	"fmt"
	"net/smtp"

	"github.com/caddieworks/myloopcount/internal/config"
)

// Mailer delivers a single plain-text message. Implementations must be safe
// for concurrent use.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer { return &SMTPMailer{cfg: cfg} }

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.cfg.From, to, subject, body)
	addr := m.cfg.Host + ":" + m.cfg.Port
	var a smtp.Auth
	if m.cfg.User != "" {
		a = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, a, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// Recorder is a Mailer for tests: it records messages instead of sending,
// and can be told to fail.
type Recorder struct {
	Sent []Message
	Err  error
}

type Message struct {
	To      string
	Subject string
	Body    string
}

func (r *Recorder) Send(to, subject, body string) error {
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, Message{To: to, Subject: subject, Body: body})
	return nil
}
