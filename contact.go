package main

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"net/smtp"
	"strings"
)

var (
	errSMTPNotConfigured = errors.New("SMTP credentials not configured")
	errInvalidContact    = errors.New("invalid contact submission")
)

type contactMessage struct {
	Name    string
	Email   string
	Message string
}

// validate trims the fields and rejects anything that could not be replied to
// or that would break the mail headers.
func (m *contactMessage) validate() error {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Message = strings.TrimSpace(m.Message)
	if m.Name == "" || m.Email == "" || m.Message == "" {
		return fmt.Errorf("%w: all fields are required", errInvalidContact)
	}
	if strings.ContainsAny(m.Name, "\r\n") {
		return fmt.Errorf("%w: name contains line breaks", errInvalidContact)
	}
	addr, err := mail.ParseAddress(m.Email)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidContact, err)
	}
	m.Email = addr.Address
	return nil
}

type mailer interface {
	Send(msg contactMessage) error
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpMailer struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

func newSMTPMailer(cfg SMTPConfig) *smtpMailer {
	if cfg.To == "" {
		cfg.To = cfg.User
	}
	return &smtpMailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *smtpMailer) Send(msg contactMessage) error {
	if m.cfg.User == "" || m.cfg.Pass == "" {
		return errSMTPNotConfigured
	}

	subject := fmt.Sprintf("Portfolio Contact: %s", msg.Name)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, msg.Message)

	raw := []byte("To: " + m.cfg.To + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + m.cfg.User + "\r\n" +
		"Reply-To: " + msg.Email + "\r\n" +
		"\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := m.sendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.User, []string{m.cfg.To}, raw); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}

	log.Printf("Email sent successfully from %s (%s)", msg.Name, msg.Email)
	return nil
}
