package email

import (
	"fmt"
	"net/smtp"
)

// SMTPMailer sends plain text mail through an SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	Sender   string
	Password string
}

// NewSMTPMailer returns nil when no host is configured, so callers can treat
// mail as optional.
func NewSMTPMailer(host, port, sender, password string) *SMTPMailer {
	if host == "" {
		return nil
	}
	return &SMTPMailer{Host: host, Port: port, Sender: sender, Password: password}
}

// Send sends a plain text email using SMTP.
func (m *SMTPMailer) Send(to, subject, body string) error {
	auth := smtp.PlainAuth("", m.Sender, m.Password, m.Host)
	address := m.Host + ":" + m.Port

	if err := smtp.SendMail(address, auth, m.Sender, []string{to}, buildMessage(to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

func buildMessage(to, subject, body string) []byte {
	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" + body + "\r\n")
}
