// Package mailer implements the outbound mail-dispatch capability over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPDispatcher sends HTML notifications through a single SMTP relay.
// It satisfies expiry.Dispatcher.
type SMTPDispatcher struct {
	host     string
	port     int
	from     string
	username string
	password string
}

func NewSMTPDispatcher(host string, port int, from, username, password string) *SMTPDispatcher {
	return &SMTPDispatcher{
		host:     host,
		port:     port,
		from:     from,
		username: username,
		password: password,
	}
}

// Send delivers one HTML message to one recipient.
func (d *SMTPDispatcher) Send(subject, htmlBody, to string) error {
	addr := fmt.Sprintf("%s:%d", d.host, d.port)
	var auth smtp.Auth
	if d.username != "" {
		auth = smtp.PlainAuth("", d.username, d.password, d.host)
	}
	msg := buildMessage(d.from, to, subject, htmlBody)
	if err := smtp.SendMail(addr, auth, d.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send to %s via %s failed: %w", to, addr, err)
	}
	return nil
}

// buildMessage frames an HTML mail body with its RFC 5322 headers.
func buildMessage(from, to, subject, htmlBody string) []byte {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	return []byte(msg.String())
}
