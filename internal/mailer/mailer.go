package mailer

import (
	"fmt"
	"net/smtp"
)

// Sender delivers transactional mail. Tests substitute a recording stub.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPSender struct {
	Addr     string
	Host     string
	From     string
	Password string
}

func (s *SMTPSender) Send(to, subject, body string) error {
	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\n%s",
		s.From, to, subject, body,
	)

	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)
	if err := smtp.SendMail(s.Addr, auth, s.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
