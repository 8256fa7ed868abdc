package mailer

import (
	"fmt"
	"net/smtp"
	"os"
)

// Sender dispatches a message to a destination address. A failed send is
// reported to the caller, never retried here.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through a plain-auth SMTP relay configured from the
// environment (SMTP_HOST, SMTP_PORT, EMAIL_USER, EMAIL_PASS).
type SMTPSender struct {
	host string
	port string
	from string
	pass string
}

func NewSMTPSender() *SMTPSender {
	s := &SMTPSender{
		host: os.Getenv("SMTP_HOST"),
		port: os.Getenv("SMTP_PORT"),
		from: os.Getenv("EMAIL_USER"),
		pass: os.Getenv("EMAIL_PASS"),
	}
	if s.host == "" {
		s.host = "smtp.gmail.com"
	}
	if s.port == "" {
		s.port = "587"
	}
	return s
}

func (s *SMTPSender) Send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n", to, subject, body))
	auth := smtp.PlainAuth("", s.from, s.pass, s.host)
	return smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{to}, msg)
}
