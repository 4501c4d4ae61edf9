package mailer

import (
	"fmt"
	"log"
	"net/smtp"
)

// Notifier delivers a message to a single recipient. Delivery is best
// effort: implementations must never surface a failure to the workflow that
// triggered the notification.
type Notifier interface {
	Notify(to, subject, body string)
}

// Mailer is an SMTP-backed Notifier. With no host configured it becomes a
// no-op, which keeps local development working without a mail server.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func New(host, port, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *Mailer) configured() bool {
	return m.host != "" && m.username != "" && m.from != ""
}

// Notify sends a plain-text mail. Errors are logged and swallowed.
func (m *Mailer) Notify(to, subject, body string) {
	if !m.configured() {
		return
	}

	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, to, subject, body)

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		log.Printf("mail to %s failed: %v", to, err)
	}
}
