// Package mailer sends transactional mail over SMTP.
package mailer

import (
	"github.com/wneessen/go-mail"
)

// Mailer sends plain-text mail through a single SMTP account.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

// New builds a Mailer for the given SMTP account. from is the sender
// address placed on every message.
func New(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from}
}

// Send delivers one plain-text message. A client is dialed per send;
// summary mail volume is low enough that connection reuse is not
// worth the state.
func (m *Mailer) Send(to, subject, body string) error {
	client, err := mail.NewClient(
		m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.user),
		mail.WithPassword(m.pass),
	)
	if err != nil {
		return err
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return client.DialAndSend(msg)
}
