package mailservice

import (
	"time"

	"github.com/go-mail/mail/v2"
)

const dialTimeout = 5 * time.Second

// NewMailer creates an SMTP mailer that renders messages with r.
func NewMailer(host string, port int, username, password, sender string, r TemplateRenderer) *Mail {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = dialTimeout

	return &Mail{
		dialer:   dialer,
		sender:   sender,
		renderer: r,
	}
}

func (m *Mail) compose(recipient string, r Rendered) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", r.Subject)
	msg.SetBody("text/plain", r.Plain)
	msg.AddAlternative("text/html", r.HTML)
	return msg
}

func (m *Mail) send(recipient string, data any, templateFile string) error {
	r, err := m.renderer.Render(templateFile, data)
	if err != nil {
		return err
	}

	msg := m.compose(recipient, r)

	// One SMTP session at a time per mailer.
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.dialer.DialAndSend(msg)
}
