package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
)

// Mail delivers messages over SMTP. The target address is the recipient's
// mail address.
type Mail struct {
	host string
	port string
	from string
	auth smtp.Auth

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMail(host, port, from, username, password string) *Mail {
	m := &Mail{host: host, port: port, from: from, send: smtp.SendMail}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

func (m *Mail) Name() string { return "mail" }

func (m *Mail) Send(ctx context.Context, title, body string, targets []Target) error {
	var errs []error
	for _, target := range targets {
		to, ok := target.Addresses[m.Name()]
		if !ok || to == "" {
			continue
		}
		msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, title, body)
		if err := m.send(m.host+":"+m.port, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
			errs = append(errs, fmt.Errorf("target %s: %w", target.Name, err))
		}
	}
	return errors.Join(errs...)
}
