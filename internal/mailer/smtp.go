package mailer

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/mail.v2"
)

// SMTPConfig configures an SMTP provider.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTP sends mail through a relay, one connection per message.
type SMTP struct {
	dialer  *mail.Dialer
	from    string
	timeout time.Duration
}

// NewSMTP builds an SMTP provider. Timeout bounds dialing and each
// protocol step; it defaults to 10s.
func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = cfg.Timeout
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	return &SMTP{dialer: d, from: cfg.From, timeout: cfg.Timeout}
}

// Send implements Provider. The context bounds the whole exchange; the
// underlying connection is abandoned when it expires.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	if msg.HTML {
		m.SetBody("text/html", msg.Body)
	} else {
		m.SetBody("text/plain", msg.Body)
	}

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
