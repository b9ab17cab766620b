// Package mailer delivers rendered email messages. Providers are
// synchronous: Send returns once the message has been handed to the
// transport or the context has expired.
package mailer

import (
	"context"
	"errors"
	"strings"
)

// ErrNoRecipient is returned for messages without a destination address.
var ErrNoRecipient = errors.New("mailer: empty recipient")

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
	// HTML marks Body as text/html instead of text/plain.
	HTML bool
}

// Provider sends email.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	return nil
}
