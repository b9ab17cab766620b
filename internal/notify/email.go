package notify

import (
	"context"
	"time"

	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/mailer"
)

// Email sends the rendered content immediately. Failures are returned to
// the dispatcher and never retried here.
type Email struct {
	provider mailer.Provider
	timeout  time.Duration
}

// NewEmail wraps provider; each send is bounded by timeout.
func NewEmail(provider mailer.Provider, timeout time.Duration) *Email {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Email{provider: provider, timeout: timeout}
}

func (e *Email) Name() domain.Channel { return domain.ChannelEmail }

// Deliver skips the anonymous placeholder and the acting member.
func (e *Email) Deliver(ctx context.Context, d Delivery) error {
	if d.Recipient.MemberID == 0 || d.Recipient.MemberID == d.Task.MemberFrom {
		return ErrSkipped
	}
	if d.Recipient.Email == "" {
		return ErrNoAddress
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.provider.Send(ctx, mailer.Message{
		To:      d.Recipient.Email,
		Subject: d.Content.Subject,
		Body:    d.Content.Body,
	})
}
