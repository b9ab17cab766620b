package notify

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/tbourn/forum-guard/internal/domain"
)

// PendingStore queues digest entries with insert-or-ignore semantics.
type PendingStore interface {
	QueuePending(ctx context.Context, p *domain.PendingNotification) (bool, error)
}

// PendingStoreFunc adapts a function to PendingStore.
type PendingStoreFunc func(ctx context.Context, p *domain.PendingNotification) (bool, error)

func (f PendingStoreFunc) QueuePending(ctx context.Context, p *domain.PendingNotification) (bool, error) {
	return f(ctx, p)
}

// Digest defers delivery to the daily or weekly digest job by queueing a
// pending row. A duplicate row is a successful no-op.
type Digest struct {
	name      domain.Channel
	frequency string
	store     PendingStore
}

// NewDailyDigest queues entries for the daily digest.
func NewDailyDigest(store PendingStore) *Digest {
	return &Digest{name: domain.ChannelEmailDaily, frequency: "daily", store: store}
}

// NewWeeklyDigest queues entries for the weekly digest.
func NewWeeklyDigest(store PendingStore) *Digest {
	return &Digest{name: domain.ChannelEmailWeekly, frequency: "weekly", store: store}
}

func (g *Digest) Name() domain.Channel { return g.name }

func (g *Digest) Deliver(ctx context.Context, d Delivery) error {
	if d.Recipient.MemberID == 0 || d.Recipient.MemberID == d.Task.MemberFrom {
		return ErrSkipped
	}
	snippet := d.Content.Snippet
	if snippet == "" {
		snippet = d.Content.Subject
	}
	p := &domain.PendingNotification{
		Type:       d.Task.Type,
		MemberID:   d.Recipient.MemberID,
		LogTime:    d.Task.Time.Unix(),
		Frequency:  g.frequency,
		SnippetKey: digestKey(d.MentionID, snippet),
		Snippet:    snippet,
	}
	if _, err := g.store.QueuePending(ctx, p); err != nil {
		return fmt.Errorf("queue %s digest: %w", g.frequency, err)
	}
	return nil
}

// SnippetKey is the fixed-width dedup key of a digest snippet.
func SnippetKey(snippet string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(snippet))
}

// digestKey scopes the snippet key to the mention row, so two mentions
// rendering the same text in the same second stay separate entries.
func digestKey(mentionID int64, snippet string) string {
	if mentionID == 0 {
		return SnippetKey(snippet)
	}
	return SnippetKey(fmt.Sprintf("%d\x00%s", mentionID, snippet))
}
