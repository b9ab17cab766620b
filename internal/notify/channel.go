// Package notify fans a resolved mention out to delivery channels. Each
// channel is looked up by name in a Registry; there is no dispatch on
// type names.
package notify

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/tbourn/forum-guard/internal/domain"
)

// Errors reported by channels.
var (
	ErrNoAddress      = errors.New("notify: recipient has no email address")
	ErrNoMention      = errors.New("notify: delivery has no mention row")
	ErrSkipped        = errors.New("notify: recipient skipped")
	ErrUnknownChannel = errors.New("notify: unknown channel")
)

// Recipient is the contact data a channel needs.
type Recipient struct {
	MemberID int64
	Name     string
	Email    string
	Language string
}

// Delivery is one (task, recipient, channel) unit of work.
type Delivery struct {
	Task      domain.Task
	MentionID int64
	Recipient Recipient
	Channel   domain.Channel
	Content   Content
}

// Channel delivers one Delivery. Implementations must be safe for
// concurrent use.
type Channel interface {
	Name() domain.Channel
	Deliver(ctx context.Context, d Delivery) error
}

// Registry maps channel names to handlers.
type Registry struct {
	mu       sync.RWMutex
	channels map[domain.Channel]Channel
}

// NewRegistry registers chs under their own names.
func NewRegistry(chs ...Channel) *Registry {
	r := &Registry{channels: make(map[domain.Channel]Channel, len(chs))}
	for _, c := range chs {
		r.Register(c)
	}
	return r
}

// Register adds or replaces c.
func (r *Registry) Register(c Channel) {
	r.mu.Lock()
	r.channels[c.Name()] = c
	r.mu.Unlock()
}

// Lookup returns the handler for name.
func (r *Registry) Lookup(name domain.Channel) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.channels[name]
	return c, ok
}

// Names lists the registered channels, sorted.
func (r *Registry) Names() []domain.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Channel, 0, len(r.channels))
	for n := range r.channels {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
