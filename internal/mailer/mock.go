package mailer

import (
	"context"
	"sync"
)

// Mock records messages instead of sending them. Err, when set, is
// returned for every send and nothing is recorded; FailFor fails only
// messages to the listed addresses.
type Mock struct {
	mu      sync.Mutex
	sent    []Message
	Err     error
	FailFor map[string]error
}

// NewMock returns an empty Mock.
func NewMock() *Mock { return &Mock{} }

// Send implements Provider.
func (m *Mock) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err, ok := m.FailFor[msg.To]; ok {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *Mock) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
