package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	val     []byte
	expires time.Time // zero means never
}

// Memory is a process-local Cache. Expired entries are dropped lazily on
// access and by a sweep every sweepEvery writes.
type Memory struct {
	mu      sync.Mutex
	items   map[string]entry
	now     func() time.Time
	writes  int
	maxSize int
}

const sweepEvery = 256

// NewMemory returns an empty Memory cache. maxSize <= 0 means unbounded;
// otherwise Put evicts expired entries first and then arbitrary ones to
// stay under the bound.
func NewMemory(maxSize int) *Memory {
	return &Memory{items: make(map[string]entry), now: time.Now, maxSize: maxSize}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		return nil, ErrMiss
	}
	return append([]byte(nil), e.val...), nil
}

func (m *Memory) Put(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.items[key] = e

	m.writes++
	if m.writes%sweepEvery == 0 || (m.maxSize > 0 && len(m.items) > m.maxSize) {
		m.sweepLocked()
	}
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory) sweepLocked() {
	now := m.now()
	for k, e := range m.items {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(m.items, k)
		}
	}
	if m.maxSize <= 0 {
		return
	}
	for k := range m.items {
		if len(m.items) <= m.maxSize {
			break
		}
		delete(m.items, k)
	}
}
