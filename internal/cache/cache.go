// Package cache provides the key-value persistence contract used for
// short-lived lookups (crawler verification results, notification
// preferences) together with an in-process and a Redis implementation.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a byte-oriented key-value store with per-entry TTL.
// A non-positive ttl stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}
