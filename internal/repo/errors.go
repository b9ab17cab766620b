package repo

import (
	"context"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// isBusy reports transient lock or serialization failures worth retrying.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "database is locked") ||
		strings.Contains(low, "sqlite_busy") ||
		strings.Contains(low, "could not serialize access") ||
		strings.Contains(low, "deadlock detected")
}

// withRetry runs fn up to three times while it fails with a busy error.
// Other errors are returned immediately.
func withRetry(ctx context.Context, fn func() error) error {
	var last error
	err := retry.Do(
		func() error {
			last = fn()
			if last != nil && !isBusy(last) {
				return retry.Unrecoverable(last)
			}
			return last
		},
		retry.Attempts(3),
		retry.Delay(20*time.Millisecond),
		retry.MaxDelay(200*time.Millisecond),
		retry.MaxJitter(20*time.Millisecond),
		retry.Context(ctx),
	)
	if err == nil {
		return nil
	}
	if last != nil {
		return last
	}
	return err
}
