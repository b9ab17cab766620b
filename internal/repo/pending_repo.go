package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/forum-guard/internal/domain"
)

// QueuePending adds a digest entry. A duplicate of an existing entry is a
// successful no-op; the returned bool reports whether a row was written.
func QueuePending(ctx context.Context, db *gorm.DB, p *domain.PendingNotification) (bool, error) {
	n, err := InsertIgnore(ctx, db, p)
	return n == 1, err
}

// ListPending returns queued digest entries of one frequency, oldest first.
func ListPending(ctx context.Context, db *gorm.DB, frequency string, limit int) ([]domain.PendingNotification, error) {
	var out []domain.PendingNotification
	q := db.WithContext(ctx).Where("frequency = ?", frequency).Order("log_time ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
