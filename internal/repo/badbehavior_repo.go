package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/forum-guard/internal/domain"
)

// InsertBadBehaviorLog records one screened request.
func InsertBadBehaviorLog(ctx context.Context, db *gorm.DB, row *domain.BadBehaviorLog) error {
	if row.Date.IsZero() {
		row.Date = time.Now().UTC()
	}
	return withRetry(ctx, func() error { return db.WithContext(ctx).Create(row).Error })
}

// PruneBadBehaviorLog deletes rows logged before cutoff.
func PruneBadBehaviorLog(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("date < ?", cutoff).Delete(&domain.BadBehaviorLog{})
	return res.RowsAffected, res.Error
}

// RecentBadBehavior returns the newest log rows, optionally for one reason.
func RecentBadBehavior(ctx context.Context, db *gorm.DB, reason string, limit int) ([]domain.BadBehaviorLog, error) {
	var out []domain.BadBehaviorLog
	q := db.WithContext(ctx).Order("date DESC, id DESC")
	if reason != "" {
		q = q.Where("reason = ?", reason)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
