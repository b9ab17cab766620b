// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/forum-guard/internal/domain"
)

// MentionsStats returns the number of a member's visible mentions and the
// greatest UpdatedAt among them. When the member has none, count is 0 and
// maxUpdatedAt is nil.
func MentionsStats(ctx context.Context, db *gorm.DB, memberID int64, includeRead bool) (count int64, maxUpdatedAt *time.Time, err error) {
	q := visibleMentions(db.WithContext(ctx), memberID, includeRead)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	q = visibleMentions(db.WithContext(ctx), memberID, includeRead)
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// BadBehaviorStats counts log rows per reason code since the given time.
func BadBehaviorStats(ctx context.Context, db *gorm.DB, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Reason string
		N      int64
	}
	err := db.WithContext(ctx).Model(&domain.BadBehaviorLog{}).
		Select("reason, COUNT(*) AS n").
		Where("date >= ?", since).
		Group("reason").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Reason] = r.N
	}
	return out, nil
}
