// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for mention rows
// and the members' denormalized unread counters.
//
// Counter maintenance is always a single UPDATE statement so concurrent
// dispatches never lose increments:
//
//   - new mention inserted        -> unread_mentions + 1
//   - new -> read                 -> unread_mentions - n (floored at 0)
//   - any -> deleted / unapproved -> recomputed from log_mentions
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/forum-guard/internal/domain"
)

// InsertIgnore inserts rows, silently skipping any that collide with an
// existing unique key, and returns how many were actually written.
func InsertIgnore(ctx context.Context, db *gorm.DB, rows any) (int64, error) {
	var n int64
	err := withRetry(ctx, func() error {
		res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rows)
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}

// CreateMention inserts m unless a row with the same natural key exists.
// When a new row in status "new" is written the recipient's unread counter
// is bumped in the same transaction. It reports whether a row was written;
// on false, m is refreshed with the stored row.
func CreateMention(ctx context.Context, db *gorm.DB, m *domain.Mention) (bool, error) {
	if m.LogTime.IsZero() {
		m.LogTime = time.Now().UTC()
	}
	if m.Status == "" {
		m.Status = domain.StatusNew
	}
	var inserted bool
	err := withRetry(ctx, func() error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(m)
			if res.Error != nil {
				return res.Error
			}
			inserted = res.RowsAffected == 1
			if !inserted {
				existing, err := findMentionByKey(tx, m.Type, m.TargetID, m.MemberFrom, m.MemberID)
				if err != nil {
					return err
				}
				*m = *existing
				return nil
			}
			if m.Status.Unread() {
				return adjustUnread(tx, m.MemberID, 1)
			}
			return nil
		})
	})
	return inserted, err
}

func findMentionByKey(db *gorm.DB, t domain.MentionType, target, from, member int64) (*domain.Mention, error) {
	var m domain.Mention
	err := db.Where("mention_type = ? AND id_target = ? AND id_member_from = ? AND id_member = ?", t, target, from, member).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &m, err
}

// FindMention looks a mention up by its natural key.
func FindMention(ctx context.Context, db *gorm.DB, t domain.MentionType, target, from, member int64) (*domain.Mention, error) {
	return findMentionByKey(db.WithContext(ctx), t, target, from, member)
}

// GetMentions returns the rows with the given ids, ordered by id.
func GetMentions(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Mention, error) {
	var out []domain.Mention
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&out).Error
	return out, err
}

// SetMentionStatus moves the given mentions to status and keeps the
// affected members' counters consistent. Rows already deleted are never
// touched. It returns the number of rows changed.
func SetMentionStatus(ctx context.Context, db *gorm.DB, ids []int64, status domain.Status) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var changed int64
	err := withRetry(ctx, func() error {
		changed = 0
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var rows []struct {
				MemberID int64
				Unread   int64
			}
			// Per-member count of rows that will flip out of "new".
			if err := tx.Model(&domain.Mention{}).
				Select("id_member AS member_id, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS unread", domain.StatusNew).
				Where("id IN ? AND status <> ? AND status <> ?", ids, domain.StatusDeleted, status).
				Group("id_member").
				Scan(&rows).Error; err != nil {
				return err
			}

			res := tx.Model(&domain.Mention{}).
				Where("id IN ? AND status <> ? AND status <> ?", ids, domain.StatusDeleted, status).
				Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
			if res.Error != nil {
				return res.Error
			}
			changed = res.RowsAffected

			for _, r := range rows {
				// Only new -> read has a locally known delta.
				var err error
				if status == domain.StatusRead {
					err = adjustUnread(tx, r.MemberID, -int(r.Unread))
				} else {
					err = recomputeUnread(tx, r.MemberID)
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
	return changed, err
}

// MarkAllRead flips every new mention of memberID to read and recomputes
// the counter.
func MarkAllRead(ctx context.Context, db *gorm.DB, memberID int64) (int64, error) {
	var changed int64
	err := withRetry(ctx, func() error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&domain.Mention{}).
				Where("id_member = ? AND status = ?", memberID, domain.StatusNew).
				Updates(map[string]any{"status": domain.StatusRead, "updated_at": time.Now().UTC()})
			if res.Error != nil {
				return res.Error
			}
			changed = res.RowsAffected
			return recomputeUnread(tx, memberID)
		})
	})
	return changed, err
}

// AdjustUnread adds delta to the member's unread counter, never going
// below zero.
func AdjustUnread(ctx context.Context, db *gorm.DB, memberID int64, delta int) error {
	return withRetry(ctx, func() error { return adjustUnread(db.WithContext(ctx), memberID, delta) })
}

func adjustUnread(db *gorm.DB, memberID int64, delta int) error {
	if delta == 0 {
		return nil
	}
	return db.Model(&domain.Member{}).
		Where("id = ?", memberID).
		Update("unread_mentions", gorm.Expr(
			"CASE WHEN unread_mentions + ? < 0 THEN 0 ELSE unread_mentions + ? END", delta, delta,
		)).Error
}

// RecomputeUnread resets the member's counter from log_mentions.
func RecomputeUnread(ctx context.Context, db *gorm.DB, memberID int64) error {
	return withRetry(ctx, func() error { return recomputeUnread(db.WithContext(ctx), memberID) })
}

func recomputeUnread(db *gorm.DB, memberID int64) error {
	return db.Exec(
		"UPDATE members SET unread_mentions = (SELECT COUNT(*) FROM log_mentions WHERE id_member = ? AND status = ?) WHERE id = ?",
		memberID, domain.StatusNew, memberID,
	).Error
}

// ListMentionsPage returns a page of a member's visible mentions, newest
// first. Deleted and unapproved rows are never listed; read rows only when
// includeRead is set.
func ListMentionsPage(ctx context.Context, db *gorm.DB, memberID int64, includeRead bool, offset, limit int) ([]domain.Mention, error) {
	var out []domain.Mention
	err := visibleMentions(db.WithContext(ctx), memberID, includeRead).
		Order("log_time DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountMentions counts the rows ListMentionsPage pages over.
func CountMentions(ctx context.Context, db *gorm.DB, memberID int64, includeRead bool) (int64, error) {
	var n int64
	err := visibleMentions(db.WithContext(ctx), memberID, includeRead).Count(&n).Error
	return n, err
}

func visibleMentions(db *gorm.DB, memberID int64, includeRead bool) *gorm.DB {
	q := db.Model(&domain.Mention{}).Where("id_member = ?", memberID)
	if includeRead {
		return q.Where("status IN ?", []domain.Status{domain.StatusNew, domain.StatusRead})
	}
	return q.Where("status = ?", domain.StatusNew)
}
