package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/forum-guard/internal/domain"
)

// GetMember fetches a member by id, or ErrNotFound.
func GetMember(ctx context.Context, db *gorm.DB, id int64) (*domain.Member, error) {
	var m domain.Member
	err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMembers loads the given members keyed by id. Unknown ids are absent
// from the result.
func GetMembers(ctx context.Context, db *gorm.DB, ids []int64) (map[int64]domain.Member, error) {
	out := make(map[int64]domain.Member, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Member
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, m := range rows {
		out[m.ID] = m
	}
	return out, nil
}

// SaveMember inserts or updates the profile fields of m. The unread
// counter is left untouched on update.
func SaveMember(ctx context.Context, db *gorm.DB, m *domain.Member) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "language", "updated_at"}),
	}).Create(m).Error
}

// UnreadMentions returns the member's denormalized unread counter.
func UnreadMentions(ctx context.Context, db *gorm.DB, memberID int64) (int, error) {
	var n int
	err := db.WithContext(ctx).Model(&domain.Member{}).
		Select("unread_mentions").
		Where("id = ?", memberID).
		Scan(&n).Error
	return n, err
}
