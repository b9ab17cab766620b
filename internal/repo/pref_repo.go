package repo

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/forum-guard/internal/domain"
)

// DefaultsMemberID owns the board-wide default preference rows.
const DefaultsMemberID int64 = 0

// LoadPreferences returns the enabled channels of each member for type t.
// A member without a row of their own inherits the defaults row; a member
// with an explicitly empty row gets an empty slice. Members with neither
// are absent from the result.
func LoadPreferences(ctx context.Context, db *gorm.DB, memberIDs []int64, t domain.MentionType) (map[int64][]string, error) {
	out := make(map[int64][]string, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}
	ids := append([]int64{DefaultsMemberID}, memberIDs...)

	var rows []domain.NotificationPref
	if err := db.WithContext(ctx).
		Where("mention_type = ? AND id_member IN ?", t, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	var defaults []string
	haveDefaults := false
	own := make(map[int64][]string, len(rows))
	for _, r := range rows {
		chs := append([]string{}, r.Channels...)
		if r.MemberID == DefaultsMemberID {
			defaults, haveDefaults = chs, true
			continue
		}
		own[r.MemberID] = chs
	}
	for _, id := range memberIDs {
		if chs, ok := own[id]; ok {
			out[id] = chs
		} else if haveDefaults {
			out[id] = append([]string{}, defaults...)
		}
	}
	return out, nil
}

// SetPreferences replaces the channels of (memberID, t).
func SetPreferences(ctx context.Context, db *gorm.DB, memberID int64, t domain.MentionType, channels []string) error {
	p := domain.NotificationPref{
		MemberID:  memberID,
		Type:      t,
		Channels:  datatypes.JSONSlice[string](append([]string{}, channels...)),
		UpdatedAt: time.Now().UTC(),
	}
	return withRetry(ctx, func() error {
		return db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id_member"}, {Name: "mention_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"channels", "updated_at"}),
		}).Create(&p).Error
	})
}
