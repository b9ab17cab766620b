package notify

import (
	"context"

	"github.com/tbourn/forum-guard/internal/domain"
)

// InApp is the on-site notification channel. The mention row written
// during resolution is the notification, so delivery only confirms that
// the row exists.
type InApp struct{}

func (InApp) Name() domain.Channel { return domain.ChannelNotification }

func (InApp) Deliver(_ context.Context, d Delivery) error {
	if d.MentionID == 0 {
		return ErrNoMention
	}
	return nil
}
