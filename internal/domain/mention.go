package domain

import (
	"time"

	"gorm.io/datatypes"
)

// MentionType tags the event a mention was raised for.
type MentionType string

const (
	MentionMember     MentionType = "mentionmem"   // @name in a post
	MentionQuote      MentionType = "quotedmem"    // member's post quoted
	MentionLike       MentionType = "likemsg"      // member's post liked
	MentionUnlike     MentionType = "rlikemsg"     // like removed
	MentionBuddy      MentionType = "buddy"        // added as buddy
	MentionWatchTopic MentionType = "watchedtopic" // reply in a watched topic
	MentionWatchBoard MentionType = "watchedboard" // new topic in a watched board
	MentionMailFail   MentionType = "mailfail"     // outbound email bounced
)

// MentionTypes lists every known mention type.
func MentionTypes() []MentionType {
	return []MentionType{
		MentionMember, MentionQuote, MentionLike, MentionUnlike,
		MentionBuddy, MentionWatchTopic, MentionWatchBoard, MentionMailFail,
	}
}

// ParseMentionType validates s against the known types.
func ParseMentionType(s string) (MentionType, bool) {
	for _, t := range MentionTypes() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Status is the lifecycle state of a mention row. Deleted is terminal.
type Status string

const (
	StatusNew        Status = "new"
	StatusRead       Status = "read"
	StatusDeleted    Status = "deleted"
	StatusUnapproved Status = "unapproved"
)

// ParseStatus accepts only the four lifecycle states.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusNew, StatusRead, StatusDeleted, StatusUnapproved:
		return Status(s), true
	}
	return "", false
}

// Unread reports whether a mention in this state counts toward the
// member's unread counter.
func (s Status) Unread() bool { return s == StatusNew }

// Channel names a delivery method.
type Channel string

const (
	ChannelNotification Channel = "notification"
	ChannelEmail        Channel = "email"
	ChannelEmailDaily   Channel = "emaildaily"
	ChannelEmailWeekly  Channel = "emailweekly"
)

// Channels lists the delivery methods in their canonical order.
func Channels() []Channel {
	return []Channel{ChannelNotification, ChannelEmail, ChannelEmailDaily, ChannelEmailWeekly}
}

// ParseChannel validates s against the known channels.
func ParseChannel(s string) (Channel, bool) {
	for _, c := range Channels() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Task is one triggering event before it is resolved into mention rows.
// It is not persisted itself.
type Task struct {
	Type       MentionType `json:"type"`
	MemberFrom int64       `json:"member_from"`
	TargetID   int64       `json:"target_id"`
	Time       time.Time   `json:"time"`
	Status     Status      `json:"status"`
	Recipients []int64     `json:"recipients"`

	// Subject and Link are handed to the templates untouched.
	Subject string `json:"subject,omitempty"`
	Link    string `json:"link,omitempty"`
}

// Mention is one (task, recipient) row. The natural key is
// (type, target, sender, recipient); re-inserting it is a no-op.
type Mention struct {
	ID         int64       `json:"id"          gorm:"primaryKey;autoIncrement"`
	Type       MentionType `json:"type"        gorm:"column:mention_type;type:varchar(16);not null;uniqueIndex:ux_mentions_natural,priority:1"`
	TargetID   int64       `json:"target_id"   gorm:"column:id_target;not null;uniqueIndex:ux_mentions_natural,priority:2"`
	MemberFrom int64       `json:"member_from" gorm:"column:id_member_from;not null;uniqueIndex:ux_mentions_natural,priority:3"`
	MemberID   int64       `json:"member_id"   gorm:"column:id_member;not null;uniqueIndex:ux_mentions_natural,priority:4;index:idx_mentions_member_status,priority:1"`
	Status     Status      `json:"status"      gorm:"type:varchar(16);not null;default:'new';index:idx_mentions_member_status,priority:2;check:status IN ('new','read','deleted','unapproved')"`
	LogTime    time.Time   `json:"log_time"    gorm:"not null"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Mention.
func (Mention) TableName() string { return "log_mentions" }

// Member is the slice of the member profile the notification pipeline
// reads. UnreadMentions is a denormalized count of rows in status "new".
type Member struct {
	ID             int64     `json:"id"              gorm:"primaryKey;autoIncrement:false"`
	Name           string    `json:"name"            gorm:"type:varchar(80);not null"`
	Email          string    `json:"email"           gorm:"type:varchar(255);not null;default:''"`
	Language       string    `json:"language"        gorm:"type:varchar(32);not null;default:''"`
	UnreadMentions int       `json:"unread_mentions" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for Member.
func (Member) TableName() string { return "members" }

// NotificationPref holds the enabled channels for one (member, type).
// MemberID 0 carries the board defaults.
type NotificationPref struct {
	ID        int64                       `json:"-"          gorm:"primaryKey;autoIncrement"`
	MemberID  int64                       `json:"member_id"  gorm:"column:id_member;not null;uniqueIndex:ux_pref_member_type,priority:1"`
	Type      MentionType                 `json:"type"       gorm:"column:mention_type;type:varchar(16);not null;uniqueIndex:ux_pref_member_type,priority:2"`
	Channels  datatypes.JSONSlice[string] `json:"channels"   gorm:"not null"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// TableName returns the database table name for NotificationPref.
func (NotificationPref) TableName() string { return "notifications_pref" }

// PendingNotification is a queued digest entry consumed by the digest job.
type PendingNotification struct {
	ID         int64       `gorm:"primaryKey;autoIncrement"`
	Type       MentionType `gorm:"column:mention_type;type:varchar(16);not null;uniqueIndex:ux_pending_natural,priority:1"`
	MemberID   int64       `gorm:"column:id_member;not null;uniqueIndex:ux_pending_natural,priority:2;index"`
	LogTime    int64       `gorm:"not null;uniqueIndex:ux_pending_natural,priority:3"`
	Frequency  string      `gorm:"type:varchar(8);not null;uniqueIndex:ux_pending_natural,priority:4;check:frequency IN ('daily','weekly')"`
	SnippetKey string      `gorm:"type:char(16);not null;uniqueIndex:ux_pending_natural,priority:5"`
	Snippet    string      `gorm:"type:text;not null"`
	CreatedAt  time.Time
}

// TableName returns the database table name for PendingNotification.
func (PendingNotification) TableName() string { return "pending_notifications" }
