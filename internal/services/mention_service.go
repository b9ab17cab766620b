// Package services – MentionService
//
// MentionService turns a mention task into persisted mention rows. It
// filters the candidate recipients, resolves each one's delivery channels
// from their notification preferences, writes one row per surviving
// (task, recipient) pair and keeps the unread counters consistent through
// the repository's atomic counter updates.
//
// Observability: public methods are OpenTelemetry-instrumented and mention
// rows written are counted in mentions_created_total.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/forum-guard/internal/cache"
	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/repo"
)

const (
	prefCachePrefix = "prefs:"
	prefCacheGen    = "prefs:gen"
	defaultPrefTTL  = 5 * time.Minute
)

// ResolvedRecipient is one recipient that survived filtering, together
// with its enabled channels and the state of its mention row.
type ResolvedRecipient struct {
	MemberID  int64            `json:"member_id"`
	Channels  []domain.Channel `json:"channels"`
	MentionID int64            `json:"mention_id"`
	Status    domain.Status    `json:"status"`
	// LogTime is the stored row's time, which a repeated resolve keeps.
	LogTime time.Time `json:"log_time"`
	// Fresh is set when this call wrote the row.
	Fresh bool `json:"fresh"`
}

// MentionService coordinates mention persistence and preference lookup.
type MentionService struct {
	DB *gorm.DB

	// Enabled restricts the accepted mention types. Nil accepts all.
	Enabled map[domain.MentionType]bool

	// Optional preference cache.
	Cache    cache.Cache
	CacheTTL time.Duration

	Log zerolog.Logger
}

// EnabledTypes builds the Enabled map from names. An empty list enables
// every type.
func EnabledTypes(names []string) (map[domain.MentionType]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make(map[domain.MentionType]bool, len(names))
	for _, n := range names {
		t, ok := domain.ParseMentionType(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMentionType, n)
		}
		out[t] = true
	}
	return out, nil
}

// Create resolves task and returns the ids of the recipients that hold a
// live mention row.
func (s *MentionService) Create(ctx context.Context, task domain.Task) ([]int64, error) {
	resolved, err := s.Resolve(ctx, task)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(resolved))
	for _, r := range resolved {
		if r.Status != domain.StatusDeleted {
			ids = append(ids, r.MemberID)
		}
	}
	return ids, nil
}

// Resolve filters the task's candidates, drops those with no enabled
// channel and persists one mention row for each of the rest. Resolving the
// same task again writes nothing new and reports the stored rows.
func (s *MentionService) Resolve(ctx context.Context, task domain.Task) ([]ResolvedRecipient, error) {
	tr := otel.Tracer("services/MentionService")
	ctx, span := tr.Start(ctx, "Resolve",
		trace.WithAttributes(
			attribute.String("mention.type", string(task.Type)),
			attribute.Int64("mention.target", task.TargetID),
			attribute.Int64("member.from", task.MemberFrom),
		),
	)
	defer span.End()

	if err := validateTask(task); err != nil {
		return nil, err
	}
	if s.Enabled != nil && !s.Enabled[task.Type] {
		return nil, nil
	}
	status := task.Status
	if status == "" {
		status = domain.StatusNew
	}
	if _, ok := domain.ParseStatus(string(status)); !ok {
		return nil, ErrInvalidStatus
	}

	candidates := Candidates(task)
	if len(candidates) == 0 {
		return nil, nil
	}

	prefs, err := s.preferences(ctx, candidates, task.Type)
	if err != nil {
		return nil, err
	}

	when := task.Time
	if when.IsZero() {
		when = time.Now().UTC()
	}

	out := make([]ResolvedRecipient, 0, len(candidates))
	for _, id := range candidates {
		chs := prefs[id]
		if len(chs) == 0 {
			continue
		}
		m := &domain.Mention{
			Type:       task.Type,
			TargetID:   task.TargetID,
			MemberFrom: task.MemberFrom,
			MemberID:   id,
			Status:     status,
			LogTime:    when,
		}
		fresh, err := repo.CreateMention(ctx, s.DB, m)
		if err != nil {
			return nil, fmt.Errorf("create mention for member %d: %w", id, err)
		}
		if fresh {
			mentionsCreated.WithLabelValues(string(task.Type)).Inc()
		}
		out = append(out, ResolvedRecipient{
			MemberID:  id,
			Channels:  chs,
			MentionID: m.ID,
			Status:    m.Status,
			LogTime:   m.LogTime,
			Fresh:     fresh,
		})
	}
	span.SetAttributes(attribute.Int("mention.recipients", len(out)))
	return out, nil
}

func validateTask(t domain.Task) error {
	if t.Type == "" || t.TargetID == 0 {
		return ErrMissingTask
	}
	if _, ok := domain.ParseMentionType(string(t.Type)); !ok {
		return ErrUnknownMentionType
	}
	return nil
}

// Candidates returns the task's recipients without the anonymous id 0,
// the acting member and repeats, in first-seen order.
func Candidates(t domain.Task) []int64 {
	seen := make(map[int64]struct{}, len(t.Recipients))
	out := make([]int64, 0, len(t.Recipients))
	for _, id := range t.Recipients {
		if id == 0 || id == t.MemberFrom {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// UpdateStatus moves the given mentions to action. It reports whether any
// row changed. Deleted rows stay deleted.
func (s *MentionService) UpdateStatus(ctx context.Context, ids []int64, action string) (bool, error) {
	tr := otel.Tracer("services/MentionService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(
			attribute.String("mention.status", action),
			attribute.Int("mention.count", len(ids)),
		),
	)
	defer span.End()

	status, ok := domain.ParseStatus(action)
	if !ok {
		return false, ErrInvalidStatus
	}
	n, err := repo.SetMentionStatus(ctx, s.DB, ids, status)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkAllRead marks every new mention of memberID as read.
func (s *MentionService) MarkAllRead(ctx context.Context, memberID int64) (int64, error) {
	tr := otel.Tracer("services/MentionService")
	ctx, span := tr.Start(ctx, "MarkAllRead",
		trace.WithAttributes(attribute.Int64("member.id", memberID)),
	)
	defer span.End()

	if err := s.ensureMember(ctx, memberID); err != nil {
		return 0, err
	}
	return repo.MarkAllRead(ctx, s.DB, memberID)
}

// ListPage returns a page of memberID's visible mentions and their total.
func (s *MentionService) ListPage(ctx context.Context, memberID int64, includeRead bool, page, pageSize int) ([]domain.Mention, int64, error) {
	tr := otel.Tracer("services/MentionService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.Int64("member.id", memberID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if err := s.ensureMember(ctx, memberID); err != nil {
		return nil, 0, err
	}

	total, err := repo.CountMentions(ctx, s.DB, memberID, includeRead)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Mention{}, 0, nil
	}
	items, err := repo.ListMentionsPage(ctx, s.DB, memberID, includeRead, offset, pageSize)
	return items, total, err
}

// Stats returns the count and last update of a member's visible mentions
// for ETag generation.
func (s *MentionService) Stats(ctx context.Context, memberID int64, includeRead bool) (int64, *time.Time, error) {
	return repo.MentionsStats(ctx, s.DB, memberID, includeRead)
}

// Unread returns the member's unread counter.
func (s *MentionService) Unread(ctx context.Context, memberID int64) (int, error) {
	if err := s.ensureMember(ctx, memberID); err != nil {
		return 0, err
	}
	return repo.UnreadMentions(ctx, s.DB, memberID)
}

// SetPreferences stores the channels memberID wants for t. Member 0 sets
// the board defaults.
func (s *MentionService) SetPreferences(ctx context.Context, memberID int64, t domain.MentionType, channels []string) error {
	if _, ok := domain.ParseMentionType(string(t)); !ok {
		return ErrUnknownMentionType
	}
	for _, c := range channels {
		if _, ok := domain.ParseChannel(c); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidChannel, c)
		}
	}
	if err := repo.SetPreferences(ctx, s.DB, memberID, t, channels); err != nil {
		return err
	}
	s.invalidatePrefs(ctx, memberID, t)
	return nil
}

func (s *MentionService) ensureMember(ctx context.Context, memberID int64) error {
	if _, err := repo.GetMember(ctx, s.DB, memberID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	return nil
}

// --- preference lookup ---
//
// Cached entries are keyed by a generation stamp so a change to the board
// defaults (member 0) invalidates every member's entry at once.

type prefEntry struct {
	Channels []string `json:"c"`
}

func (s *MentionService) preferences(ctx context.Context, ids []int64, t domain.MentionType) (map[int64][]domain.Channel, error) {
	raw := make(map[int64][]string, len(ids))
	misses := ids
	gen := ""
	if s.Cache != nil {
		gen = s.prefGeneration(ctx)
		misses = misses[:0:0]
		for _, id := range ids {
			b, err := s.Cache.Get(ctx, prefKey(gen, t, id))
			if err != nil {
				misses = append(misses, id)
				continue
			}
			var e prefEntry
			if json.Unmarshal(b, &e) != nil {
				misses = append(misses, id)
				continue
			}
			raw[id] = e.Channels
		}
	}

	if len(misses) > 0 {
		loaded, err := repo.LoadPreferences(ctx, s.DB, misses, t)
		if err != nil {
			return nil, fmt.Errorf("load preferences: %w", err)
		}
		for _, id := range misses {
			raw[id] = loaded[id]
			if s.Cache != nil {
				b, _ := json.Marshal(prefEntry{Channels: loaded[id]})
				if err := s.Cache.Put(ctx, prefKey(gen, t, id), b, s.prefTTL()); err != nil {
					s.Log.Debug().Err(err).Int64("member_id", id).Msg("preference cache put failed")
				}
			}
		}
	}

	out := make(map[int64][]domain.Channel, len(raw))
	for id, names := range raw {
		out[id] = s.channels(id, names)
	}
	return out, nil
}

// channels parses names, dropping unknown entries and repeats.
func (s *MentionService) channels(memberID int64, names []string) []domain.Channel {
	out := make([]domain.Channel, 0, len(names))
	seen := make(map[domain.Channel]struct{}, len(names))
	for _, n := range names {
		c, ok := domain.ParseChannel(n)
		if !ok {
			s.Log.Warn().Int64("member_id", memberID).Str("channel", n).Msg("ignoring unknown channel in preferences")
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func (s *MentionService) prefGeneration(ctx context.Context) string {
	b, err := s.Cache.Get(ctx, prefCacheGen)
	if err == nil {
		return string(b)
	}
	return "0"
}

func (s *MentionService) invalidatePrefs(ctx context.Context, memberID int64, t domain.MentionType) {
	if s.Cache == nil {
		return
	}
	var err error
	if memberID == repo.DefaultsMemberID {
		gen := strconv.FormatInt(time.Now().UnixNano(), 36)
		err = s.Cache.Put(ctx, prefCacheGen, []byte(gen), 0)
	} else {
		err = s.Cache.Remove(ctx, prefKey(s.prefGeneration(ctx), t, memberID))
	}
	if err != nil {
		s.Log.Warn().Err(err).Int64("member_id", memberID).Msg("preference cache invalidation failed")
	}
}

func (s *MentionService) prefTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return defaultPrefTTL
}

func prefKey(gen string, t domain.MentionType, memberID int64) string {
	return prefCachePrefix + gen + ":" + string(t) + ":" + strconv.FormatInt(memberID, 10)
}
