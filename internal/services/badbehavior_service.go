package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/repo"
)

// BadBehaviorService owns the screening log: writes from the middleware,
// operator queries and retention.
type BadBehaviorService struct {
	DB        *gorm.DB
	Retention time.Duration
	Log       zerolog.Logger
}

// Record stores one screened request.
func (s *BadBehaviorService) Record(ctx context.Context, row *domain.BadBehaviorLog) error {
	return repo.InsertBadBehaviorLog(ctx, s.DB, row)
}

// Recent returns up to limit newest rows, optionally for one reason code.
func (s *BadBehaviorService) Recent(ctx context.Context, reason string, limit int) ([]domain.BadBehaviorLog, error) {
	tr := otel.Tracer("services/BadBehaviorService")
	ctx, span := tr.Start(ctx, "Recent",
		trace.WithAttributes(attribute.String("bb.reason", reason), attribute.Int("limit", limit)),
	)
	defer span.End()

	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return repo.RecentBadBehavior(ctx, s.DB, reason, limit)
}

// Stats counts rows per reason code since the given time.
func (s *BadBehaviorService) Stats(ctx context.Context, since time.Time) (map[string]int64, error) {
	return repo.BadBehaviorStats(ctx, s.DB, since)
}

// Prune deletes rows older than the retention window ending at now. A
// non-positive retention keeps everything.
func (s *BadBehaviorService) Prune(ctx context.Context, now time.Time) (int64, error) {
	if s.Retention <= 0 {
		return 0, nil
	}
	n, err := repo.PruneBadBehaviorLog(ctx, s.DB, now.Add(-s.Retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Log.Info().Int64("rows", n).Dur("retention", s.Retention).Msg("pruned bad behavior log")
	}
	return n, nil
}

// RunPruner calls Prune every interval until ctx is done.
func (s *BadBehaviorService) RunPruner(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.Retention <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if _, err := s.Prune(ctx, now.UTC()); err != nil {
				s.Log.Warn().Err(err).Msg("bad behavior log prune failed")
			}
		}
	}
}
