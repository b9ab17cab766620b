// Package services – NotificationService
//
// NotificationService fans a resolved task out to the delivery channels
// each recipient enabled. Channel failures are isolated: every channel of
// every recipient is attempted, failures are logged and counted, and none
// of them rolls back the mention rows already written.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/notify"
	"github.com/tbourn/forum-guard/internal/repo"
)

// Delivery outcomes, also used as metric label values.
const (
	OutcomeDelivered = "delivered"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// DeliveryResult records what happened to one (recipient, channel) pair.
type DeliveryResult struct {
	MemberID int64          `json:"member_id"`
	Channel  domain.Channel `json:"channel"`
	Outcome  string         `json:"outcome"`
	Error    string         `json:"error,omitempty"`
}

// Report is the outcome of Send.
type Report struct {
	Recipients []ResolvedRecipient `json:"recipients"`
	Deliveries []DeliveryResult    `json:"deliveries"`
}

// NotificationService dispatches deliveries for resolved mentions.
type NotificationService struct {
	DB       *gorm.DB
	Mentions *MentionService
	Channels *notify.Registry
	Renderer notify.Renderer
	Log      zerolog.Logger
}

// Send resolves task into mention rows and dispatches its deliveries.
// Persistence errors abort and are returned; delivery errors do not.
func (s *NotificationService) Send(ctx context.Context, task domain.Task) (*Report, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("task.id", TaskID(task)),
			attribute.String("mention.type", string(task.Type)),
		),
	)
	defer span.End()

	if task.Time.IsZero() {
		task.Time = time.Now().UTC()
	}
	resolved, err := s.Mentions.Resolve(ctx, task)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve")
		return nil, err
	}
	results, err := s.Dispatch(ctx, task, resolved)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch")
		return nil, err
	}
	return &Report{Recipients: resolved, Deliveries: results}, nil
}

// Dispatch produces one delivery per (recipient, channel). Recipients whose
// row is deleted or unapproved get nothing. Deliveries carry the stored
// row's time so a repeated send queues the same digest entry. Immediate email only goes out
// for rows written by this resolution so a repeated send does not mail
// twice.
func (s *NotificationService) Dispatch(ctx context.Context, task domain.Task, recipients []ResolvedRecipient) ([]DeliveryResult, error) {
	if len(recipients) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(recipients)+1)
	ids = append(ids, task.MemberFrom)
	for _, r := range recipients {
		ids = append(ids, r.MemberID)
	}
	members, err := repo.GetMembers(ctx, s.DB, ids)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	sender := members[task.MemberFrom].Name

	var results []DeliveryResult
	for _, r := range recipients {
		if r.Status == domain.StatusDeleted || r.Status == domain.StatusUnapproved {
			continue
		}
		rt := task
		if !r.LogTime.IsZero() {
			rt.Time = r.LogTime
		}
		m := members[r.MemberID]
		rcpt := notify.Recipient{MemberID: r.MemberID, Name: m.Name, Email: m.Email, Language: m.Language}

		content, rerr := s.render(task, rcpt, sender)
		for _, ch := range r.Channels {
			res := DeliveryResult{MemberID: r.MemberID, Channel: ch}
			switch {
			case rerr != nil:
				res.Outcome, res.Error = OutcomeFailed, rerr.Error()
				s.logFailure(task, r.MemberID, ch, rerr)
			case ch == domain.ChannelEmail && !r.Fresh:
				res.Outcome = OutcomeSkipped
			default:
				d := notify.Delivery{Task: rt, MentionID: r.MentionID, Recipient: rcpt, Channel: ch, Content: content}
				res.Outcome, res.Error = s.deliver(ctx, d)
			}
			deliveries.WithLabelValues(string(ch), res.Outcome).Inc()
			results = append(results, res)
		}
	}
	return results, nil
}

func (s *NotificationService) deliver(ctx context.Context, d notify.Delivery) (string, string) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "deliver",
		trace.WithAttributes(
			attribute.Int64("member.id", d.Recipient.MemberID),
			attribute.String("channel", string(d.Channel)),
		),
	)
	defer span.End()

	h, ok := s.Channels.Lookup(d.Channel)
	if !ok {
		s.logFailure(d.Task, d.Recipient.MemberID, d.Channel, notify.ErrUnknownChannel)
		return OutcomeFailed, notify.ErrUnknownChannel.Error()
	}
	err := h.Deliver(ctx, d)
	switch {
	case err == nil:
		return OutcomeDelivered, ""
	case errors.Is(err, notify.ErrSkipped):
		return OutcomeSkipped, ""
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "deliver")
		s.logFailure(d.Task, d.Recipient.MemberID, d.Channel, err)
		return OutcomeFailed, err.Error()
	}
}

func (s *NotificationService) render(task domain.Task, rcpt notify.Recipient, sender string) (notify.Content, error) {
	if s.Renderer == nil {
		return notify.Content{Subject: task.Subject, Body: task.Link, Snippet: task.Subject}, nil
	}
	return s.Renderer.Render(task.Type, rcpt.Language, notify.RenderData{
		Sender:    sender,
		Recipient: rcpt.Name,
		Subject:   task.Subject,
		Link:      task.Link,
	})
}

func (s *NotificationService) logFailure(task domain.Task, memberID int64, ch domain.Channel, err error) {
	s.Log.Error().
		Err(err).
		Str("task_id", TaskID(task)).
		Int64("member_id", memberID).
		Str("channel", string(ch)).
		Msg("notification delivery failed")
}

// TaskID identifies a task in logs by its natural key.
func TaskID(t domain.Task) string {
	return fmt.Sprintf("%s:%d:%d", t.Type, t.TargetID, t.MemberFrom)
}
