package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/mailer"
)

func task() domain.Task {
	return domain.Task{Type: domain.MentionMember, MemberFrom: 1, TargetID: 10, Time: time.Unix(1_700_000_000, 0)}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(InApp{}, NewEmail(mailer.NewMock(), 0))
	if _, ok := r.Lookup(domain.ChannelNotification); !ok {
		t.Fatal("in-app channel not registered")
	}
	if _, ok := r.Lookup(domain.ChannelEmailDaily); ok {
		t.Fatal("unexpected daily channel")
	}
	names := r.Names()
	if len(names) != 2 || names[0] != domain.ChannelEmail {
		t.Fatalf("names=%v", names)
	}
}

func TestInApp_RequiresMentionRow(t *testing.T) {
	if err := (InApp{}).Deliver(context.Background(), Delivery{}); !errors.Is(err, ErrNoMention) {
		t.Fatalf("got %v", err)
	}
	if err := (InApp{}).Deliver(context.Background(), Delivery{MentionID: 3}); err != nil {
		t.Fatal(err)
	}
}

func TestEmail_SendsAndSkips(t *testing.T) {
	m := mailer.NewMock()
	e := NewEmail(m, time.Second)
	ctx := context.Background()

	d := Delivery{Task: task(), MentionID: 1, Recipient: Recipient{MemberID: 2, Email: "bob@example.org"}, Content: Content{Subject: "s", Body: "b"}}
	if err := e.Deliver(ctx, d); err != nil {
		t.Fatal(err)
	}

	self := d
	self.Recipient.MemberID = 1
	if err := e.Deliver(ctx, self); !errors.Is(err, ErrSkipped) {
		t.Fatalf("self: %v", err)
	}
	anon := d
	anon.Recipient.MemberID = 0
	if err := e.Deliver(ctx, anon); !errors.Is(err, ErrSkipped) {
		t.Fatalf("anonymous: %v", err)
	}
	noAddr := d
	noAddr.Recipient.Email = ""
	if err := e.Deliver(ctx, noAddr); !errors.Is(err, ErrNoAddress) {
		t.Fatalf("no address: %v", err)
	}

	sent := m.Sent()
	if len(sent) != 1 || sent[0].To != "bob@example.org" || sent[0].Subject != "s" {
		t.Fatalf("sent=%+v", sent)
	}
}

func TestDigest_QueuesWithStableKey(t *testing.T) {
	var queued []*domain.PendingNotification
	store := PendingStoreFunc(func(_ context.Context, p *domain.PendingNotification) (bool, error) {
		queued = append(queued, p)
		return true, nil
	})
	d := Delivery{Task: task(), Recipient: Recipient{MemberID: 2}, Content: Content{Subject: "s", Snippet: "alice mentioned you"}}

	if err := NewWeeklyDigest(store).Deliver(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	if len(queued) != 1 {
		t.Fatalf("queued=%d", len(queued))
	}
	p := queued[0]
	if p.Frequency != "weekly" || p.MemberID != 2 || p.LogTime != 1_700_000_000 || p.Type != domain.MentionMember {
		t.Fatalf("row=%+v", p)
	}
	if len(p.SnippetKey) != 16 || p.SnippetKey != SnippetKey("alice mentioned you") {
		t.Fatalf("key=%q", p.SnippetKey)
	}
}

func TestDigest_KeyScopedToMention(t *testing.T) {
	var queued []*domain.PendingNotification
	store := PendingStoreFunc(func(_ context.Context, p *domain.PendingNotification) (bool, error) {
		queued = append(queued, p)
		return true, nil
	})
	g := NewDailyDigest(store)
	for _, id := range []int64{41, 42, 42} {
		d := Delivery{Task: task(), MentionID: id, Recipient: Recipient{MemberID: 2}, Content: Content{Snippet: "alice mentioned you"}}
		if err := g.Deliver(context.Background(), d); err != nil {
			t.Fatal(err)
		}
	}
	if queued[0].SnippetKey == queued[1].SnippetKey {
		t.Fatal("different mentions share a key")
	}
	if queued[1].SnippetKey != queued[2].SnippetKey {
		t.Fatal("same mention produced two keys")
	}
}

func TestDigest_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	store := PendingStoreFunc(func(context.Context, *domain.PendingNotification) (bool, error) { return false, boom })
	d := Delivery{Task: task(), Recipient: Recipient{MemberID: 2}}
	if err := NewDailyDigest(store).Deliver(context.Background(), d); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}

func TestTemplateRenderer(t *testing.T) {
	r, err := NewTemplateRenderer()
	if err != nil {
		t.Fatal(err)
	}
	data := RenderData{Sender: "alice", Recipient: "bob", Subject: "welcome thread", Link: "https://forum.example.org/t/1"}

	c, err := r.Render(domain.MentionMember, "en-GB", data)
	if err != nil {
		t.Fatal(err)
	}
	if c.Subject != "alice mentioned you" || !strings.Contains(c.Body, "Welcome Thread") || !strings.Contains(c.Body, data.Link) {
		t.Fatalf("content=%+v", c)
	}

	de, _ := r.Render(domain.MentionMember, "de-AT", data)
	if !strings.Contains(de.Subject, "erwähnt") {
		t.Fatalf("german subject=%q", de.Subject)
	}

	// No German buddy template: falls back to English.
	buddy, err := r.Render(domain.MentionBuddy, "de", data)
	if err != nil || !strings.Contains(buddy.Subject, "buddy") {
		t.Fatalf("fallback=%+v err=%v", buddy, err)
	}

	if got := r.Match("xx-unknown"); got != r.Match("en") {
		t.Fatalf("unknown language matched %v", got)
	}
	if _, err := r.Render("poke", "en", data); err == nil {
		t.Fatal("expected error for unknown type")
	}
}
