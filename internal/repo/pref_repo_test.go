package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/forum-guard/internal/domain"
)

func TestLoadPreferences_DefaultsAndOverrides(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()

	if err := SetPreferences(ctx, db, DefaultsMemberID, domain.MentionMember, []string{"notification"}); err != nil {
		t.Fatal(err)
	}
	if err := SetPreferences(ctx, db, 3, domain.MentionMember, []string{"notification", "email"}); err != nil {
		t.Fatal(err)
	}
	// Explicitly off.
	if err := SetPreferences(ctx, db, 4, domain.MentionMember, nil); err != nil {
		t.Fatal(err)
	}

	got, err := LoadPreferences(ctx, db, []int64{2, 3, 4}, domain.MentionMember)
	if err != nil {
		t.Fatal(err)
	}
	if len(got[2]) != 1 || got[2][0] != "notification" {
		t.Fatalf("member 2 should inherit defaults: %v", got[2])
	}
	if len(got[3]) != 2 || got[3][1] != "email" {
		t.Fatalf("member 3 own prefs: %v", got[3])
	}
	if chs, ok := got[4]; !ok || len(chs) != 0 {
		t.Fatalf("member 4 should be explicitly empty: %v ok=%v", chs, ok)
	}

	// Other types have no defaults.
	other, _ := LoadPreferences(ctx, db, []int64{2}, domain.MentionBuddy)
	if _, ok := other[2]; ok {
		t.Fatalf("unexpected prefs for buddy: %v", other)
	}
}

func TestSetPreferences_Replaces(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()
	_ = SetPreferences(ctx, db, 3, domain.MentionLike, []string{"email"})
	_ = SetPreferences(ctx, db, 3, domain.MentionLike, []string{"emailweekly"})

	var n int64
	db.Model(&domain.NotificationPref{}).Where("id_member = ?", 3).Count(&n)
	if n != 1 {
		t.Fatalf("rows=%d", n)
	}
	got, _ := LoadPreferences(ctx, db, []int64{3}, domain.MentionLike)
	if len(got[3]) != 1 || got[3][0] != "emailweekly" {
		t.Fatalf("prefs=%v", got[3])
	}
}

func TestQueuePending_InsertIgnore(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()
	p := domain.PendingNotification{Type: domain.MentionMember, MemberID: 2, LogTime: 1700000000, Frequency: "daily", SnippetKey: "00000000deadbeef", Snippet: "x"}

	a := p
	ok, err := QueuePending(ctx, db, &a)
	if err != nil || !ok {
		t.Fatalf("first: ok=%v err=%v", ok, err)
	}
	b := p
	ok, err = QueuePending(ctx, db, &b)
	if err != nil || ok {
		t.Fatalf("duplicate: ok=%v err=%v", ok, err)
	}
	c := p
	c.Frequency = "weekly"
	if ok, _ := QueuePending(ctx, db, &c); !ok {
		t.Fatal("different frequency should insert")
	}

	daily, err := ListPending(ctx, db, "daily", 0)
	if err != nil || len(daily) != 1 {
		t.Fatalf("daily=%d err=%v", len(daily), err)
	}
}

func TestBadBehaviorLog_Prune(t *testing.T) {
	db := newTestDB(t, allModels()...)
	ctx := context.Background()
	now := time.Now().UTC()
	for _, age := range []time.Duration{0, 24 * time.Hour, 10 * 24 * time.Hour} {
		row := &domain.BadBehaviorLog{IP: "192.0.2.1", Date: now.Add(-age), RequestMethod: "GET", RequestURI: "/", ServerProtocol: "HTTP/1.1", Reason: "17f4e8c8"}
		if err := InsertBadBehaviorLog(ctx, db, row); err != nil {
			t.Fatal(err)
		}
	}
	n, err := PruneBadBehaviorLog(ctx, db, now.Add(-7*24*time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("pruned=%d err=%v", n, err)
	}
	rest, _ := RecentBadBehavior(ctx, db, "17f4e8c8", 10)
	if len(rest) != 2 {
		t.Fatalf("remaining=%d", len(rest))
	}
}

func TestGetMember_NotFound(t *testing.T) {
	db := newTestDB(t, allModels()...)
	if _, err := GetMember(context.Background(), db, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestWithRetry_RetriesBusyOnly(t *testing.T) {
	ctx := context.Background()
	calls := 0
	err := withRetry(ctx, func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("busy: calls=%d err=%v", calls, err)
	}

	calls = 0
	boom := errors.New("no such table: members")
	err = withRetry(ctx, func() error { calls++; return boom })
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("non-busy: calls=%d err=%v", calls, err)
	}
}
