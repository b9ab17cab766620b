package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/forum-guard/internal/cache"
	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var names = map[int64]string{1: "alice", 2: "bob", 3: "carol", 4: "dave"}

func seed(t *testing.T, db *gorm.DB, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		m := &domain.Member{ID: id, Name: names[id], Email: names[id] + "@example.org", Language: "en"}
		if err := repo.SaveMember(context.Background(), db, m); err != nil {
			t.Fatalf("seed member %d: %v", id, err)
		}
	}
}

func setPrefs(t *testing.T, db *gorm.DB, member int64, mt domain.MentionType, chs ...string) {
	t.Helper()
	if err := repo.SetPreferences(context.Background(), db, member, mt, chs); err != nil {
		t.Fatalf("set prefs: %v", err)
	}
}

func newMentionSvc(db *gorm.DB) *MentionService {
	return &MentionService{DB: db, Log: zerolog.Nop()}
}

func mentionTask(recipients ...int64) domain.Task {
	return domain.Task{
		Type:       domain.MentionMember,
		MemberFrom: 1,
		TargetID:   500,
		Time:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Recipients: recipients,
		Subject:    "release notes",
		Link:       "https://forum.example.org/msg/500",
	}
}

func countRows(t *testing.T, db *gorm.DB, member int64) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&domain.Mention{}).Where("id_member = ?", member).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func unreadOf(t *testing.T, db *gorm.DB, member int64) int {
	t.Helper()
	n, err := repo.UnreadMentions(context.Background(), db, member)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	return n
}

// ---------- Candidates ----------

func TestCandidates_SelfAnonymousAndDuplicatesRemoved(t *testing.T) {
	cases := []struct {
		from int64
		in   []int64
		want []int64
	}{
		{1, []int64{1, 2, 0}, []int64{2}},
		{1, []int64{0, 0, 1, 1}, []int64{}},
		{7, []int64{3, 2, 3, 7, 2, 4}, []int64{3, 2, 4}},
		{1, nil, []int64{}},
	}
	for _, c := range cases {
		got := Candidates(domain.Task{MemberFrom: c.from, Recipients: c.in})
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("Candidates(from=%d, %v) = %v, want %v", c.from, c.in, got, c.want)
		}
	}
}

// ---------- Create / Resolve ----------

func TestCreate_ExcludesActorAndAnonymous(t *testing.T) {
	db := newSvcDB(t)
	seed(t, db, 1, 2)
	setPrefs(t, db, repo.DefaultsMemberID, domain.MentionMember, "notification")
	s := newMentionSvc(db)

	ids, err := s.Create(context.Background(), mentionTask(1, 2, 0))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{2}) {
		t.Fatalf("ids=%v", ids)
	}
	if countRows(t, db, 1) != 0 || countRows(t, db, 0) != 0 {
		t.Fatal("row written for actor or anonymous")
	}
}

func TestResolve_TwiceWritesOneRowAndCountsOnce(t *testing.T) {
	db := newSvcDB(t)
	seed(t, db, 1, 2)
	setPrefs(t, db, repo.DefaultsMemberID, domain.MentionMember, "notification")
	s := newMentionSvc(db)
	ctx := context.Background()

	first, err := s.Resolve(ctx, mentionTask(2))
	if err != nil || len(first) != 1 || !first[0].Fresh {
		t.Fatalf("first resolve: %+v err=%v", first, err)
	}
	second, err := s.Resolve(ctx, mentionTask(2))
	if err != nil || len(second) != 1 || second[0].Fresh {
		t.Fatalf("second resolve: %+v err=%v", second, err)
	}
	if first[0].MentionID != second[0].MentionID {
		t.Fatalf("different rows: %d vs %d", first[0].MentionID, second[0].MentionID)
	}
	if n := countRows(t, db, 2); n != 1 {
		t.Fatalf("rows=%d", n)
	}
	if n := unreadOf(t, db, 2); n != 1 {
		t.Fatalf("unread=%d", n)
	}
}

func TestResolve_RecipientWithoutChannelsDropped(t *testing.T) {
	db := newSvcDB(t)
	seed(t, db, 1, 2, 3, 4)
	setPrefs(t, db, repo.DefaultsMemberID, domain.MentionMember, "notification", "email")
	setPrefs(t, db, 3, domain.MentionMember) // explicitly off
	setPrefs(t, db, 4, domain.MentionMember, "emaildaily", "bogus", "emaildaily")
	s := newMentionSvc(db)

	got, err := s.Resolve(context.Background(), mentionTask(2, 3, 4))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 2 || got[0].MemberID != 2 || got[1].MemberID != 4 {
		t.Fatalf("resolved=%+v", got)
	}
	if !reflect.DeepEqual(got[0].Channels, []domain.Channel{domain.ChannelNotification, domain.ChannelEmail}) {
		t.Fatalf("defaults channels=%v", got[0].Channels)
	}
	if !reflect.DeepEqual(got[1].Channels, []domain.Channel{domain.ChannelEmailDaily}) {
		t.Fatalf("own channels=%v", got[1].Channels)
	}
	if countRows(t, db, 3) != 0 || unreadOf(t, db, 3) != 0 {
		t.Fatal("dropped recipient got a row")
	}
}

func TestResolve_NoPreferencesAnywhereIsEmpty(t *testing.T) {
	db := newSvcDB(t)
	seed(t, db, 1, 2)
	got, err := newMentionSvc(db).Resolve(context.Background(), mentionTask(2))
	if err != nil || len(got) != 0 {
		t.Fatalf("got=%+v err=%v", got, err)
	}
}

func TestResolve_DisabledTypeIsEmpty(t *testing.T) {
	db := newSvcDB(t)
	seed(t, db, 1, 2)
	setPrefs(t, db, repo.DefaultsMemberID, domain.MentionMember, "notification")
	s := newMentionSvc(db)
	enabled, err := EnabledTypes([]string{"likemsg"})
	if err != nil {
		t.Fatal(err)
	}
	s.Enabled = enabled

	got, err := s.Resolve(context.Background(), mentionTask(2))
	if err != nil || len(got) != 0 {
		t.Fatalf("got=%+v err=%v", got, err)
	}
}

func TestResolve_BrokenTasks(t *testing.T) {
	s := newMentionSvc(newSvcDB(t))
	ctx := context.Background()

	if _, err := s.Resolve(ctx, domain.Task{MemberFrom: 1, Recipients: []int64{2}}); !errors.Is(err, ErrMissingTask) {
		t.Fatalf("missing: %v", err)
	}
	bad := mentionTask(2)
	bad.Type = "poke"
	if _, err := s.Resolve(ctx, bad); !errors.Is(err, ErrUnknownMentionType) {
		t.Fatalf("unknown type: %v", err)
	}
	bad = mentionTask(2)
	bad.Status = "archived"
	if _, err := s.Resolve(ctx, bad); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("status: %v", err)
	}
}

func TestEnabledTypes(t *testing.T) {
	if m, err := EnabledTypes(nil); m != nil || err != nil {
		t.Fatalf("empty list: %v %v", m, err)
	}
	if _, err := EnabledTypes([]string{"mentionmem", "poke"}); !errors.Is(err, ErrUnknownMentionType) {
		t.Fatalf("expected ErrUnknownMentionType, got %v", err)
	}
}

// ---------- UpdateStatus ----------

func TestUpdateStatus_Transitions(t *testing.T) {
	db := newSvcDB(t)
	seed(t, db, 1, 2)
	setPrefs(t, db, repo.DefaultsMemberID, domain.MentionMember, "notification")
	s := newMentionSvc(db)
	ctx := context.Background()

	res, err := s.Resolve(ctx, mentionTask(2))
	if err != nil {
		t.Fatal(err)
	}
	id := res[0].MentionID

	if _, err := s.UpdateStatus(ctx, []int64{id}, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	ok, err := s.UpdateStatus(ctx, []int64{id}, "read")
	if err != nil || !ok {
		t.Fatalf("read: ok=%v err=%v", ok, err)
	}
	if n := unreadOf(t, db, 2); n != 0 {
		t.Fatalf("unread after read=%d", n)
	}

	ok, err = s.UpdateStatus(ctx, []int64{id}, "deleted")
	if err != nil || !ok {
		t.Fatalf("deleted: ok=%v err=%v", ok, err)
	}

	// Deleted is terminal.
	ok, err = s.UpdateStatus(ctx, []int64{id}, "new")
	if err != nil || ok {
		t.Fatalf("revive deleted: ok=%v err=%v", ok, err)
	}
	if n := unreadOf(t, db, 2); n != 0 {
		t.Fatalf("unread after revive attempt=%d", n)
	}

	// Resolving again finds the deleted row and does not recreate it.
	ids, err := s.Create(ctx, mentionTask(2))
	if err != nil || len(ids) != 0 {
		t.Fatalf("create after delete: ids=%v err=%v", ids, err)
	}
}

// ---------- MarkAllRead / ListPage ----------

func TestMarkAllReadAndListPage(t *testing.T) {
	db := newSvcDB(t)
	seed(t, db, 1, 2)
	setPrefs(t, db, repo.DefaultsMemberID, domain.MentionMember, "notification")
	s := newMentionSvc(db)
	ctx := context.Background()

	for target := int64(1); target <= 3; target++ {
		task := mentionTask(2)
		task.TargetID = target
		if _, err := s.Resolve(ctx, task); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := s.Unread(ctx, 2); n != 3 {
		t.Fatalf("unread=%d", n)
	}

	items, total, err := s.ListPage(ctx, 2, false, 1, 2)
	if err != nil || total != 3 || len(items) != 2 {
		t.Fatalf("page1: items=%d total=%d err=%v", len(items), total, err)
	}

	n, err := s.MarkAllRead(ctx, 2)
	if err != nil || n != 3 {
		t.Fatalf("MarkAllRead: n=%d err=%v", n, err)
	}
	if n, _ := s.Unread(ctx, 2); n != 0 {
		t.Fatalf("unread after mark=%d", n)
	}
	if _, total, _ := s.ListPage(ctx, 2, false, 1, 10); total != 0 {
		t.Fatalf("unread list total=%d", total)
	}
	if _, total, _ := s.ListPage(ctx, 2, true, 1, 10); total != 3 {
		t.Fatalf("full list total=%d", total)
	}

	if _, _, err := s.ListPage(ctx, 99, true, 1, 10); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("unknown member: %v", err)
	}
	if _, err := s.MarkAllRead(ctx, 99); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("unknown member mark: %v", err)
	}
}

// ---------- preferences ----------

func TestSetPreferences_Validation(t *testing.T) {
	s := newMentionSvc(newSvcDB(t))
	ctx := context.Background()
	if err := s.SetPreferences(ctx, 2, "poke", nil); !errors.Is(err, ErrUnknownMentionType) {
		t.Fatalf("type: %v", err)
	}
	if err := s.SetPreferences(ctx, 2, domain.MentionMember, []string{"sms"}); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("channel: %v", err)
	}
}

func TestPreferenceCache_InvalidatedOnWrite(t *testing.T) {
	db := newSvcDB(t)
	seed(t, db, 1, 2, 3)
	s := newMentionSvc(db)
	s.Cache = cache.NewMemory(0)
	ctx := context.Background()

	if err := s.SetPreferences(ctx, repo.DefaultsMemberID, domain.MentionMember, []string{"notification"}); err != nil {
		t.Fatal(err)
	}
	task := mentionTask(2, 3)
	got, err := s.Resolve(ctx, task)
	if err != nil || len(got) != 2 {
		t.Fatalf("warm: %+v err=%v", got, err)
	}

	// Member override evicts only that member's entry.
	if err := s.SetPreferences(ctx, 2, domain.MentionMember, nil); err != nil {
		t.Fatal(err)
	}
	task.TargetID++
	got, err = s.Resolve(ctx, task)
	if err != nil || len(got) != 1 || got[0].MemberID != 3 {
		t.Fatalf("after member override: %+v err=%v", got, err)
	}

	// A defaults change reaches every member without an own row.
	if err := s.SetPreferences(ctx, repo.DefaultsMemberID, domain.MentionMember, []string{"email"}); err != nil {
		t.Fatal(err)
	}
	task.TargetID++
	got, err = s.Resolve(ctx, task)
	if err != nil || len(got) != 1 || !reflect.DeepEqual(got[0].Channels, []domain.Channel{domain.ChannelEmail}) {
		t.Fatalf("after defaults change: %+v err=%v", got, err)
	}
}
