package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/mailer"
	"github.com/tbourn/forum-guard/internal/notify"
	"github.com/tbourn/forum-guard/internal/repo"
	"github.com/tbourn/forum-guard/internal/services"
)

// ---------- test DB + wiring ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	ctx := context.Background()
	for id, name := range map[int64]string{1: "alice", 2: "bob", 3: "carol"} {
		m := &domain.Member{ID: id, Name: name, Email: name + "@example.org", Language: "en"}
		if err := repo.SaveMember(ctx, db, m); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := repo.SetPreferences(ctx, db, repo.DefaultsMemberID, domain.MentionMember, []string{"notification", "email"}); err != nil {
		t.Fatalf("prefs: %v", err)
	}
	return db
}

type testEnv struct {
	db     *gorm.DB
	mail   *mailer.Mock
	router *gin.Engine
}

func newMentionRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newHandlerDB(t)
	m := mailer.NewMock()
	renderer, err := notify.NewTemplateRenderer()
	if err != nil {
		t.Fatal(err)
	}
	ms := &services.MentionService{DB: db, Log: zerolog.Nop()}
	ns := &services.NotificationService{
		DB:       db,
		Mentions: ms,
		Channels: notify.NewRegistry(notify.InApp{}, notify.NewEmail(m, 0)),
		Renderer: renderer,
		Log:      zerolog.Nop(),
	}
	h := New(ms, ns, nil, nil)

	r := gin.New()
	r.POST("/mentions", h.CreateMention)
	r.PUT("/mentions/status", h.UpdateMentionStatus)
	r.POST("/members/:id/mentions/read", h.MarkMentionsRead)
	r.GET("/members/:id/mentions", h.ListMentions)
	r.PUT("/members/:id/preferences/:type", h.SetPreferences)
	return &testEnv{db: db, mail: m, router: r}
}

func (e *testEnv) do(method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

// ---------- tests ----------

func TestCreateMention_NotifiesAndLists(t *testing.T) {
	e := newMentionRouter(t)

	w := e.do(http.MethodPost, "/mentions", CreateMentionRequest{
		Type: "mentionmem", MemberFrom: 1, TargetID: 77, Recipients: []int64{2, 3, 1}, Subject: "hello",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	out := decode[CreateMentionResponse](t, w)
	if len(out.Recipients) != 2 {
		t.Fatalf("recipients=%v", out.Recipients)
	}
	if len(out.Deliveries) != 4 {
		t.Fatalf("deliveries=%+v", out.Deliveries)
	}
	if len(e.mail.Sent()) != 2 {
		t.Fatalf("mails=%d", len(e.mail.Sent()))
	}

	w = e.do(http.MethodGet, "/members/2/mentions", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if !strings.HasPrefix(etag, `W/"mentions:2:false:1:20:1:`) {
		t.Fatalf("etag=%q", etag)
	}
	list := decode[ListMentionsResponse](t, w)
	if len(list.Mentions) != 1 || list.Unread != 1 || list.Pagination.Total != 1 {
		t.Fatalf("list=%+v", list)
	}

	w = e.do(http.MethodGet, "/members/2/mentions", nil, map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("conditional status=%d", w.Code)
	}
}

func TestCreateMention_Validation(t *testing.T) {
	e := newMentionRouter(t)

	cases := []struct {
		name string
		body any
		code string
	}{
		{"bad json", "nope", ErrCodeBadRequest},
		{"missing target", map[string]any{"type": "mentionmem", "member_from": 1}, ErrCodeBadRequest},
		{"unknown type", CreateMentionRequest{Type: "poke", MemberFrom: 1, TargetID: 1, Recipients: []int64{2}}, ErrCodeInvalidType},
		{"bad status", CreateMentionRequest{Type: "mentionmem", MemberFrom: 1, TargetID: 1, Status: "gone", Recipients: []int64{2}}, ErrCodeInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPost, "/mentions", tc.body, nil)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
			}
			if got := decode[ErrorResponse](t, w); got.Code != tc.code {
				t.Fatalf("code=%q want %q", got.Code, tc.code)
			}
		})
	}
}

func TestUpdateMentionStatus(t *testing.T) {
	e := newMentionRouter(t)
	if w := e.do(http.MethodPost, "/mentions", CreateMentionRequest{Type: "mentionmem", MemberFrom: 1, TargetID: 5, Recipients: []int64{2}}, nil); w.Code != http.StatusCreated {
		t.Fatalf("create=%d", w.Code)
	}
	m, err := repo.FindMention(context.Background(), e.db, domain.MentionMember, 5, 1, 2)
	if err != nil {
		t.Fatal(err)
	}

	w := e.do(http.MethodPut, "/mentions/status", UpdateStatusRequest{IDs: []int64{m.ID}, Status: "read"}, nil)
	if w.Code != http.StatusOK || !decode[UpdateStatusResponse](t, w).Updated {
		t.Fatalf("read: %d %s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodPut, "/mentions/status", UpdateStatusRequest{IDs: []int64{m.ID}, Status: "archived"}, nil)
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeInvalidStatus {
		t.Fatalf("invalid: %d %s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodPut, "/mentions/status", map[string]any{"status": "read"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing ids: %d", w.Code)
	}
}

func TestMarkMentionsRead(t *testing.T) {
	e := newMentionRouter(t)
	for _, target := range []int64{1, 2} {
		e.do(http.MethodPost, "/mentions", CreateMentionRequest{Type: "mentionmem", MemberFrom: 1, TargetID: target, Recipients: []int64{3}}, nil)
	}

	w := e.do(http.MethodPost, "/members/3/mentions/read", nil, nil)
	if w.Code != http.StatusOK || decode[MarkReadResponse](t, w).Updated != 2 {
		t.Fatalf("mark: %d %s", w.Code, w.Body.String())
	}
	if w := e.do(http.MethodPost, "/members/99/mentions/read", nil, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown member=%d", w.Code)
	}
	if w := e.do(http.MethodPost, "/members/abc/mentions/read", nil, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id=%d", w.Code)
	}

	w = e.do(http.MethodGet, "/members/3/mentions?include_read=true&page_size=1", nil, nil)
	list := decode[ListMentionsResponse](t, w)
	if list.Unread != 0 || len(list.Mentions) != 1 || list.Pagination.TotalPages != 2 || !list.Pagination.HasNext {
		t.Fatalf("list=%+v", list)
	}
}

func TestSetPreferences(t *testing.T) {
	e := newMentionRouter(t)

	if w := e.do(http.MethodPut, "/members/2/preferences/mentionmem", SetPreferencesRequest{Channels: []string{}}, nil); w.Code != http.StatusNoContent {
		t.Fatalf("disable=%d %s", w.Code, w.Body.String())
	}
	w := e.do(http.MethodPost, "/mentions", CreateMentionRequest{Type: "mentionmem", MemberFrom: 1, TargetID: 9, Recipients: []int64{2}}, nil)
	if got := decode[CreateMentionResponse](t, w); len(got.Recipients) != 0 {
		t.Fatalf("opted-out member notified: %+v", got)
	}

	if w := e.do(http.MethodPut, "/members/0/preferences/likemsg", SetPreferencesRequest{Channels: []string{"notification"}}, nil); w.Code != http.StatusNoContent {
		t.Fatalf("defaults=%d", w.Code)
	}
	w = e.do(http.MethodPut, "/members/2/preferences/mentionmem", SetPreferencesRequest{Channels: []string{"pigeon"}}, nil)
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeInvalidChannel {
		t.Fatalf("channel: %d %s", w.Code, w.Body.String())
	}
	w = e.do(http.MethodPut, "/members/2/preferences/poke", SetPreferencesRequest{}, nil)
	if w.Code != http.StatusBadRequest || decode[ErrorResponse](t, w).Code != ErrCodeInvalidType {
		t.Fatalf("type: %d %s", w.Code, w.Body.String())
	}
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, domain.Task) (*services.Report, error) {
	return nil, errors.New("database is locked")
}

func TestCreateMention_InternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, failingNotifier{}, nil, nil)
	r := gin.New()
	r.POST("/mentions", h.CreateMention)
	e := &testEnv{router: r}

	w := e.do(http.MethodPost, "/mentions", CreateMentionRequest{Type: "mentionmem", MemberFrom: 1, TargetID: 1}, nil)
	if w.Code != http.StatusInternalServerError || decode[ErrorResponse](t, w).Code != ErrCodeCreateFailed {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestClampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		q        string
		page, ps int
	}{
		{"", 1, 20},
		{"page=0&page_size=0", 1, 1},
		{"page=3&page_size=500", 3, 100},
		{"page=x&page_size=y", 1, 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+tc.q, nil)
		p, ps := clampPagination(c)
		if p != tc.page || ps != tc.ps {
			t.Fatalf("%q: got (%d,%d) want (%d,%d)", tc.q, p, ps, tc.page, tc.ps)
		}
	}
}
