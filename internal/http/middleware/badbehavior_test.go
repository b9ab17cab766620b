package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/forum-guard/internal/badbehavior"
	"github.com/tbourn/forum-guard/internal/domain"
)

type recorded struct {
	mu   sync.Mutex
	rows []*domain.BadBehaviorLog
	err  error
}

func (r *recorded) record(_ context.Context, row *domain.BadBehaviorLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, row)
	return r.err
}

func screenedRouter(opts BadBehaviorOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), BadBehavior(opts))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"bypass": IsRateBypass(c)})
	}
	r.GET("/", handler)
	r.POST("/post", handler)
	return r
}

func browserGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0")
	req.Header.Set("Accept", "text/html")
	return req
}

func TestBadBehavior_BlocksWithEnvelope(t *testing.T) {
	rec := &recorded{}
	r := screenedRouter(BadBehaviorOptions{Record: rec.record})

	req := httptest.NewRequest(http.MethodPost, "/post", strings.NewReader("a=1"))
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer secret")

	before := testutil.ToFloat64(verdicts.WithLabelValues("block", badbehavior.ReasonUserAgentMissing))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d", w.Code)
	}
	var body BlockResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Code != "blocked" || body.Reason != badbehavior.ReasonUserAgentMissing || body.RequestID == "" {
		t.Fatalf("body = %+v", body)
	}
	if body.SupportKey != badbehavior.ReasonUserAgentMissing+"-c000020a" {
		t.Fatalf("support key = %q", body.SupportKey)
	}
	if strings.Contains(w.Body.String(), "generic.") {
		t.Fatal("rule name leaked to client")
	}
	if testutil.ToFloat64(verdicts.WithLabelValues("block", badbehavior.ReasonUserAgentMissing)) != before+1 {
		t.Fatal("verdict counter not incremented")
	}

	if len(rec.rows) != 1 {
		t.Fatalf("rows = %d", len(rec.rows))
	}
	row := rec.rows[0]
	if row.Reason != badbehavior.ReasonUserAgentMissing || row.IP != "192.0.2.10" || row.RequestMethod != http.MethodPost || row.Entity != "a=1" || row.Rule == "" {
		t.Fatalf("row = %+v", row)
	}
	if row.Headers["Authorization"] != "[REDACTED]" {
		t.Fatalf("authorization logged: %v", row.Headers["Authorization"])
	}
}

func TestBadBehavior_AllowsBrowserAndLogsOnlyWhenVerbose(t *testing.T) {
	rec := &recorded{}
	r := screenedRouter(BadBehaviorOptions{Record: rec.record})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, browserGet("/"))
	if w.Code != http.StatusOK || len(rec.rows) != 0 {
		t.Fatalf("status=%d rows=%d", w.Code, len(rec.rows))
	}

	verbose := &recorded{}
	r = screenedRouter(BadBehaviorOptions{Record: verbose.record, Verbose: true})
	r.ServeHTTP(httptest.NewRecorder(), browserGet("/"))
	if len(verbose.rows) != 1 || verbose.rows[0].Reason != domain.ReasonAllowed {
		t.Fatalf("verbose rows = %+v", verbose.rows)
	}
}

func TestBadBehavior_RecorderErrorDoesNotChangeDecision(t *testing.T) {
	rec := &recorded{err: errors.New("db down")}
	r := screenedRouter(BadBehaviorOptions{Record: rec.record, Verbose: true})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, browserGet("/"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestBadBehavior_VerifiedCrawlerBypassesRateLimit(t *testing.T) {
	r := screenedRouter(BadBehaviorOptions{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "66.249.64.5:4000"
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"bypass":true`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, browserGet("/"))
	if !strings.Contains(w.Body.String(), `"bypass":false`) {
		t.Fatalf("browser bypassed: %s", w.Body.String())
	}
}

func TestBadBehavior_PostBodyStillReadable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BadBehavior(BadBehaviorOptions{}))
	r.POST("/echo", func(c *gin.Context) {
		var in struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.String(http.StatusOK, in.Name)
	})
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":"bob"}`))
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "forum-client/1.0")
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "bob" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestSupportKey(t *testing.T) {
	if got := SupportKey("17f4e8c8", "10.0.0.1"); got != "17f4e8c8-0a000001" {
		t.Fatalf("ipv4 = %q", got)
	}
	if got := SupportKey("17f4e8c8", "2001:db8::1"); got != "17f4e8c8-20010db800000000" {
		t.Fatalf("ipv6 = %q", got)
	}
	if got := SupportKey("17f4e8c8", "bogus"); got != "17f4e8c8" {
		t.Fatalf("bogus = %q", got)
	}
}

func TestBadBehavior_ScreensWhenBodyUnreadable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 10)
		c.Next()
	})
	r.Use(RequestID(), BadBehavior(BadBehaviorOptions{}))
	r.POST("/post", func(c *gin.Context) { c.String(http.StatusOK, "reached handler") })

	for _, body := range []string{"a=123", strings.Repeat("a", 16)} {
		req := httptest.NewRequest(http.MethodPost, "/post", strings.NewReader(body))
		req.RemoteAddr = "192.0.2.10:5555"
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Fatalf("body %d bytes: status=%d body=%s", len(body), w.Code, w.Body.String())
		}
		var resp BlockResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Reason != badbehavior.ReasonUserAgentMissing {
			t.Fatalf("body %d bytes: reason=%q", len(body), resp.Reason)
		}
	}
}
