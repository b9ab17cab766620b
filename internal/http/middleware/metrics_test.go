package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/forum-guard/internal/badbehavior"
)

func TestMetrics_RouteLabelsAndScreening(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(), BadBehavior(BadBehaviorOptions{}))
	r.GET("/members/:id/mentions", func(c *gin.Context) { c.String(http.StatusOK, "[]") })
	r.POST("/mentions", func(c *gin.Context) { c.Status(http.StatusCreated) })

	listed := httpReqs.WithLabelValues("GET", "/members/:id/mentions", "200")
	blocked := httpReqs.WithLabelValues("POST", "/mentions", "403")
	unknown := httpReqs.WithLabelValues("GET", "/members", "404")
	noUA := verdicts.WithLabelValues(badbehavior.Block(badbehavior.ReasonUserAgentMissing).Kind().String(), badbehavior.ReasonUserAgentMissing)
	baseListed, baseBlocked, baseUnknown, baseNoUA := testutil.ToFloat64(listed), testutil.ToFloat64(blocked), testutil.ToFloat64(unknown), testutil.ToFloat64(noUA)

	for _, id := range []string{"2", "3"} {
		if w := serveMetrics(r, browserGet("/members/"+id+"/mentions")); w.Code != http.StatusOK {
			t.Fatalf("list %s: %d", id, w.Code)
		}
	}
	post := httptest.NewRequest(http.MethodPost, "/mentions", nil)
	post.RemoteAddr = "192.0.2.10:5555"
	if w := serveMetrics(r, post); w.Code != http.StatusForbidden {
		t.Fatalf("POST without agent: %d", w.Code)
	}
	if w := serveMetrics(r, browserGet("/members")); w.Code != http.StatusNotFound {
		t.Fatalf("unknown route: %d", w.Code)
	}

	// Member ids collapse into the route template.
	if got := testutil.ToFloat64(listed); got != baseListed+2 {
		t.Fatalf("list counter=%v want %v", got, baseListed+2)
	}
	if got := testutil.ToFloat64(blocked); got != baseBlocked+1 {
		t.Fatalf("blocked counter=%v want %v", got, baseBlocked+1)
	}
	if got := testutil.ToFloat64(unknown); got != baseUnknown+1 {
		t.Fatalf("unmatched path counter=%v want %v", got, baseUnknown+1)
	}
	if got := testutil.ToFloat64(noUA); got != baseNoUA+1 {
		t.Fatalf("verdict counter=%v want %v", got, baseNoUA+1)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight=%v", inFlight)
	}
}

func serveMetrics(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
