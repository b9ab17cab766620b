package middleware

import (
	"context"
	"encoding/hex"
	"net/netip"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/tbourn/forum-guard/internal/badbehavior"
	"github.com/tbourn/forum-guard/internal/domain"
)

const (
	// ctxKeyBlockReason carries the reason code of a rejected request.
	ctxKeyBlockReason = "bbReason"
	defaultMaxScreen  = 64 << 10
)

// BlockResponse is the envelope sent for a rejected request. It carries
// the opaque reason code and never the rule that fired.
type BlockResponse struct {
	RequestID  string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code       string `json:"code" example:"blocked"`
	Message    string `json:"message"`
	Reason     string `json:"reason" example:"f9f2b8b9"`
	SupportKey string `json:"support_key" example:"f9f2b8b9-c0a80001"`
}

// BadBehaviorRecorder persists a screened request.
type BadBehaviorRecorder func(ctx context.Context, row *domain.BadBehaviorLog) error

// BadBehaviorOptions configures BadBehavior.
type BadBehaviorOptions struct {
	Classifier *badbehavior.Classifier
	Settings   badbehavior.Settings
	// Record is called for every block, and for every request when Verbose
	// is set. Nil disables request logging.
	Record  BadBehaviorRecorder
	Verbose bool
	// MaxBody caps the POST entity captured for screening.
	MaxBody int64
}

// BadBehavior screens every request with the classifier before routing.
// Blocks abort with the reason's HTTP status and a BlockResponse. Verified
// crawlers are exempted from rate limiting.
func BadBehavior(opts BadBehaviorOptions) gin.HandlerFunc {
	if opts.Classifier == nil {
		opts.Classifier = badbehavior.New()
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = defaultMaxScreen
	}
	return func(c *gin.Context) {
		req, err := badbehavior.FromHTTP(c.Request, c.ClientIP(), opts.MaxBody)
		if err != nil {
			// Unreadable entity: screen on headers alone.
			LoggerFrom(c).Debug().Err(err).Msg("badbehavior: entity not captured")
		}

		v := opts.Classifier.Classify(opts.Settings, req)
		verdicts.WithLabelValues(v.Kind().String(), v.Reason()).Inc()

		if v.IsBlock() || opts.Verbose {
			record(c, opts.Record, req, v)
		}

		if v.IsBlock() {
			e, _ := badbehavior.Explain(v.Reason())
			c.Set(ctxKeyBlockReason, v.Reason())
			LoggerFrom(c).Info().
				Str("bb_reason", v.Reason()).
				Str("bb_rule", v.Rule()).
				Msg("request blocked")
			c.AbortWithStatusJSON(e.Status, BlockResponse{
				RequestID:  RequestIDFrom(c),
				Code:       "blocked",
				Message:    e.Message,
				Reason:     v.Reason(),
				SupportKey: SupportKey(v.Reason(), req.IP()),
			})
			return
		}
		if badbehavior.IsCrawlerAllow(v) {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}
}

func record(c *gin.Context, rec BadBehaviorRecorder, req *badbehavior.Request, v badbehavior.Verdict) {
	if rec == nil {
		return
	}
	reason := v.Reason()
	if reason == "" {
		reason = domain.ReasonAllowed
	}
	mask := maskSet(nil)
	headers := datatypes.JSONMap{}
	for k, val := range req.HeaderMap() {
		if _, masked := mask[strings.ToLower(k)]; masked {
			val = "[REDACTED]"
		}
		headers[k] = val
	}
	row := &domain.BadBehaviorLog{
		IP:             req.IP(),
		Date:           time.Now().UTC(),
		RequestMethod:  req.Method(),
		RequestURI:     req.URI(),
		ServerProtocol: req.Protocol(),
		UserAgent:      req.UserAgent(),
		Headers:        headers,
		Entity:         req.Entity(),
		Reason:         reason,
		Rule:           v.Rule(),
	}
	if err := rec(c.Request.Context(), row); err != nil {
		LoggerFrom(c).Warn().Err(err).Str("bb_reason", reason).Msg("badbehavior: log write failed")
	}
}

// SupportKey joins the reason code with a hex token of the client address
// so operators can find the log row a user reports.
func SupportKey(reason, ip string) string {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return reason
	}
	b := a.Unmap().AsSlice()
	if len(b) > 8 {
		b = b[:8]
	}
	return reason + "-" + hex.EncodeToString(b)
}

// IsBlocked reports whether BadBehavior rejected this request.
func IsBlocked(c *gin.Context) bool {
	_, ok := c.Get(ctxKeyBlockReason)
	return ok
}
