// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// request screening, rate limiting, CORS and security headers.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger
//  4. Recovery
//  5. Body size limit
//  6. Metrics (+ /metrics)
//  7. BadBehavior screening
//  8. Rate limiter by member (via trusted proxies) or IP; verified crawlers bypass
//  9. CORS and security headers
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/forum-guard/docs"
	"github.com/tbourn/forum-guard/internal/badbehavior"
	"github.com/tbourn/forum-guard/internal/cache"
	"github.com/tbourn/forum-guard/internal/config"
	"github.com/tbourn/forum-guard/internal/domain"
	"github.com/tbourn/forum-guard/internal/http/handlers"
	"github.com/tbourn/forum-guard/internal/http/middleware"
	"github.com/tbourn/forum-guard/internal/mailer"
	"github.com/tbourn/forum-guard/internal/notify"
	"github.com/tbourn/forum-guard/internal/repo"
	"github.com/tbourn/forum-guard/internal/services"
	"github.com/tbourn/forum-guard/internal/utils"
)

// headerMemberID lets a fronting forum identify the acting member for rate
// limiting. It is not an authentication mechanism and is ignored unless the
// request arrives through a trusted proxy.
const headerMemberID = "X-Member-ID"

// RegisterRoutes attaches all middleware and HTTP endpoints to r. kv backs
// the crawler verification and preference caches and may be nil; mail
// delivers immediate notification emails.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, kv cache.Cache, mail mailer.Provider, cfg config.Config) error {
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}
	trusted, err := parseTrusted(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	classifier, settings, err := buildClassifier(kv, cfg.BadBehavior)
	if err != nil {
		return err
	}
	enabled, err := services.EnabledTypes(cfg.MentionTypes)
	if err != nil {
		return err
	}

	// Dependency injection: services ← repo/db/cache/mailer
	bbSvc := &services.BadBehaviorService{
		DB:        db,
		Retention: cfg.BadBehavior.LogRetention,
		Log:       log.With().Str("component", "badbehavior").Logger(),
	}
	mentionSvc := &services.MentionService{
		DB:       db,
		Enabled:  enabled,
		Cache:    kv,
		CacheTTL: cfg.Cache.PrefTTL,
		Log:      log.With().Str("component", "mentions").Logger(),
	}
	renderer, err := notify.NewTemplateRenderer()
	if err != nil {
		return err
	}
	pending := notify.PendingStoreFunc(func(ctx context.Context, p *domain.PendingNotification) (bool, error) {
		return repo.QueuePending(ctx, db, p)
	})
	notifySvc := &services.NotificationService{
		DB:       db,
		Mentions: mentionSvc,
		Channels: notify.NewRegistry(
			notify.InApp{},
			notify.NewEmail(mail, cfg.Mail.Timeout),
			notify.NewDailyDigest(pending),
			notify.NewWeeklyDigest(pending),
		),
		Renderer: renderer,
		Log:      log.With().Str("component", "notifications").Logger(),
	}

	var (
		recorder middleware.BadBehaviorRecorder
		bbLog    handlers.BadBehaviorLog
	)
	if cfg.BadBehavior.Logging {
		recorder = bbSvc.Record
		bbLog = bbSvc
	}
	h := handlers.New(mentionSvc, notifySvc, bbLog, classifier)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key", headerMemberID},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Request screening
	if cfg.BadBehavior.Enabled {
		r.Use(middleware.BadBehavior(middleware.BadBehaviorOptions{
			Classifier: classifier,
			Settings:   settings,
			Record:     recorder,
			Verbose:    cfg.BadBehavior.Verbose,
			MaxBody:    cfg.BadBehavior.MaxScreenedBytes,
		}))
	}

	// 8) Token-bucket rate limiter per member/IP
	r.Use(memberIdentity(trusted))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByMemberOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		// Mentions
		api.POST("/mentions", h.CreateMention)
		api.PUT("/mentions/status", h.UpdateMentionStatus)
		api.GET("/members/:id/mentions", h.ListMentions)
		api.POST("/members/:id/mentions/read", h.MarkMentionsRead)
		api.PUT("/members/:id/preferences/:type", h.SetPreferences)

		// Screening audit
		api.GET("/badbehavior/reasons", h.ListReasons)
		api.GET("/badbehavior/reasons/:code", h.GetReason)
		api.GET("/badbehavior/rules", h.ListRules)
		api.GET("/badbehavior/log", h.ListBadBehaviorLog)
	}
	return nil
}

// buildClassifier assembles the classifier and its per-request settings.
// Claimed crawlers outside the published address blocks are checked with
// reverse/forward DNS when enabled.
func buildClassifier(kv cache.Cache, bb config.BadBehaviorConfig) (*badbehavior.Classifier, badbehavior.Settings, error) {
	wl, err := badbehavior.ParseWhitelist(bb.WhitelistIPs, bb.WhitelistAgents, bb.WhitelistURLs)
	if err != nil {
		return nil, badbehavior.Settings{}, err
	}
	sigs, err := badbehavior.LoadSignatures(bb.SignaturesFile)
	if err != nil {
		return nil, badbehavior.Settings{}, err
	}
	opts := []badbehavior.Option{badbehavior.WithSignatures(sigs)}
	if bb.CrawlerDNS {
		vopts := []badbehavior.DNSOption{
			badbehavior.WithVerifierLogger(log.With().Str("component", "crawler-verifier").Logger()),
		}
		if kv != nil {
			vopts = append(vopts, badbehavior.WithCache(kv, bb.CrawlerCacheTTL))
		}
		opts = append(opts, badbehavior.WithVerifier(badbehavior.NewDNSVerifier(bb.CrawlerTimeout, vopts...)))
	}
	settings := badbehavior.Settings{
		Strict:       bb.Strict,
		OffsiteForms: bb.OffsiteForms,
		Whitelist:    wl,
	}
	return badbehavior.New(opts...), settings, nil
}

// memberIdentity copies a numeric X-Member-ID header into the context key
// the rate limiter buckets by. The header is only honoured when the direct
// peer is one of the trusted proxies, i.e. the fronting forum; anyone else
// is bucketed by address.
func memberIdentity(trusted []netip.Prefix) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.GetHeader(headerMemberID); v != "" && fromTrusted(trusted, c.RemoteIP()) {
			if id, ok := utils.MemberID(v, false); ok {
				c.Set("memberID", strconv.FormatInt(id, 10))
			}
		}
		c.Next()
	}
}

func fromTrusted(trusted []netip.Prefix, remote string) bool {
	a, err := netip.ParseAddr(remote)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// parseTrusted turns the TRUSTED_PROXIES entries (addresses or CIDRs) into
// prefixes.
func parseTrusted(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxies: %q: %w", e, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

// corsMiddleware allows every origin when none are configured and echoes
// allow-listed origins otherwise.
func corsMiddleware(cfg config.CORSConfig) []gin.HandlerFunc {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", headerMemberID}
	expose := []string{"X-Request-ID", "Content-Length", "ETag"}
	methods := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

	if len(cfg.AllowedOrigins) == 0 {
		return []gin.HandlerFunc{
			// ACAO: * even without an Origin header (health checks, curl).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     allowHeaders,
				ExposeHeaders:    expose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     methods,
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    expose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader;
// reads past the cap fail downstream. A non-positive cap disables it.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
