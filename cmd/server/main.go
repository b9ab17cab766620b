// Command server runs the forum-guard HTTP service: request screening in
// front of the mention and notification API.
//
// @title       forum-guard API
// @version     1.0
// @description Request screening and mention notifications for a forum backend.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/forum-guard/internal/cache"
	"github.com/tbourn/forum-guard/internal/config"
	httpapi "github.com/tbourn/forum-guard/internal/http"
	"github.com/tbourn/forum-guard/internal/mailer"
	"github.com/tbourn/forum-guard/internal/observability"
	"github.com/tbourn/forum-guard/internal/repo"
	"github.com/tbourn/forum-guard/internal/services"
	"github.com/tbourn/forum-guard/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	out, closeLog := sysutil.NewLogWriter(sysutil.LogSink{
		Pretty:     cfg.LogPretty,
		File:       cfg.LogFile.Path,
		MaxSizeMB:  cfg.LogFile.MaxSizeMB,
		MaxBackups: cfg.LogFile.MaxBackups,
		MaxAgeDays: cfg.LogFile.MaxAgeDays,
		Compress:   cfg.LogFile.Compress,
	})
	defer closeLog()
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", cfg.OTEL.ServiceName).Logger()

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(cfg.DBDSN, repo.Options{Tracing: cfg.OTEL.Enabled})
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	kv, closeKV := openCache(ctx, cfg.Cache)
	defer closeKV()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	if err := httpapi.RegisterRoutes(r, db, kv, newMailer(cfg.Mail), cfg); err != nil {
		log.Fatal().Err(err).Msg("register routes")
	}

	if cfg.BadBehavior.Logging {
		pruner := &services.BadBehaviorService{
			DB:        db,
			Retention: cfg.BadBehavior.LogRetention,
			Log:       log.With().Str("component", "badbehavior-pruner").Logger(),
		}
		go pruner.RunPruner(ctx, cfg.BadBehavior.PruneInterval)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", appVersion).
			Bool("screening", cfg.BadBehavior.Enabled).
			Bool("strict", cfg.BadBehavior.Strict).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	closeDB(db)
	log.Info().Msg("server exited")
}

// openCache returns the configured cache backend. A Redis outage at boot
// falls back to the in-process cache so screening keeps working.
func openCache(ctx context.Context, cc config.CacheConfig) (cache.Cache, func()) {
	if cc.Backend == "redis" {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		rc, err := cache.NewRedis(pingCtx, cache.RedisOptions{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
			Prefix:   cc.Prefix,
		})
		if err == nil {
			return rc, func() { _ = rc.Close() }
		}
		log.Warn().Err(err).Msg("redis unavailable, using in-process cache")
	}
	return cache.NewMemory(cc.MaxEntries), func() {}
}

func newMailer(mc config.MailConfig) mailer.Provider {
	if mc.Provider == "smtp" {
		return mailer.NewSMTP(mailer.SMTPConfig{
			Host:     mc.Host,
			Port:     mc.Port,
			Username: mc.Username,
			Password: mc.Password,
			From:     mc.From,
			Timeout:  mc.Timeout,
		})
	}
	log.Warn().Msg("MAIL_PROVIDER=mock: notification emails are not sent")
	return mailer.NewMock()
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}
}
