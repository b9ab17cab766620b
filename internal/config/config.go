// Package config provides application configuration loaded from environment
// variables (optionally seeded from a .env file) with defaults and
// validation. It covers the HTTP server, logging, storage, caching, request
// screening, mention delivery and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "forum-guard")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LogFileConfig enables rotated file output next to stdout.
type LogFileConfig struct {
	Path       string // LOG_FILE; empty disables file output
	MaxSizeMB  int    // LOG_FILE_MAX_SIZE_MB
	MaxBackups int    // LOG_FILE_MAX_BACKUPS
	MaxAgeDays int    // LOG_FILE_MAX_AGE_DAYS
	Compress   bool   // LOG_FILE_COMPRESS
}

// CacheConfig selects the key-value backend.
type CacheConfig struct {
	Backend       string // memory|redis
	MaxEntries    int    // memory backend bound
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	PrefTTL       time.Duration // preference lookups
}

// BadBehaviorConfig tunes request screening.
type BadBehaviorConfig struct {
	Enabled          bool
	Strict           bool
	OffsiteForms     bool
	Verbose          bool
	Logging          bool
	LogRetention     time.Duration
	PruneInterval    time.Duration
	WhitelistIPs     []string
	WhitelistAgents  []string
	WhitelistURLs    []string
	CrawlerDNS       bool
	CrawlerTimeout   time.Duration
	CrawlerCacheTTL  time.Duration
	SignaturesFile   string
	MaxScreenedBytes int64
}

// MailConfig selects and configures the outbound mail transport.
type MailConfig struct {
	Provider string // mock|smtp
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // global request body cap
	GinMode           string        // debug|release|test
	TrustedProxies    []string      // CIDRs whose X-Forwarded-For is honoured

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogFile        LogFileConfig
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBDSN string // sqlite path / file: URI, or a postgres URL / keyword DSN

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	Cache       CacheConfig
	BadBehavior BadBehaviorConfig

	// Mentions
	MentionTypes []string // MENTIONS_ENABLED_TYPES; empty enables all
	Mail         MailConfig

	// Observability
	OTEL OTELConfig
}

var knownMentionTypes = map[string]bool{
	"mentionmem": true, "quotedmem": true, "likemsg": true, "rlikemsg": true,
	"buddy": true, "watchedtopic": true, "watchedboard": true, "mailfail": true,
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads a .env file when present, then configuration from environment
// variables, applies defaults, normalizes values, and validates the result.
// Variables already set in the environment win over the .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),
		TrustedProxies:    splitCSV(getenv("TRUSTED_PROXIES", "")),

		// Logging / Docs
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),
		LogFile: LogFileConfig{
			Path:       getenv("LOG_FILE", ""),
			MaxSizeMB:  getint("LOG_FILE_MAX_SIZE_MB", 100),
			MaxBackups: getint("LOG_FILE_MAX_BACKUPS", 5),
			MaxAgeDays: getint("LOG_FILE_MAX_AGE_DAYS", 30),
			Compress:   getbool("LOG_FILE_COMPRESS", true),
		},
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DBDSN: getenv("DB_DSN", "forum.db"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		Cache: CacheConfig{
			Backend:       strings.ToLower(getenv("CACHE_BACKEND", "memory")),
			MaxEntries:    getint("CACHE_MAX_ENTRIES", 10000),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getint("REDIS_DB", 0),
			Prefix:        getenv("CACHE_PREFIX", "forum-guard:"),
			PrefTTL:       getdur("CACHE_PREF_TTL", 5*time.Minute),
		},

		BadBehavior: BadBehaviorConfig{
			Enabled:          getbool("BB_ENABLED", true),
			Strict:           getbool("BB_STRICT", false),
			OffsiteForms:     getbool("BB_OFFSITE_FORMS", false),
			Verbose:          getbool("BB_VERBOSE", false),
			Logging:          getbool("BB_LOGGING", true),
			LogRetention:     getdur("BB_LOG_RETENTION", 7*24*time.Hour),
			PruneInterval:    getdur("BB_PRUNE_INTERVAL", time.Hour),
			WhitelistIPs:     splitCSV(getenv("BB_WHITELIST_IPS", "")),
			WhitelistAgents:  splitCSV(getenv("BB_WHITELIST_USER_AGENTS", "")),
			WhitelistURLs:    splitCSV(getenv("BB_WHITELIST_URLS", "")),
			CrawlerDNS:       getbool("BB_CRAWLER_DNS", true),
			CrawlerTimeout:   getdur("BB_CRAWLER_TIMEOUT", 2*time.Second),
			CrawlerCacheTTL:  getdur("BB_CRAWLER_CACHE_TTL", time.Hour),
			SignaturesFile:   getenv("BB_SIGNATURES_FILE", ""),
			MaxScreenedBytes: int64(getint("BB_MAX_SCREENED_BYTES", 64<<10)),
		},

		MentionTypes: splitCSV(getenv("MENTIONS_ENABLED_TYPES", "")),
		Mail: MailConfig{
			Provider: strings.ToLower(getenv("MAIL_PROVIDER", "mock")),
			Host:     getenv("MAIL_SMTP_HOST", ""),
			Port:     getint("MAIL_SMTP_PORT", 587),
			Username: getenv("MAIL_SMTP_USER", ""),
			Password: getenv("MAIL_SMTP_PASSWORD", ""),
			From:     getenv("MAIL_FROM", "noreply@localhost"),
			Timeout:  getdur("MAIL_TIMEOUT", 10*time.Second),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "forum-guard"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	for i, t := range cfg.MentionTypes {
		cfg.MentionTypes[i] = strings.ToLower(t)
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if cfg.LogFile.Path != "" && cfg.LogFile.MaxSizeMB <= 0 {
		return cfg, errors.New("LOG_FILE_MAX_SIZE_MB must be > 0")
	}
	if strings.TrimSpace(cfg.DBDSN) == "" {
		return cfg, errors.New("DB_DSN must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	switch cfg.Cache.Backend {
	case "memory", "redis":
	default:
		return cfg, errors.New("CACHE_BACKEND must be one of: memory, redis")
	}
	if cfg.Cache.Backend == "redis" && strings.TrimSpace(cfg.Cache.RedisAddr) == "" {
		return cfg, errors.New("REDIS_ADDR must not be empty when CACHE_BACKEND=redis")
	}
	if cfg.BadBehavior.CrawlerTimeout <= 0 || cfg.BadBehavior.CrawlerTimeout > 5*time.Second {
		return cfg, errors.New("BB_CRAWLER_TIMEOUT must be in (0, 5s]")
	}
	if cfg.BadBehavior.LogRetention < 0 {
		return cfg, errors.New("BB_LOG_RETENTION must be >= 0")
	}
	if cfg.BadBehavior.PruneInterval <= 0 {
		return cfg, errors.New("BB_PRUNE_INTERVAL must be > 0")
	}
	if cfg.BadBehavior.MaxScreenedBytes <= 0 {
		return cfg, errors.New("BB_MAX_SCREENED_BYTES must be > 0")
	}
	if cfg.BadBehavior.MaxScreenedBytes > cfg.MaxBodyBytes {
		return cfg, errors.New("BB_MAX_SCREENED_BYTES must not exceed MAX_BODY_BYTES")
	}
	for _, t := range cfg.MentionTypes {
		if !knownMentionTypes[t] {
			return cfg, fmt.Errorf("MENTIONS_ENABLED_TYPES: unknown mention type %q", t)
		}
	}
	switch cfg.Mail.Provider {
	case "mock":
	case "smtp":
		if strings.TrimSpace(cfg.Mail.Host) == "" {
			return cfg, errors.New("MAIL_SMTP_HOST must not be empty when MAIL_PROVIDER=smtp")
		}
	default:
		return cfg, errors.New("MAIL_PROVIDER must be one of: mock, smtp")
	}
	if cfg.Mail.Timeout <= 0 {
		return cfg, errors.New("MAIL_TIMEOUT must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
