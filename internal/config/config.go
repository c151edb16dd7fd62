// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the GLPI connection, service levels,
// cache lifetimes, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "glpi-dashboard-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// LogFileConfig enables size-rotated log files next to stdout.
type LogFileConfig struct {
	Path       string // LOG_FILE; empty disables file output
	MaxSizeMB  int    // LOG_FILE_MAX_MB
	MaxBackups int    // LOG_FILE_MAX_BACKUPS
	MaxAgeDays int    // LOG_FILE_MAX_AGE_DAYS
}

// GLPIConfig holds the remote REST API connection and retry settings.
type GLPIConfig struct {
	BaseURL   string // GLPI_BASE_URL, e.g. https://glpi.example.org/apirest.php
	AppToken  string // GLPI_APP_TOKEN
	UserToken string // GLPI_USER_TOKEN

	RequestTimeout time.Duration // per data request
	AuthTimeout    time.Duration // per initSession call
	SessionTimeout time.Duration // local session lifetime
	SlowRequest    time.Duration // requests slower than this are logged

	MaxRetries        int
	BackoffInitial    time.Duration
	BackoffMultiplier float64
	BackoffMax        time.Duration

	// Client-side throttle towards the remote API.
	RateRPS   float64
	RateBurst int

	TechnicianProfileID int
}

// LevelsConfig maps service levels to remote groups and selects how tickets
// are filtered per level.
type LevelsConfig struct {
	N1GroupID int
	N2GroupID int
	N3GroupID int
	N4GroupID int

	Selector       string // hierarchy|group
	HierarchyField string // empty = resolved GROUP field
	NamesFile      string // YAML name table (optional)
}

// CacheConfig holds TTLs for the memoization layer and the optional Redis tier.
type CacheConfig struct {
	DashboardTTL         time.Duration
	DashboardRangeTTL    time.Duration
	DashboardFilteredTTL time.Duration
	RankingTTL           time.Duration
	RankingFilteredTTL   time.Duration
	FieldsTTL            time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
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
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogFile        LogFileConfig
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Remote system
	GLPI   GLPIConfig
	Levels LevelsConfig
	Cache  CacheConfig

	// Work
	RankingWorkers   int
	RankingTimeout   time.Duration
	DashboardTimeout time.Duration
	WarmSchedule     string // cron expression; empty disables the warmer

	// Snapshots
	SnapshotsEnabled bool
	DBPath           string // SQLite path

	// Rate limiting (inbound)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),
		LogFile: LogFileConfig{
			Path:       getenv("LOG_FILE", ""),
			MaxSizeMB:  getint("LOG_FILE_MAX_MB", 100),
			MaxBackups: getint("LOG_FILE_MAX_BACKUPS", 5),
			MaxAgeDays: getint("LOG_FILE_MAX_AGE_DAYS", 28),
		},
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Remote system
		GLPI: GLPIConfig{
			BaseURL:             strings.TrimRight(strings.TrimSpace(getenv("GLPI_BASE_URL", "")), "/"),
			AppToken:            getenv("GLPI_APP_TOKEN", ""),
			UserToken:           getenv("GLPI_USER_TOKEN", ""),
			RequestTimeout:      getdur("GLPI_REQUEST_TIMEOUT", 30*time.Second),
			AuthTimeout:         getdur("GLPI_AUTH_TIMEOUT", 10*time.Second),
			SessionTimeout:      getdur("GLPI_SESSION_TIMEOUT", time.Hour),
			SlowRequest:         getdur("GLPI_SLOW_REQUEST", 5*time.Second),
			MaxRetries:          getint("GLPI_MAX_RETRIES", 3),
			BackoffInitial:      getdur("GLPI_BACKOFF_INITIAL", time.Second),
			BackoffMultiplier:   getfloat("GLPI_BACKOFF_MULTIPLIER", 2.0),
			BackoffMax:          getdur("GLPI_BACKOFF_MAX", 30*time.Second),
			RateRPS:             getfloat("GLPI_RATE_RPS", 20),
			RateBurst:           getint("GLPI_RATE_BURST", 10),
			TechnicianProfileID: getint("GLPI_TECHNICIAN_PROFILE_ID", 6),
		},
		Levels: LevelsConfig{
			N1GroupID:      getint("LEVEL_N1_GROUP_ID", 89),
			N2GroupID:      getint("LEVEL_N2_GROUP_ID", 90),
			N3GroupID:      getint("LEVEL_N3_GROUP_ID", 91),
			N4GroupID:      getint("LEVEL_N4_GROUP_ID", 92),
			Selector:       strings.ToLower(getenv("LEVEL_SELECTOR", "hierarchy")),
			HierarchyField: getenv("HIERARCHY_FIELD_ID", ""),
			NamesFile:      getenv("LEVEL_NAMES_FILE", ""),
		},
		Cache: CacheConfig{
			DashboardTTL:         getdur("CACHE_TTL_DASHBOARD", 180*time.Second),
			DashboardRangeTTL:    getdur("CACHE_TTL_DASHBOARD_RANGE", 300*time.Second),
			DashboardFilteredTTL: getdur("CACHE_TTL_DASHBOARD_FILTERED", 120*time.Second),
			RankingTTL:           getdur("CACHE_TTL_RANKING", 300*time.Second),
			RankingFilteredTTL:   getdur("CACHE_TTL_RANKING_FILTERED", 120*time.Second),
			FieldsTTL:            getdur("CACHE_TTL_FIELDS", time.Hour),
			RedisAddr:            getenv("REDIS_ADDR", ""),
			RedisPassword:        getenv("REDIS_PASSWORD", ""),
			RedisDB:              getint("REDIS_DB", 0),
		},

		// Work
		RankingWorkers:   getint("RANKING_WORKERS", 8),
		RankingTimeout:   getdur("RANKING_TIMEOUT", 60*time.Second),
		DashboardTimeout: getdur("DASHBOARD_TIMEOUT", 60*time.Second),
		WarmSchedule:     strings.TrimSpace(getenv("WARM_SCHEDULE", "")),

		// Snapshots
		SnapshotsEnabled: getbool("SNAPSHOTS_ENABLED", false),
		DBPath:           getenv("DB_PATH", "app.db"),

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

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "glpi-dashboard-backend"),
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
	if cfg.GLPI.RequestTimeout <= 0 || cfg.GLPI.AuthTimeout <= 0 || cfg.GLPI.SessionTimeout <= 0 {
		return cfg, errors.New("GLPI timeouts must be positive durations")
	}
	if cfg.GLPI.MaxRetries < 1 {
		return cfg, errors.New("GLPI_MAX_RETRIES must be >= 1")
	}
	if cfg.GLPI.BackoffInitial <= 0 || cfg.GLPI.BackoffMax < cfg.GLPI.BackoffInitial {
		return cfg, errors.New("GLPI_BACKOFF_INITIAL must be > 0 and <= GLPI_BACKOFF_MAX")
	}
	if cfg.GLPI.BackoffMultiplier < 1 {
		return cfg, errors.New("GLPI_BACKOFF_MULTIPLIER must be >= 1")
	}
	if cfg.GLPI.RateRPS < 0 || cfg.GLPI.RateBurst < 1 {
		return cfg, errors.New("GLPI_RATE_RPS must be >= 0 and GLPI_RATE_BURST >= 1")
	}
	if err := cfg.Levels.validate(); err != nil {
		return cfg, err
	}
	if cfg.RankingWorkers < 1 {
		return cfg, errors.New("RANKING_WORKERS must be >= 1")
	}
	if cfg.RankingTimeout <= 0 || cfg.DashboardTimeout <= 0 {
		return cfg, errors.New("RANKING_TIMEOUT and DASHBOARD_TIMEOUT must be > 0")
	}
	if cfg.Cache.DashboardTTL <= 0 || cfg.Cache.RankingTTL <= 0 || cfg.Cache.FieldsTTL <= 0 {
		return cfg, errors.New("cache TTLs must be > 0")
	}
	if cfg.SnapshotsEnabled && strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty when SNAPSHOTS_ENABLED")
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
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// GroupIDs returns the four level group ids in N1..N4 order.
func (l LevelsConfig) GroupIDs() [4]int {
	return [4]int{l.N1GroupID, l.N2GroupID, l.N3GroupID, l.N4GroupID}
}

func (l LevelsConfig) validate() error {
	switch l.Selector {
	case "hierarchy", "group":
	default:
		return errors.New("LEVEL_SELECTOR must be one of: hierarchy, group")
	}
	ids := l.GroupIDs()
	seen := make(map[int]int, len(ids))
	for i, id := range ids {
		if id <= 0 {
			return fmt.Errorf("LEVEL_N%d_GROUP_ID must be > 0", i+1)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("LEVEL_N%d_GROUP_ID duplicates LEVEL_N%d_GROUP_ID (%d)", i+1, prev+1, id)
		}
		seen[id] = i
	}
	return nil
}

// ---- helpers (no external deps) ----

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
