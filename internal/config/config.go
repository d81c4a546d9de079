// SPDX-License-Identifier: MIT

// Package config loads the gowrstat configuration with the precedence
// ENV > YAML file > defaults and keeps it reloadable at runtime.
package config

import (
	"path/filepath"
	"time"

	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

// Environment variable names. Every knob is reachable without a config
// file.
const (
	EnvConfigFile = "GOWRSTAT_CONFIG"
	EnvDataDir    = "GOWRSTAT_DATA_DIR"

	EnvLogLevel  = "GOWRSTAT_LOG_LEVEL"
	EnvLogFormat = "GOWRSTAT_LOG_FORMAT"

	EnvPwrstatPath    = "GOWRSTAT_PWRSTAT_PATH"
	EnvUseSudo        = "GOWRSTAT_USE_SUDO"
	EnvCommandTimeout = "GOWRSTAT_COMMAND_TIMEOUT"
	EnvCommandRate    = "GOWRSTAT_COMMAND_RATE"
	EnvCommandBurst   = "GOWRSTAT_COMMAND_BURST"

	EnvMonitorInterval = "GOWRSTAT_MONITOR_INTERVAL"

	EnvListen         = "GOWRSTAT_LISTEN"
	EnvMetricsListen  = "GOWRSTAT_METRICS_LISTEN"
	EnvJWTSecret      = "GOWRSTAT_JWT_SECRET"
	EnvTLSCert        = "GOWRSTAT_TLS_CERT"
	EnvTLSKey         = "GOWRSTAT_TLS_KEY"
	EnvAPIRate        = "GOWRSTAT_API_RATE"
	EnvAPIRateWindow  = "GOWRSTAT_API_RATE_WINDOW"
	EnvRequestTimeout = "GOWRSTAT_REQUEST_TIMEOUT"
	EnvSSEPollDefault = "GOWRSTAT_SSE_POLL_DEFAULT"
	EnvSSEPollMin     = "GOWRSTAT_SSE_POLL_MIN"

	EnvCacheBackend  = "GOWRSTAT_CACHE_BACKEND"
	EnvCacheTTL      = "GOWRSTAT_CACHE_TTL"
	EnvRedisAddr     = "GOWRSTAT_REDIS_ADDR"
	EnvRedisPassword = "GOWRSTAT_REDIS_PASSWORD"
	EnvRedisDB       = "GOWRSTAT_REDIS_DB"

	EnvJournalEnabled       = "GOWRSTAT_JOURNAL_ENABLED"
	EnvJournalPath          = "GOWRSTAT_JOURNAL_PATH"
	EnvJournalRetention     = "GOWRSTAT_JOURNAL_RETENTION"
	EnvJournalPruneInterval = "GOWRSTAT_JOURNAL_PRUNE_INTERVAL"

	EnvOTLPEnabled      = "GOWRSTAT_OTLP_ENABLED"
	EnvOTLPEndpoint     = "GOWRSTAT_OTLP_ENDPOINT"
	EnvOTLPProtocol     = "GOWRSTAT_OTLP_PROTOCOL"
	EnvOTLPInsecure     = "GOWRSTAT_OTLP_INSECURE"
	EnvTraceSampleRatio = "GOWRSTAT_TRACE_SAMPLE_RATIO"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheOff    = "off"
)

// OTLP transports.
const (
	OTLPGRPC = "grpc"
	OTLPHTTP = "http"
)

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	// DataDir holds journal and other runtime state.
	DataDir string

	Log       LogConfig
	Pwrstat   PwrstatConfig
	Monitor   MonitorConfig
	API       APIConfig
	Cache     CacheConfig
	Journal   JournalConfig
	Telemetry TelemetryConfig

	// Version is stamped from the binary, not configurable.
	Version string
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string // trace|debug|info|warn|error
	Format string // json|console
}

// PwrstatConfig controls how the pwrstat binary is invoked.
type PwrstatConfig struct {
	// BinaryPath is the pwrstat executable.
	BinaryPath string
	// UseSudo prefixes invocations with sudo; required when gowrstat does
	// not run as root.
	UseSudo bool
	// CommandTimeout bounds a single invocation.
	CommandTimeout time.Duration
	// CommandRate and CommandBurst throttle invocations; pwrstatd
	// serializes on a single socket and misbehaves under hammering.
	CommandRate  float64
	CommandBurst int
}

// MonitorConfig controls the background UPS watcher.
type MonitorConfig struct {
	// Interval between polls.
	Interval time.Duration
}

// APIConfig controls the HTTP server.
type APIConfig struct {
	// Listen is the bind address, e.g. ":8000".
	Listen string
	// MetricsListen is the bind address of the Prometheus endpoint; empty
	// disables the metrics server.
	MetricsListen string
	// JWTSecret enables bearer auth on protected routes when non-empty.
	JWTSecret string
	// TLSCert/TLSKey serve HTTPS when both are set.
	TLSCert string
	TLSKey  string
	// RateLimit requests per RateWindow per client IP.
	RateLimit  int
	RateWindow time.Duration
	// RequestTimeout bounds non-streaming handlers.
	RequestTimeout time.Duration
	// SSEPollDefault/SSEPollMin bound the monitor stream's poll interval.
	SSEPollDefault time.Duration
	SSEPollMin     time.Duration
}

// CacheConfig controls the status read cache.
type CacheConfig struct {
	// Backend is one of memory, redis, off.
	Backend string
	// TTL is how long a status read stays fresh.
	TTL time.Duration
	// Redis connection, used when Backend is redis.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// JournalConfig controls event persistence.
type JournalConfig struct {
	Enabled bool
	// Path of the SQLite file; empty means <DataDir>/journal.db.
	Path string
	// Retention is how long events are kept.
	Retention time.Duration
	// PruneInterval is how often expired events are deleted.
	PruneInterval time.Duration
}

// TelemetryConfig controls OTLP trace export.
type TelemetryConfig struct {
	Enabled  bool
	Endpoint string
	// Protocol is grpc or http.
	Protocol    string
	Insecure    bool
	SampleRatio float64
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		DataDir: "/var/lib/gowrstat",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Pwrstat: PwrstatConfig{
			BinaryPath:     pwrstat.DefaultBinaryPath,
			UseSudo:        true,
			CommandTimeout: 10 * time.Second,
			CommandRate:    5,
			CommandBurst:   10,
		},
		Monitor: MonitorConfig{
			Interval: pwrstat.DefaultMonitorInterval,
		},
		API: APIConfig{
			Listen:         ":8000",
			MetricsListen:  ":9090",
			RateLimit:      60,
			RateWindow:     time.Minute,
			RequestTimeout: 30 * time.Second,
			SSEPollDefault: 5 * time.Second,
			SSEPollMin:     time.Second,
		},
		Cache: CacheConfig{
			Backend:   CacheMemory,
			TTL:       2 * time.Second,
			RedisAddr: "127.0.0.1:6379",
		},
		Journal: JournalConfig{
			Enabled:       true,
			Retention:     30 * 24 * time.Hour,
			PruneInterval: time.Hour,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "127.0.0.1:4317",
			Protocol:    OTLPGRPC,
			Insecure:    true,
			SampleRatio: 1.0,
		},
	}
}

// JournalPath resolves the effective journal file location.
func (c AppConfig) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(c.DataDir, "journal.db")
}
