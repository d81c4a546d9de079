// SPDX-License-Identifier: MIT

package config

import "fmt"

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate rejects configurations the daemon cannot run with. It checks
// shape, not reachability: a wrong Redis address passes here and fails at
// connect time.
func Validate(cfg AppConfig) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error (got %q)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "console" {
		return fmt.Errorf("log.format must be json or console (got %q)", cfg.Log.Format)
	}

	if cfg.Pwrstat.BinaryPath == "" {
		return fmt.Errorf("pwrstat.binary_path must not be empty")
	}
	if cfg.Pwrstat.CommandTimeout < 0 {
		return fmt.Errorf("pwrstat.command_timeout must not be negative")
	}
	if cfg.Pwrstat.CommandRate <= 0 {
		return fmt.Errorf("pwrstat.command_rate must be positive (got %v)", cfg.Pwrstat.CommandRate)
	}
	if cfg.Pwrstat.CommandBurst < 1 {
		return fmt.Errorf("pwrstat.command_burst must be at least 1 (got %d)", cfg.Pwrstat.CommandBurst)
	}

	if cfg.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive (got %v)", cfg.Monitor.Interval)
	}

	if cfg.API.Listen == "" {
		return fmt.Errorf("api.listen must not be empty")
	}
	if cfg.API.RateLimit < 1 {
		return fmt.Errorf("api.rate_limit must be at least 1 (got %d)", cfg.API.RateLimit)
	}
	if cfg.API.RateWindow <= 0 {
		return fmt.Errorf("api.rate_window must be positive (got %v)", cfg.API.RateWindow)
	}
	if cfg.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.request_timeout must be positive (got %v)", cfg.API.RequestTimeout)
	}
	if cfg.API.SSEPollMin <= 0 {
		return fmt.Errorf("api.sse_poll_min must be positive (got %v)", cfg.API.SSEPollMin)
	}
	if cfg.API.SSEPollDefault < cfg.API.SSEPollMin {
		return fmt.Errorf("api.sse_poll_default (%v) must not be below api.sse_poll_min (%v)",
			cfg.API.SSEPollDefault, cfg.API.SSEPollMin)
	}
	if (cfg.API.TLSCert == "") != (cfg.API.TLSKey == "") {
		return fmt.Errorf("api.tls_cert and api.tls_key must be set together")
	}

	switch cfg.Cache.Backend {
	case CacheMemory, CacheOff:
	case CacheRedis:
		if cfg.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr must be set for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be one of memory, redis, off (got %q)", cfg.Cache.Backend)
	}
	if cfg.Cache.Backend != CacheOff && cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive (got %v)", cfg.Cache.TTL)
	}

	if cfg.Journal.Enabled {
		if cfg.Journal.Retention <= 0 {
			return fmt.Errorf("journal.retention must be positive (got %v)", cfg.Journal.Retention)
		}
		if cfg.Journal.PruneInterval <= 0 {
			return fmt.Errorf("journal.prune_interval must be positive (got %v)", cfg.Journal.PruneInterval)
		}
	}

	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry.endpoint must be set when telemetry is enabled")
		}
		if cfg.Telemetry.Protocol != OTLPGRPC && cfg.Telemetry.Protocol != OTLPHTTP {
			return fmt.Errorf("telemetry.protocol must be grpc or http (got %q)", cfg.Telemetry.Protocol)
		}
	}
	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be within [0,1] (got %v)", cfg.Telemetry.SampleRatio)
	}

	return nil
}
