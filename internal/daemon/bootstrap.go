// SPDX-License-Identifier: MIT

// Package daemon assembles and runs the long-lived gowrstat process:
// the pwrstat client, the UPS monitor, the event journal, the status
// cache and the HTTP servers.
package daemon

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/gowrstat/gowrstat/internal/api"
	"github.com/gowrstat/gowrstat/internal/cache"
	"github.com/gowrstat/gowrstat/internal/config"
	"github.com/gowrstat/gowrstat/internal/health"
	"github.com/gowrstat/gowrstat/internal/journal"
	"github.com/gowrstat/gowrstat/internal/log"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
	"github.com/gowrstat/gowrstat/internal/ratelimit"
	"github.com/gowrstat/gowrstat/internal/telemetry"
)

// memoryCacheCleanup is how often the in-process cache sweeps expired
// entries.
const memoryCacheCleanup = time.Minute

// Options configures a daemon instance.
type Options struct {
	// ConfigPath is the YAML config file; empty means ENV-only.
	ConfigPath string

	// Version is stamped on logs, health responses and traces.
	Version string
}

// New loads and validates the configuration, runs the pre-flight checks
// and assembles a ready-to-run App.
func New(ctx context.Context, opts Options) (*App, error) {
	loader := config.NewLoader(opts.ConfigPath, opts.Version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log.Reconfigure(log.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "gowrstat",
		Version: opts.Version,
	})
	logger := log.WithComponent("daemon")
	if opts.ConfigPath != "" {
		logger.Info().
			Str(log.FieldEvent, "config.loaded").
			Str("source", "file").
			Str(log.FieldPath, opts.ConfigPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str(log.FieldEvent, "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}

	if err := health.PerformStartupChecks(cfg); err != nil {
		return nil, fmt.Errorf("startup checks: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{
		Rate:  rate.Limit(cfg.Pwrstat.CommandRate),
		Burst: cfg.Pwrstat.CommandBurst,
	})
	reader, err := pwrstat.NewExecReader(pwrstat.ExecOptions{
		BinaryPath: cfg.Pwrstat.BinaryPath,
		UseSudo:    cfg.Pwrstat.UseSudo,
		Timeout:    cfg.Pwrstat.CommandTimeout,
		Limiter:    limiter,
	})
	if err != nil {
		return nil, err
	}

	holder := config.NewHolder(cfg, loader, opts.ConfigPath)
	return build(ctx, holder, reader, limiter)
}

// build wires every component off the current configuration. Split from
// New so tests can assemble an App around a fake reader.
func build(ctx context.Context, holder *config.Holder, reader pwrstat.Reader, limiter *ratelimit.Limiter) (*App, error) {
	cfg := holder.Get()
	logger := log.WithComponent("daemon")

	client := pwrstat.New(reader)

	tracer, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceVersion: cfg.Version,
		Protocol:       cfg.Telemetry.Protocol,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	cacheBackend, err := buildCache(cfg)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("init cache: %w", err)
	}

	var store *journal.Store
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg.JournalPath())
		if err != nil {
			_ = cacheBackend.Close()
			_ = tracer.Shutdown(ctx)
			return nil, fmt.Errorf("open journal: %w", err)
		}
	}

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewUPSChecker(client.IsReachable))
	var journalPing func(context.Context) error
	if store != nil {
		journalPing = store.Ping
	}
	hm.RegisterChecker(health.NewPingChecker("journal", journalPing))
	if p, ok := cacheBackend.(cache.Pinger); ok {
		hm.RegisterChecker(health.NewPingChecker("cache", p.Ping))
	}

	if cfg.API.JWTSecret == "" {
		logger.Warn().
			Str("security", "weak").
			Msg("JWT secret not configured, API authentication is disabled; set " + config.EnvJWTSecret)
	}

	broadcast := api.NewBroadcaster()
	srv := api.NewServer(api.Deps{
		Config:    holder,
		Client:    client,
		Cache:     cacheBackend,
		Journal:   store,
		Health:    hm,
		Broadcast: broadcast,
	})

	mgr, err := NewManager(ServerConfigFor(cfg), Deps{
		Logger:         logger,
		APIHandler:     srv.Router(),
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    cfg.API.MetricsListen,
		TLSCert:        cfg.API.TLSCert,
		TLSKey:         cfg.API.TLSKey,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		_ = cacheBackend.Close()
		_ = tracer.Shutdown(ctx)
		return nil, err
	}

	// Registration order is the reverse of shutdown: the tracer flushes
	// last, after everything that may still emit spans has closed.
	mgr.RegisterShutdownHook("telemetry", tracer.Shutdown)
	mgr.RegisterShutdownHook("cache", func(context.Context) error { return cacheBackend.Close() })
	if store != nil {
		mgr.RegisterShutdownHook("journal", func(context.Context) error { return store.Close() })
	}

	return &App{
		logger:       logger,
		holder:       holder,
		manager:      mgr,
		client:       client,
		limiter:      limiter,
		cache:        cacheBackend,
		journal:      store,
		broadcast:    broadcast,
		reloadSignal: syscall.SIGHUP,
		monitorKick:  make(chan struct{}, 1),
	}, nil
}

// buildCache picks the cache backend from configuration.
func buildCache(cfg config.AppConfig) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		return cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}, log.WithComponent("cache"))
	case config.CacheOff:
		return cache.NewNoop(), nil
	default:
		return cache.NewMemory(memoryCacheCleanup), nil
	}
}
