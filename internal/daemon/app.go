// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gowrstat/gowrstat/internal/api"
	"github.com/gowrstat/gowrstat/internal/cache"
	"github.com/gowrstat/gowrstat/internal/config"
	"github.com/gowrstat/gowrstat/internal/journal"
	"github.com/gowrstat/gowrstat/internal/log"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
	"github.com/gowrstat/gowrstat/internal/ratelimit"
)

// App owns the long-lived runtime lifecycle: the UPS monitor, config
// reload wiring and the journal pruner. Server management is delegated
// to Manager.
type App struct {
	logger    zerolog.Logger
	holder    *config.Holder
	manager   Manager
	client    *pwrstat.Client
	limiter   *ratelimit.Limiter
	cache     cache.Cache
	journal   *journal.Store
	broadcast *api.Broadcaster

	reloadSignal os.Signal
	monitorKick  chan struct{}
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Config watcher is best-effort: startup should not fail if the
	// watcher cannot be started.
	if err := a.holder.StartWatcher(ctx); err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
	}

	// Apply hot-reloadable knobs on every successful config swap.
	reloads := make(chan config.AppConfig, 1)
	a.holder.RegisterListener(reloads)
	g.Go(func() error {
		a.applyReloads(ctx, reloads)
		return nil
	})

	// SIGHUP trigger for manual reload.
	if a.reloadSignal != nil {
		g.Go(func() error {
			a.watchReloadSignal(ctx)
			return nil
		})
	}

	// Journal pruner (stops via ctx).
	if a.journal != nil {
		cfg := a.holder.Get()
		g.Go(func() error {
			a.journal.RunPruner(ctx, cfg.Journal.PruneInterval, cfg.Journal.Retention)
			return nil
		})
	}

	// UPS monitor (restarted on failure; stops via ctx).
	g.Go(func() error {
		return a.superviseMonitor(ctx)
	})

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// applyReloads picks up configuration swaps and applies the knobs that
// take effect without a restart: log level/format, the pwrstat
// invocation rate and the monitor interval.
func (a *App) applyReloads(ctx context.Context, reloads <-chan config.AppConfig) {
	prev := a.holder.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-reloads:
			log.Reconfigure(log.Config{
				Level:   cfg.Log.Level,
				Format:  cfg.Log.Format,
				Service: "gowrstat",
				Version: cfg.Version,
			})
			if a.limiter != nil {
				a.limiter.SetLimit(ratelimit.Config{
					Rate:  rate.Limit(cfg.Pwrstat.CommandRate),
					Burst: cfg.Pwrstat.CommandBurst,
				})
			}
			if cfg.Monitor.Interval != prev.Monitor.Interval {
				select {
				case a.monitorKick <- struct{}{}:
				default:
				}
			}
			if cfg.Pwrstat.BinaryPath != prev.Pwrstat.BinaryPath || cfg.Pwrstat.UseSudo != prev.Pwrstat.UseSudo {
				a.logger.Warn().
					Str(log.FieldEvent, "config.restart_required").
					Msg("pwrstat binary path and sudo mode changes take effect after a restart")
			}
			prev = cfg
		}
	}
}

// watchReloadSignal reloads the configuration on every received signal.
func (a *App) watchReloadSignal(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, a.reloadSignal)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			a.logger.Info().
				Str(log.FieldEvent, "config.reload_signal").
				Str("signal", a.reloadSignal.String()).
				Msg("received reload signal, reloading config")

			if err := a.holder.Reload(context.Background()); err != nil {
				a.logger.Warn().
					Err(err).
					Str(log.FieldEvent, "config.reload_failed").
					Msg("config reload failed")
			}
		}
	}
}

// WaitForShutdown returns a context cancelled by SIGINT or SIGTERM.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
