// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gowrstat/gowrstat/internal/cache"
	"github.com/gowrstat/gowrstat/internal/metrics"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

const (
	monitorBackoffMin = time.Second
	monitorBackoffMax = 30 * time.Second
)

// superviseMonitor runs the UPS monitor until ctx is done, restarting it
// with exponential backoff after failures. A persistently failing
// monitor keeps retrying; the readiness probe surfaces the outage.
func (a *App) superviseMonitor(ctx context.Context) error {
	backoff := monitorBackoffMin
	for {
		// A restart already picks up the latest interval; stale kicks from
		// before it would only force a pointless second restart.
		select {
		case <-a.monitorKick:
		default:
		}

		interval := a.holder.Get().Monitor.Interval
		mon := pwrstat.NewMonitor(a.client, pwrstat.MonitorOptions{Interval: interval})

		runCtx, cancel := context.WithCancel(ctx)
		kicked := make(chan struct{})
		go func() {
			select {
			case <-runCtx.Done():
			case <-a.monitorKick:
				close(kicked)
				cancel()
			}
		}()

		started := time.Now()
		err := mon.Run(runCtx, func(ev pwrstat.Event) error {
			a.handleEvent(runCtx, ev)
			return nil
		})
		cancel()

		if ctx.Err() != nil {
			return nil
		}

		select {
		case <-kicked:
			a.logger.Info().
				Dur("interval", a.holder.Get().Monitor.Interval).
				Msg("monitor restarting with new interval")
			backoff = monitorBackoffMin
			continue
		default:
		}

		metrics.IncMonitorRestart()
		// A run that held up for a while earns a fresh backoff.
		if time.Since(started) > monitorBackoffMax {
			backoff = monitorBackoffMin
		}
		a.logger.Error().
			Err(err).
			Dur("retry_in", backoff).
			Msg("monitor stopped, restarting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > monitorBackoffMax {
			backoff = monitorBackoffMax
		}
	}
}

// handleEvent fans one monitor event out to the journal, the status
// cache and connected stream clients. Journal first, so the record
// survives even when nobody is listening.
func (a *App) handleEvent(ctx context.Context, ev pwrstat.Event) {
	if a.journal != nil {
		if err := a.journal.Append(ctx, ev); err != nil {
			a.logger.Error().Err(err).Msg("journaling monitor event failed")
		}
	}
	a.refreshCache(ctx, ev)
	if a.broadcast != nil {
		a.broadcast.Publish(ev)
	}
}

// refreshCache keeps the status read path hot: fresh snapshots replace
// the cached payload, and losing the UPS drops it so clients see the
// outage immediately instead of a stale Normal.
func (a *App) refreshCache(ctx context.Context, ev pwrstat.Event) {
	if ev.NewState == nil {
		a.cache.Delete(ctx, cache.KeyStatus)
		return
	}
	payload, err := json.Marshal(ev.NewState)
	if err != nil {
		a.logger.Error().Err(err).Msg("encoding status snapshot for cache failed")
		return
	}
	a.cache.Set(ctx, cache.KeyStatus, payload, a.holder.Get().Cache.TTL)
}
