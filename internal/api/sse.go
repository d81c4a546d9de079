// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gowrstat/gowrstat/internal/log"
	"github.com/gowrstat/gowrstat/internal/metrics"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

// sseHeartbeat is how often an idle stream sends a comment line so
// proxies do not reap the connection between events.
const sseHeartbeat = 15 * time.Second

// pollEveryCap keeps a typo like pollEvery=86400000 from parking a
// monitor goroutine that effectively never polls.
const pollEveryCap = time.Hour

// handleMonitorStream streams UPS change events as server-sent events,
// one `data:` frame per event.
//
// Two modes: without a pollEvery parameter the client taps the shared
// daemon monitor. With pollEvery=<seconds> it gets a dedicated monitor
// polling at its own cadence, torn down on disconnect.
func (s *Server) handleMonitorStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, r, http.StatusInternalServerError, ErrInternalServer,
			"streaming unsupported by the underlying connection")
		return
	}

	cfg := s.deps.Config.Get()
	logger := log.WithComponentFromContext(r.Context(), "api.sse")

	pollEvery, dedicated, err := parsePollEvery(r, cfg.API.SSEPollDefault, cfg.API.SSEPollMin)
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, ErrInvalidInput, err.Error())
		return
	}
	// Without a shared monitor there is nothing to tap; poll for this
	// client alone.
	if s.deps.Broadcast == nil {
		dedicated = true
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var (
		events <-chan pwrstat.Event
		runErr <-chan error
	)
	if dedicated {
		events, runErr = s.startDedicatedMonitor(ctx, pollEvery)
	} else {
		ch, unsubscribe := s.deps.Broadcast.Subscribe()
		defer unsubscribe()
		events = ch
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.SSEClientConnected()
	defer metrics.SSEClientDisconnected()

	logger.Info().
		Str(log.FieldEvent, "sse.connected").
		Bool("dedicated", dedicated).
		Dur("poll_every_ms", pollEvery).
		Str("remote_addr", r.RemoteAddr).
		Msg("monitor stream connected")
	defer logger.Info().
		Str(log.FieldEvent, "sse.disconnected").
		Str("remote_addr", r.RemoteAddr).
		Msg("monitor stream disconnected")

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-runErr:
			// Dedicated monitor died; the client should reconnect.
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("monitor stream poll loop failed")
			}
			return

		case ev := <-events:
			payload, err := json.Marshal(ev)
			if err != nil {
				logger.Error().Err(err).Msg("failed to marshal stream event")
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// parsePollEvery reads the pollEvery query parameter, a float number of
// seconds. Present means the client wants its own poll cadence.
func parsePollEvery(r *http.Request, def, min time.Duration) (time.Duration, bool, error) {
	raw := r.URL.Query().Get("pollEvery")
	if raw == "" {
		return def, false, nil
	}

	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs <= 0 {
		return 0, false, fmt.Errorf("pollEvery must be a positive number of seconds, got %q", raw)
	}

	d := time.Duration(secs * float64(time.Second))
	if d < min {
		d = min
	}
	if d > pollEveryCap {
		d = pollEveryCap
	}
	return d, true, nil
}

// startDedicatedMonitor runs a monitor for a single stream client. The
// returned error channel fires once when the poll loop exits.
func (s *Server) startDedicatedMonitor(ctx context.Context, interval time.Duration) (<-chan pwrstat.Event, <-chan error) {
	events := make(chan pwrstat.Event, subscriberBuffer)
	runErr := make(chan error, 1)

	mon := pwrstat.NewMonitor(s.deps.Client, pwrstat.MonitorOptions{Interval: interval})
	go func() {
		runErr <- mon.Run(ctx, func(ev pwrstat.Event) error {
			select {
			case events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	return events, runErr
}
