// SPDX-License-Identifier: MIT

package pwrstat

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/gowrstat/gowrstat/internal/log"
	"github.com/gowrstat/gowrstat/internal/metrics"
)

// DefaultMonitorInterval is how often the monitor polls the UPS when the
// caller does not say otherwise.
const DefaultMonitorInterval = 5 * time.Second

// statusFields drives the snapshot diff. Entries are ordered by wire name
// so a single poll always emits its ValueChanged events in a stable
// order.
var statusFields = []struct {
	name  string
	value func(*UPSStatus) any
	equal func(a, b *UPSStatus) bool
}{
	{
		name:  "battery_capacity_percent",
		value: func(s *UPSStatus) any { return s.BatteryCapacityPercent },
		equal: func(a, b *UPSStatus) bool { return a.BatteryCapacityPercent == b.BatteryCapacityPercent },
	},
	{
		name:  "last_power_event",
		value: func(s *UPSStatus) any { return s.LastPowerEvent },
		equal: func(a, b *UPSStatus) bool { return a.LastPowerEvent.Equal(b.LastPowerEvent) },
	},
	{
		name:  "line_interaction",
		value: func(s *UPSStatus) any { return s.LineInteraction },
		equal: func(a, b *UPSStatus) bool { return a.LineInteraction == b.LineInteraction },
	},
	{
		name:  "load_percent",
		value: func(s *UPSStatus) any { return s.LoadPercent },
		equal: func(a, b *UPSStatus) bool { return a.LoadPercent == b.LoadPercent },
	},
	{
		name:  "load_watts",
		value: func(s *UPSStatus) any { return s.LoadWatts },
		equal: func(a, b *UPSStatus) bool { return a.LoadWatts == b.LoadWatts },
	},
	{
		name:  "output_voltage_volts",
		value: func(s *UPSStatus) any { return s.OutputVoltageVolts },
		equal: func(a, b *UPSStatus) bool { return a.OutputVoltageVolts == b.OutputVoltageVolts },
	},
	{
		name:  "power_supply_by",
		value: func(s *UPSStatus) any { return s.PowerSupplyBy },
		equal: func(a, b *UPSStatus) bool { return a.PowerSupplyBy == b.PowerSupplyBy },
	},
	{
		name:  "remaining_runtime_seconds",
		value: func(s *UPSStatus) any { return s.RemainingRuntime },
		equal: func(a, b *UPSStatus) bool { return a.RemainingRuntime == b.RemainingRuntime },
	},
	{
		name:  "state",
		value: func(s *UPSStatus) any { return s.State },
		equal: func(a, b *UPSStatus) bool { return a.State == b.State },
	},
	{
		name:  "test_result",
		value: func(s *UPSStatus) any { return s.TestResult },
		equal: func(a, b *UPSStatus) bool { return a.TestResult.Equal(b.TestResult) },
	},
	{
		name:  "utility_voltage_volts",
		value: func(s *UPSStatus) any { return s.UtilityVoltageVolts },
		equal: func(a, b *UPSStatus) bool { return a.UtilityVoltageVolts == b.UtilityVoltageVolts },
	},
}

// Monitor polls the UPS on an interval and turns status changes into
// events: one ValueChanged per changed field, plus a single
// ReachabilityChanged on each loss and recovery of the UPS connection.
// While the UPS stays unreachable the monitor is silent.
type Monitor struct {
	client   *Client
	interval time.Duration
	logger   zerolog.Logger
}

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	// Interval between polls (DefaultMonitorInterval if zero).
	Interval time.Duration
	// Logger overrides the package logger.
	Logger *zerolog.Logger
}

// NewMonitor returns a monitor over the given client.
func NewMonitor(client *Client, opts MonitorOptions) *Monitor {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	logger := log.WithComponent("pwrstat.monitor")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Monitor{client: client, interval: interval, logger: logger}
}

// Run polls until ctx is done, invoking emit for every event. The first
// poll happens immediately and only establishes the baseline; it emits
// nothing. Run returns ctx.Err() on cancellation, the emit callback's
// error if one fails, and any non-reachability error from polling.
func (m *Monitor) Run(ctx context.Context, emit func(Event) error) error {
	last, reachable, err := m.poll(ctx)
	if err != nil {
		return err
	}
	m.logger.Info().
		Dur("interval_ms", m.interval).
		Bool(log.FieldReachable, reachable).
		Msg("monitor started")

	for {
		if err := sleepCtx(ctx, m.interval); err != nil {
			return err
		}
		current, nowReachable, err := m.poll(ctx)
		if err != nil {
			return err
		}

		switch {
		case !nowReachable && reachable:
			m.logger.Warn().Bool(log.FieldReachable, false).Msg("lost contact with UPS")
			if err := m.emit(ctx, emit, Event{
				Metadata:      NewReachabilityChanged(false),
				PreviousState: last,
			}); err != nil {
				return err
			}
		case nowReachable && !reachable:
			m.logger.Info().Bool(log.FieldReachable, true).Msg("regained contact with UPS")
			if err := m.emit(ctx, emit, Event{
				Metadata: NewReachabilityChanged(true),
				NewState: current,
			}); err != nil {
				return err
			}
		case nowReachable:
			for _, field := range statusFields {
				if field.equal(last, current) {
					continue
				}
				m.logger.Debug().
					Str(log.FieldField, field.name).
					Interface(log.FieldOldValue, field.value(last)).
					Interface(log.FieldNewValue, field.value(current)).
					Msg("UPS status changed")
				if err := m.emit(ctx, emit, Event{
					Metadata:      NewValueChanged(field.name, field.value(last), field.value(current)),
					PreviousState: last,
					NewState:      current,
				}); err != nil {
					return err
				}
			}
		}

		last, reachable = current, nowReachable
	}
}

// poll reads the current status, feeding the gauges as a side effect.
// An unreachable UPS is a regular outcome here, not an error.
func (m *Monitor) poll(ctx context.Context) (*UPSStatus, bool, error) {
	ctx, span := startPollSpan(ctx)
	defer span.End()

	status, err := m.client.Status(ctx)
	if err != nil {
		if errors.Is(err, ErrUnreachable) {
			metrics.SetUPSReachable(false)
			span.SetAttributes(attribute.Bool(attrReachable, false))
			return nil, false, nil
		}
		metrics.IncMonitorPollFailure()
		m.logger.Error().Err(err).Msg("polling UPS status failed")
		return nil, false, err
	}
	metrics.SetUPSReachable(true)
	span.SetAttributes(attribute.Bool(attrReachable, true))
	metrics.RecordUPSStatus(
		status.BatteryCapacityPercent,
		status.LoadWatts,
		status.RemainingRuntime.Std().Seconds(),
		status.UtilityVoltageVolts,
	)
	return status, true, nil
}

func (m *Monitor) emit(ctx context.Context, emit func(Event) error, ev Event) error {
	metrics.IncMonitorEvent(ev.Metadata.EventType())
	observeMonitorEvent(ctx, ev)
	return emit(ev)
}
