// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	// Command metrics
	commandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gowrstat_command_duration_seconds",
		Help:    "Time spent running the pwrstat binary per command",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	commandFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gowrstat_command_failures_total",
		Help: "Total number of failed pwrstat invocations per command",
	}, []string{"command"})

	commandThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gowrstat_command_throttle_waits_total",
		Help: "Total number of pwrstat invocations delayed by the rate limiter",
	})

	// UPS state metrics (set by the monitor on every poll)
	upsReachable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gowrstat_ups_reachable",
		Help: "Whether the UPS is reachable (1) or communication is lost (0)",
	})

	batteryCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gowrstat_ups_battery_capacity_ratio",
		Help: "Battery capacity as a ratio in [0,1] (last poll)",
	})

	loadWatts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gowrstat_ups_load_watts",
		Help: "UPS load in watts (last poll)",
	})

	remainingRuntime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gowrstat_ups_remaining_runtime_seconds",
		Help: "Estimated remaining battery runtime in seconds (last poll)",
	})

	utilityVoltage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gowrstat_ups_utility_voltage_volts",
		Help: "Utility input voltage in volts (last poll)",
	})

	// Monitor metrics
	monitorEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gowrstat_monitor_events_total",
		Help: "Total number of change events emitted by the monitor by kind",
	}, []string{"kind"}) // kind=value_changed|reachability_changed

	monitorPollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gowrstat_monitor_poll_failures_total",
		Help: "Total number of monitor polls that ended in an error",
	})

	monitorRestarts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gowrstat_monitor_restarts_total",
		Help: "Total number of times the monitor loop was restarted after a failure",
	})

	// Journal metrics
	journalAppendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gowrstat_journal_append_failures_total",
		Help: "Total number of events that could not be written to the journal",
	})

	journalPrunedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gowrstat_journal_pruned_events_total",
		Help: "Total number of events removed by journal pruning",
	})

	// SSE metrics
	sseClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gowrstat_sse_clients",
		Help: "Number of currently connected monitor stream clients",
	})

	// Cache metrics
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gowrstat_cache_hits_total",
		Help: "Total number of cache hits by backend",
	}, []string{"backend"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gowrstat_cache_misses_total",
		Help: "Total number of cache misses by backend",
	}, []string{"backend"})
)

func ObserveCommand(command string, seconds float64) {
	commandDuration.WithLabelValues(command).Observe(seconds)
}

func IncCommandFailure(command string) { commandFailures.WithLabelValues(command).Inc() }
func IncCommandThrottled()             { commandThrottled.Inc() }

func SetUPSReachable(reachable bool) {
	if reachable {
		upsReachable.Set(1)
	} else {
		upsReachable.Set(0)
	}
}

func RecordUPSStatus(capacityRatio, watts, runtimeSeconds, utilityVolts float64) {
	batteryCapacity.Set(capacityRatio)
	loadWatts.Set(watts)
	remainingRuntime.Set(runtimeSeconds)
	utilityVoltage.Set(utilityVolts)
}

func IncMonitorEvent(kind string) { monitorEvents.WithLabelValues(kind).Inc() }
func IncMonitorPollFailure()      { monitorPollFailures.Inc() }
func IncMonitorRestart()          { monitorRestarts.Inc() }

func IncJournalAppendFailure() { journalAppendFailures.Inc() }
func AddJournalPruned(n int64) { journalPrunedEvents.Add(float64(n)) }

func SSEClientConnected()    { sseClients.Inc() }
func SSEClientDisconnected() { sseClients.Dec() }

// UPSReachable returns the current value of the reachability gauge (for
// testing).
func UPSReachable() bool {
	var m dto.Metric
	if err := upsReachable.Write(&m); err != nil {
		return false
	}
	return m.GetGauge().GetValue() == 1
}

func IncCacheHit(backend string)  { cacheHits.WithLabelValues(backend).Inc() }
func IncCacheMiss(backend string) { cacheMisses.WithLabelValues(backend).Inc() }
