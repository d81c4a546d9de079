// SPDX-License-Identifier: MIT

package pwrstat

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration so pwrstat quantities (delays, runtimes,
// script durations) serialize as whole seconds on the wire instead of
// nanoseconds.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(time.Duration(d) / time.Second))
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var secs int64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("duration seconds: %w", err)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

// TestStatus is the outcome of a UPS self-test as reported by pwrstat.
type TestStatus string

const (
	TestStatusInProgress TestStatus = "In Progress"
	TestStatusPassed     TestStatus = "Passed"
	TestStatusFailed     TestStatus = "Failed"
)

// TestResult describes the most recent UPS self-test. TestTime is zero
// while the test is still in progress.
type TestResult struct {
	Status   TestStatus `json:"status"`
	TestTime time.Time  `json:"test_time"`
}

// Equal reports whether two results describe the same test outcome.
func (r *TestResult) Equal(other *TestResult) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Status == other.Status && r.TestTime.Equal(other.TestTime)
}

// PowerEvent describes the most recent utility power incident (blackout,
// over-voltage, ...) and how long it lasted.
type PowerEvent struct {
	EventType string    `json:"event_type"`
	EventTime time.Time `json:"event_time"`
	Duration  Duration  `json:"duration_seconds"`
}

// Equal reports whether two power events are the same incident.
func (p *PowerEvent) Equal(other *PowerEvent) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.EventType == other.EventType &&
		p.EventTime.Equal(other.EventTime) &&
		p.Duration == other.Duration
}

// UPSStatus is the live state block of `pwrstat -status`.
//
// BatteryCapacityPercent and LoadPercent are fractions in [0,1], so 1.0
// means a full battery and a fully loaded UPS respectively.
type UPSStatus struct {
	State                  string      `json:"state"`
	PowerSupplyBy          string      `json:"power_supply_by"`
	UtilityVoltageVolts    float64     `json:"utility_voltage_volts"`
	OutputVoltageVolts     float64     `json:"output_voltage_volts"`
	BatteryCapacityPercent float64     `json:"battery_capacity_percent"`
	RemainingRuntime       Duration    `json:"remaining_runtime_seconds"`
	LoadWatts              float64     `json:"load_watts"`
	LoadPercent            float64     `json:"load_percent"`
	LineInteraction        string      `json:"line_interaction"`
	TestResult             *TestResult `json:"test_result"`
	LastPowerEvent         *PowerEvent `json:"last_power_event"`
}

// Equal reports whether two status snapshots are field-for-field equal.
func (s *UPSStatus) Equal(other *UPSStatus) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.State == other.State &&
		s.PowerSupplyBy == other.PowerSupplyBy &&
		s.UtilityVoltageVolts == other.UtilityVoltageVolts &&
		s.OutputVoltageVolts == other.OutputVoltageVolts &&
		s.BatteryCapacityPercent == other.BatteryCapacityPercent &&
		s.RemainingRuntime == other.RemainingRuntime &&
		s.LoadWatts == other.LoadWatts &&
		s.LoadPercent == other.LoadPercent &&
		s.LineInteraction == other.LineInteraction &&
		s.TestResult.Equal(other.TestResult) &&
		s.LastPowerEvent.Equal(other.LastPowerEvent)
}

// UPSProperties is the static device block of `pwrstat -status`.
type UPSProperties struct {
	ModelName          string  `json:"model_name"`
	FirmwareNumber     string  `json:"firmware_number"`
	RatingVoltageVolts float64 `json:"rating_voltage_volts"`
	RatingPowerWatts   float64 `json:"rating_power_watts"`
}

// PowerFailureAction is the daemon's reaction to a utility power failure.
type PowerFailureAction struct {
	DelaySincePowerFailure Duration `json:"delay_time_since_power_failure_seconds"`
	ScriptCommandEnabled   bool     `json:"script_command_enabled"`
	ScriptCommandPath      string   `json:"script_command_path"`
	ScriptCommandDuration  Duration `json:"script_command_duration_seconds"`
	SystemShutdownEnabled  bool     `json:"system_shutdown_enabled"`
}

// LowBatteryAction is the daemon's reaction to the battery running low.
// BatteryCapacityThresholdPercent is a fraction in [0,1].
type LowBatteryAction struct {
	RemainingRuntimeThreshold       Duration `json:"remaining_runtime_threshold_seconds"`
	BatteryCapacityThresholdPercent float64  `json:"battery_capacity_threshold_percent"`
	ScriptCommandEnabled            bool     `json:"script_command_enabled"`
	ScriptCommandPath               string   `json:"script_command_path"`
	ScriptCommandDuration           Duration `json:"script_command_duration_seconds"`
	SystemShutdownEnabled           bool     `json:"system_shutdown_enabled"`
}

// DaemonConfiguration is the parsed output of `pwrstat -config`.
type DaemonConfiguration struct {
	AlarmEnabled       bool               `json:"alarm_enabled"`
	HibernateEnabled   bool               `json:"hibernate_enabled"`
	CloudEnabled       bool               `json:"cloud_enabled"`
	PowerFailureAction PowerFailureAction `json:"power_failure_action"`
	LowBatteryAction   LowBatteryAction   `json:"low_battery_action"`
}
