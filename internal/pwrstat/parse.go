// SPDX-License-Identifier: MIT

package pwrstat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pwrstat prints sections introduced by a trailing colon, with properties
// below them padded by dot leaders:
//
//	Current UPS status:
//	    State........................ Normal
//	    Utility Voltage.............. 230 V
var (
	sectionRe  = regexp.MustCompile(`^\s*([^:]+):$`)
	propertyRe = regexp.MustCompile(`^\s*([^.]+)\.+\s+(.+)$`)
	loadRe     = regexp.MustCompile(`^\d+\s*Watt\((\d+)\s*%\)$`)
	testRe     = regexp.MustCompile(`^(\S+)\s+at\s+(\d{4}/\d{2}/\d{2}\s+\d{2}:\d{2}:\d{2})$`)
	eventRe    = regexp.MustCompile(`^([\w\s]+?)\s+at\s+(\d{4}/\d{2}/\d{2}\s+\d{2}:\d{2}:\d{2})\s+for\s+(\d+) sec\.$`)
	versionRe  = regexp.MustCompile(`^pwrstat version (\d+\.\d+\.\d+)$`)
)

const timestampLayout = "2006/01/02 15:04:05"

// Section and property names as printed by pwrstat.
const (
	sectionProperties   = "Properties"
	sectionStatus       = "Current UPS status"
	sectionDaemonConfig = "Daemon Configuration"
	sectionPowerFailure = "Action for Power Failure"
	sectionBatteryLow   = "Action for Battery Low"

	stateLostCommunication = "Lost Communication"
)

// PropertyBag holds the raw key/value pairs of one output section.
type PropertyBag map[string]string

// parseOutput splits pwrstat's human-readable output into sections of
// key/value properties. Lines that are neither section headers nor
// properties are ignored.
func parseOutput(output string) map[string]PropertyBag {
	parsed := make(map[string]PropertyBag)
	var current PropertyBag
	for _, line := range strings.Split(output, "\n") {
		if m := sectionRe.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			current = make(PropertyBag)
			parsed[name] = current
			continue
		}
		if m := propertyRe.FindStringSubmatch(line); m != nil && current != nil {
			current[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
		}
	}
	return parsed
}

// get looks up a property, reporting which section it was missing from.
func get(section string, bag PropertyBag, key string) (string, error) {
	value, ok := bag[key]
	if !ok {
		return "", fmt.Errorf("section %q has no property %q: %w", section, key, ErrParse)
	}
	return value, nil
}

// firstField mirrors how pwrstat values are read: the leading token
// before the unit suffix ("230 V" -> "230", "129 min." -> "129").
func firstField(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseFloatValue(what, raw string) (float64, error) {
	v, err := strconv.ParseFloat(firstField(raw), 64)
	if err != nil {
		return 0, &ParseError{What: what, Value: raw}
	}
	return v, nil
}

func parseSecondsValue(what, raw string) (Duration, error) {
	v, err := strconv.Atoi(firstField(raw))
	if err != nil {
		return 0, &ParseError{What: what, Value: raw}
	}
	return Duration(time.Duration(v) * time.Second), nil
}

func parseMinutesValue(what, raw string) (Duration, error) {
	v, err := strconv.Atoi(firstField(raw))
	if err != nil {
		return 0, &ParseError{What: what, Value: raw}
	}
	return Duration(time.Duration(v) * time.Minute), nil
}

// parsePercentValue turns "35 %." or "100 %" into a fraction in [0,1].
func parsePercentValue(what, raw string) (float64, error) {
	v, err := strconv.ParseFloat(firstField(raw), 64)
	if err != nil {
		return 0, &ParseError{What: what, Value: raw}
	}
	return v / 100.0, nil
}

func parseOnOff(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, &ParseError{What: "on/off", Value: raw}
}

func onOff(value bool) string {
	if value {
		return "on"
	}
	return "off"
}

// parseLoadPercent extracts the percent half of a "9 Watt(1 %)" load
// value as a fraction in [0,1].
func parseLoadPercent(raw string) (float64, error) {
	m := loadRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, &ParseError{What: "load (%)", Value: raw}
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, &ParseError{What: "load (%)", Value: raw}
	}
	return v / 100.0, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(timestampLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, &ParseError{What: "timestamp", Value: raw}
	}
	return t, nil
}

// parseTestResult turns the "Test Result" value into a TestResult. "None"
// and unrecognized values yield nil. pwrstat reports a running test as
// "In progress"; any finished status other than "Passed" counts as
// failed.
func parseTestResult(raw string) (*TestResult, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "None" {
		return nil, nil
	}
	if trimmed == "In progress" {
		return &TestResult{Status: TestStatusInProgress}, nil
	}
	m := testRe.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, nil
	}
	at, err := parseTimestamp(m[2])
	if err != nil {
		return nil, err
	}
	status := TestStatusFailed
	if m[1] == "Passed" {
		status = TestStatusPassed
	}
	return &TestResult{Status: status, TestTime: at}, nil
}

// parsePowerEvent turns the "Last Power Event" value into a PowerEvent.
// "None" and unrecognized values yield nil.
func parsePowerEvent(raw string) (*PowerEvent, error) {
	m := eventRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, nil
	}
	at, err := parseTimestamp(m[2])
	if err != nil {
		return nil, err
	}
	secs, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, &ParseError{What: "power event", Value: raw}
	}
	return &PowerEvent{
		EventType: m[1],
		EventTime: at,
		Duration:  Duration(time.Duration(secs) * time.Second),
	}, nil
}

func parsePowerFailureAction(bag PropertyBag) (PowerFailureAction, error) {
	var action PowerFailureAction
	raw, err := get(sectionPowerFailure, bag, "Delay time since Power failure")
	if err != nil {
		return action, err
	}
	if action.DelaySincePowerFailure, err = parseSecondsValue("delay", raw); err != nil {
		return action, err
	}
	if raw, err = get(sectionPowerFailure, bag, "Run script command"); err != nil {
		return action, err
	}
	if action.ScriptCommandEnabled, err = parseOnOff(raw); err != nil {
		return action, err
	}
	if action.ScriptCommandPath, err = get(sectionPowerFailure, bag, "Path of script command"); err != nil {
		return action, err
	}
	if raw, err = get(sectionPowerFailure, bag, "Duration of command running"); err != nil {
		return action, err
	}
	if action.ScriptCommandDuration, err = parseSecondsValue("duration", raw); err != nil {
		return action, err
	}
	if raw, err = get(sectionPowerFailure, bag, "Enable shutdown system"); err != nil {
		return action, err
	}
	if action.SystemShutdownEnabled, err = parseOnOff(raw); err != nil {
		return action, err
	}
	return action, nil
}

func parseLowBatteryAction(bag PropertyBag) (LowBatteryAction, error) {
	var action LowBatteryAction
	raw, err := get(sectionBatteryLow, bag, "Remaining runtime threshold")
	if err != nil {
		return action, err
	}
	if action.RemainingRuntimeThreshold, err = parseSecondsValue("runtime threshold", raw); err != nil {
		return action, err
	}
	if raw, err = get(sectionBatteryLow, bag, "Battery capacity threshold"); err != nil {
		return action, err
	}
	if action.BatteryCapacityThresholdPercent, err = parsePercentValue("capacity threshold", raw); err != nil {
		return action, err
	}
	if raw, err = get(sectionBatteryLow, bag, "Run script command"); err != nil {
		return action, err
	}
	if action.ScriptCommandEnabled, err = parseOnOff(raw); err != nil {
		return action, err
	}
	if action.ScriptCommandPath, err = get(sectionBatteryLow, bag, "Path of command"); err != nil {
		return action, err
	}
	if raw, err = get(sectionBatteryLow, bag, "Duration of command running"); err != nil {
		return action, err
	}
	if action.ScriptCommandDuration, err = parseSecondsValue("duration", raw); err != nil {
		return action, err
	}
	if raw, err = get(sectionBatteryLow, bag, "Enable shutdown system"); err != nil {
		return action, err
	}
	if action.SystemShutdownEnabled, err = parseOnOff(raw); err != nil {
		return action, err
	}
	return action, nil
}

func parseStatus(bag PropertyBag) (*UPSStatus, error) {
	status := &UPSStatus{}
	var err error
	if status.State, err = get(sectionStatus, bag, "State"); err != nil {
		return nil, err
	}
	if status.PowerSupplyBy, err = get(sectionStatus, bag, "Power Supply by"); err != nil {
		return nil, err
	}
	raw, err := get(sectionStatus, bag, "Utility Voltage")
	if err != nil {
		return nil, err
	}
	if status.UtilityVoltageVolts, err = parseFloatValue("utility voltage", raw); err != nil {
		return nil, err
	}
	if raw, err = get(sectionStatus, bag, "Output Voltage"); err != nil {
		return nil, err
	}
	if status.OutputVoltageVolts, err = parseFloatValue("output voltage", raw); err != nil {
		return nil, err
	}
	if raw, err = get(sectionStatus, bag, "Battery Capacity"); err != nil {
		return nil, err
	}
	if status.BatteryCapacityPercent, err = parsePercentValue("battery capacity", raw); err != nil {
		return nil, err
	}
	if raw, err = get(sectionStatus, bag, "Remaining Runtime"); err != nil {
		return nil, err
	}
	if status.RemainingRuntime, err = parseMinutesValue("remaining runtime", raw); err != nil {
		return nil, err
	}
	if raw, err = get(sectionStatus, bag, "Load"); err != nil {
		return nil, err
	}
	if status.LoadWatts, err = parseFloatValue("load", raw); err != nil {
		return nil, err
	}
	if status.LoadPercent, err = parseLoadPercent(raw); err != nil {
		return nil, err
	}
	if status.LineInteraction, err = get(sectionStatus, bag, "Line Interaction"); err != nil {
		return nil, err
	}
	if raw, err = get(sectionStatus, bag, "Test Result"); err != nil {
		return nil, err
	}
	if status.TestResult, err = parseTestResult(raw); err != nil {
		return nil, err
	}
	if raw, err = get(sectionStatus, bag, "Last Power Event"); err != nil {
		return nil, err
	}
	if status.LastPowerEvent, err = parsePowerEvent(raw); err != nil {
		return nil, err
	}
	return status, nil
}

func parseProperties(bag PropertyBag) (*UPSProperties, error) {
	props := &UPSProperties{}
	var err error
	if props.ModelName, err = get(sectionProperties, bag, "Model Name"); err != nil {
		return nil, err
	}
	if props.FirmwareNumber, err = get(sectionProperties, bag, "Firmware Number"); err != nil {
		return nil, err
	}
	raw, err := get(sectionProperties, bag, "Rating Voltage")
	if err != nil {
		return nil, err
	}
	if props.RatingVoltageVolts, err = parseFloatValue("rating voltage", raw); err != nil {
		return nil, err
	}
	if raw, err = get(sectionProperties, bag, "Rating Power"); err != nil {
		return nil, err
	}
	if props.RatingPowerWatts, err = parseFloatValue("rating power", raw); err != nil {
		return nil, err
	}
	return props, nil
}

// isReachable reports whether the status section says the daemon can talk
// to the UPS.
func isReachable(bag PropertyBag) (bool, error) {
	state, err := get(sectionStatus, bag, "State")
	if err != nil {
		return false, err
	}
	return state != stateLostCommunication, nil
}

// checkPercent validates a caller-supplied fraction before it is handed
// to pwrstat.
func checkPercent(value float64) (float64, error) {
	if value < 0.0 || value > 1.0 {
		return 0, fmt.Errorf("percent must be between 0.0 and 1.0 (inclusive), not %v", value)
	}
	return value, nil
}
