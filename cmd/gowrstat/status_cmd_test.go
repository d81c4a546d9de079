// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

func sampleStatus() *pwrstat.UPSStatus {
	return &pwrstat.UPSStatus{
		State:                  "Normal",
		PowerSupplyBy:          "Utility Power",
		UtilityVoltageVolts:    230,
		OutputVoltageVolts:     230,
		BatteryCapacityPercent: 1.0,
		RemainingRuntime:       pwrstat.Duration(129 * time.Minute),
		LoadWatts:              9,
		LoadPercent:            0.01,
		LineInteraction:        "None",
		TestResult: &pwrstat.TestResult{
			Status:   pwrstat.TestStatusPassed,
			TestTime: time.Date(2022, 7, 21, 16, 16, 42, 0, time.UTC),
		},
		LastPowerEvent: &pwrstat.PowerEvent{
			EventType: "Blackout",
			EventTime: time.Date(2022, 7, 21, 15, 10, 43, 0, time.UTC),
			Duration:  pwrstat.Duration(24 * time.Second),
		},
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, sampleStatus())
	out := buf.String()

	for _, want := range []string{
		"State",
		"Normal",
		"Utility Voltage",
		"230 V",
		"Battery Capacity",
		"100 %",
		"2h9m0s",
		"9 W (1 %)",
		"Passed at 2022-07-21 16:16:42",
		"Blackout at 2022-07-21 15:10:43 for 24s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTestResult(t *testing.T) {
	if got := formatTestResult(nil); got != "none" {
		t.Errorf("nil result = %q, want none", got)
	}
	inProgress := &pwrstat.TestResult{Status: pwrstat.TestStatusInProgress}
	if got := formatTestResult(inProgress); got != "In Progress" {
		t.Errorf("in-progress result = %q", got)
	}
	passed := &pwrstat.TestResult{
		Status:   pwrstat.TestStatusPassed,
		TestTime: time.Date(2022, 7, 21, 16, 16, 42, 0, time.UTC),
	}
	if got := formatTestResult(passed); got != "Passed at 2022-07-21 16:16:42" {
		t.Errorf("passed result = %q", got)
	}
}

func TestFormatPowerEvent(t *testing.T) {
	if got := formatPowerEvent(nil); got != "none" {
		t.Errorf("nil event = %q, want none", got)
	}
	ev := &pwrstat.PowerEvent{
		EventType: "Blackout",
		EventTime: time.Date(2022, 7, 21, 15, 10, 43, 0, time.UTC),
		Duration:  pwrstat.Duration(24 * time.Second),
	}
	if got := formatPowerEvent(ev); got != "Blackout at 2022-07-21 15:10:43 for 24s" {
		t.Errorf("event = %q", got)
	}
}

func TestPrintDaemonConfiguration(t *testing.T) {
	var buf bytes.Buffer
	printDaemonConfiguration(&buf, &pwrstat.DaemonConfiguration{
		AlarmEnabled: true,
		PowerFailureAction: pwrstat.PowerFailureAction{
			DelaySincePowerFailure: pwrstat.Duration(30 * time.Second),
			ScriptCommandEnabled:   true,
			ScriptCommandPath:      "/etc/pwrstatd-powerfail.sh",
			SystemShutdownEnabled:  true,
		},
		LowBatteryAction: pwrstat.LowBatteryAction{
			RemainingRuntimeThreshold:       pwrstat.Duration(5 * time.Minute),
			BatteryCapacityThresholdPercent: 0.35,
		},
	})
	out := buf.String()

	for _, want := range []string{
		"Alarm", "on",
		"Hibernate", "off",
		"Power Failure Action",
		"/etc/pwrstatd-powerfail.sh",
		"Low Battery Action",
		"5m0s",
		"35 %",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}
