// SPDX-License-Identifier: MIT

package pwrstat

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutput_SectionsAndProperties(t *testing.T) {
	sample := `The UPS information shows as following:

	Properties:
		Model Name................... CP1500EPFCLCD
		Firmware Number.............. CR01XXXXXX
		Rating Voltage............... 230 V
		Rating Power................. 900 Watt

	Current UPS status:
		State........................ Lost Communication
		Test Result.................. Passed at 2022/07/21 16:16:42
		Last Power Event............. Blackout at 2022/07/21 15:10:43 for 24 sec.
`
	want := map[string]PropertyBag{
		"The UPS information shows as following": {},
		"Properties": {
			"Model Name":      "CP1500EPFCLCD",
			"Firmware Number": "CR01XXXXXX",
			"Rating Voltage":  "230 V",
			"Rating Power":    "900 Watt",
		},
		"Current UPS status": {
			"State":            "Lost Communication",
			"Test Result":      "Passed at 2022/07/21 16:16:42",
			"Last Power Event": "Blackout at 2022/07/21 15:10:43 for 24 sec.",
		},
	}
	if diff := cmp.Diff(want, parseOutput(sample)); diff != "" {
		t.Errorf("parseOutput mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLoadPercent(t *testing.T) {
	got, err := parseLoadPercent("27 Watt(3 %)")
	require.NoError(t, err)
	assert.InDelta(t, 0.03, got, 1e-9)

	_, err = parseLoadPercent("garbage")
	require.ErrorIs(t, err, ErrParse)
}

func TestParseTestResult(t *testing.T) {
	ts := func(y int, m time.Month, d, hh, mm, ss int) time.Time {
		return time.Date(y, m, d, hh, mm, ss, 0, time.Local)
	}
	tests := []struct {
		name string
		raw  string
		want *TestResult
	}{
		{"none", "None", nil},
		{"in progress", "In progress", &TestResult{Status: TestStatusInProgress}},
		{
			"passed", "Passed at 2022/07/21 17:13:45",
			&TestResult{Status: TestStatusPassed, TestTime: ts(2022, 7, 21, 17, 13, 45)},
		},
		{
			"failed", "Failed at 2022/02/10 11:09:32",
			&TestResult{Status: TestStatusFailed, TestTime: ts(2022, 2, 10, 11, 9, 32)},
		},
		// Anything unrecognized reads as "no result yet".
		{"unrecognized", "Rebooting maybe", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTestResult(tc.raw)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %+v, want %+v", got, tc.want)
		})
	}
}

func TestParsePowerEvent(t *testing.T) {
	ts := func(y int, m time.Month, d, hh, mm, ss int) time.Time {
		return time.Date(y, m, d, hh, mm, ss, 0, time.Local)
	}
	tests := []struct {
		name string
		raw  string
		want *PowerEvent
	}{
		{"none", "None", nil},
		{
			"blackout", "Blackout at 2022/07/21 17:13:45 for 15 sec.",
			&PowerEvent{
				EventType: "Blackout",
				EventTime: ts(2022, 7, 21, 17, 13, 45),
				Duration:  Duration(15 * time.Second),
			},
		},
		{
			"multi word type", "Over Voltage at 2022/02/10 11:09:32 for 642 sec.",
			&PowerEvent{
				EventType: "Over Voltage",
				EventTime: ts(2022, 2, 10, 11, 9, 32),
				Duration:  Duration(642 * time.Second),
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parsePowerEvent(tc.raw)
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %+v, want %+v", got, tc.want)
		})
	}
}

func TestIsReachable(t *testing.T) {
	reachable, err := isReachable(PropertyBag{"State": "Normal"})
	require.NoError(t, err)
	assert.True(t, reachable)

	reachable, err = isReachable(PropertyBag{"State": "Lost Communication"})
	require.NoError(t, err)
	assert.False(t, reachable)

	_, err = isReachable(PropertyBag{})
	require.ErrorIs(t, err, ErrParse)
}

func TestCheckPercent(t *testing.T) {
	for _, ok := range []float64{0.0, 0.5, 1.0} {
		_, err := checkPercent(ok)
		assert.NoError(t, err, "%v", ok)
	}
	for _, bad := range []float64{-1.0, 1.5, 50.0, 100.0} {
		_, err := checkPercent(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestParseOnOff(t *testing.T) {
	for _, raw := range []string{"on", "On", "ON", "oN"} {
		got, err := parseOnOff(raw)
		require.NoError(t, err)
		assert.True(t, got, raw)
	}
	for _, raw := range []string{"off", "Off", "OFF"} {
		got, err := parseOnOff(raw)
		require.NoError(t, err)
		assert.False(t, got, raw)
	}
	_, err := parseOnOff("maybe")
	assert.ErrorIs(t, err, ErrParse)
}

func TestParsePowerFailureAction(t *testing.T) {
	bag := PropertyBag{
		"Delay time since Power failure": "600 sec.",
		"Run script command":             "Off",
		"Path of script command":         "/etc/pwrstatd-powerfail.sh",
		"Duration of command running":    "60 sec.",
		"Enable shutdown system":         "On",
	}
	got, err := parsePowerFailureAction(bag)
	require.NoError(t, err)
	assert.Equal(t, PowerFailureAction{
		DelaySincePowerFailure: Duration(600 * time.Second),
		ScriptCommandEnabled:   false,
		ScriptCommandPath:      "/etc/pwrstatd-powerfail.sh",
		ScriptCommandDuration:  Duration(60 * time.Second),
		SystemShutdownEnabled:  true,
	}, got)

	delete(bag, "Run script command")
	_, err = parsePowerFailureAction(bag)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseLowBatteryAction(t *testing.T) {
	bag := PropertyBag{
		"Remaining runtime threshold": "200 sec.",
		"Battery capacity threshold":  "35 %",
		"Run script command":          "On",
		"Path of command":             "/etc/pwrstatd-lowbatt.sh",
		"Duration of command running": "0 sec.",
		"Enable shutdown system":      "Off",
	}
	got, err := parseLowBatteryAction(bag)
	require.NoError(t, err)
	assert.Equal(t, LowBatteryAction{
		RemainingRuntimeThreshold:       Duration(200 * time.Second),
		BatteryCapacityThresholdPercent: 0.35,
		ScriptCommandEnabled:            true,
		ScriptCommandPath:               "/etc/pwrstatd-lowbatt.sh",
		ScriptCommandDuration:           0,
		SystemShutdownEnabled:           false,
	}, got)
}

func TestParseStatus_MissingPropertyFails(t *testing.T) {
	_, err := parseStatus(PropertyBag{"State": "Normal"})
	require.ErrorIs(t, err, ErrParse)
}

func TestCommandLabel(t *testing.T) {
	assert.Equal(t, "status", commandLabel([]string{"-status"}))
	assert.Equal(t, "hibernate", commandLabel([]string{"-hibernate", "on"}))
	assert.Equal(t, "none", commandLabel(nil))
}
