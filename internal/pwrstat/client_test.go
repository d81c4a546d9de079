// SPDX-License-Identifier: MIT

package pwrstat_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

func ptr[T any](v T) *T { return &v }

func onOffTitle(v bool) string {
	if v {
		return "On"
	}
	return "Off"
}

func onOffArg(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// statusFixture renders `pwrstat -status` output the way a CP1500EPFCLCD
// prints it.
type statusFixture struct {
	modelName        string
	firmwareNumber   string
	ratingVoltage    int
	ratingPower      int
	state            string
	powerSupply      string
	utilityVoltage   int
	outputVoltage    int
	batteryCapacity  int
	remainingRuntime int
	loadWatts        int
	lineInteraction  string
	testResult       string
	lastPowerEvent   string
}

func defaultStatus() statusFixture {
	return statusFixture{
		modelName:        "CP1500EPFCLCD",
		firmwareNumber:   "CR0XXXXXXX",
		ratingVoltage:    230,
		ratingPower:      900,
		state:            "Normal",
		powerSupply:      "Utility Power",
		utilityVoltage:   230,
		outputVoltage:    230,
		batteryCapacity:  100,
		remainingRuntime: 129,
		loadWatts:        9,
		lineInteraction:  "None",
		testResult:       "Passed at 2022/07/21 16:16:42",
		lastPowerEvent:   "Blackout at 2022/07/21 15:10:43 for 24 sec.",
	}
}

func (f statusFixture) render() string {
	return fmt.Sprintf(`The UPS information shows as following:

	Properties:
		Model Name................... %s
		Firmware Number.............. %s
		Rating Voltage............... %d V
		Rating Power................. %d Watt

	Current UPS status:
		State........................ %s
		Power Supply by.............. %s
		Utility Voltage.............. %d V
		Output Voltage............... %d V
		Battery Capacity............. %d %%
		Remaining Runtime............ %d min.
		Load......................... %d Watt(%d %%)
		Line Interaction............. %s
		Test Result.................. %s
		Last Power Event............. %s
`,
		f.modelName, f.firmwareNumber, f.ratingVoltage, f.ratingPower,
		f.state, f.powerSupply, f.utilityVoltage, f.outputVoltage,
		f.batteryCapacity, f.remainingRuntime,
		f.loadWatts, f.loadWatts*100/f.ratingPower,
		f.lineInteraction, f.testResult, f.lastPowerEvent,
	)
}

// renderUnreachable mimics the truncated status block pwrstatd prints
// while it has no contact with the UPS.
func (f statusFixture) renderUnreachable() string {
	return fmt.Sprintf(`The UPS information shows as following:

	Properties:
		Model Name................... %s
		Firmware Number.............. %s
		Rating Voltage............... %d V
		Rating Power................. %d Watt

	Current UPS status:
		State........................ Lost Communication
		Test Result.................. %s
		Last Power Event............. %s
`,
		f.modelName, f.firmwareNumber, f.ratingVoltage, f.ratingPower,
		f.testResult, f.lastPowerEvent,
	)
}

// configFixture renders `pwrstat -config` output.
type configFixture struct {
	alarm      bool
	hibernate  bool
	cloud      bool
	pfDelay    int
	pfScript   bool
	pfPath     string
	pfDuration int
	pfShutdown bool
	blRuntime  int
	blCapacity int
	blScript   bool
	blPath     string
	blDuration int
	blShutdown bool
}

func defaultConfig() configFixture {
	return configFixture{
		alarm:      true,
		hibernate:  false,
		cloud:      false,
		pfDelay:    600,
		pfScript:   true,
		pfPath:     "/etc/pwrstatd-powerfail.sh",
		pfDuration: 0,
		pfShutdown: true,
		blRuntime:  600,
		blCapacity: 35,
		blScript:   true,
		blPath:     "/etc/pwrstatd-lowbatt.sh",
		blDuration: 0,
		blShutdown: true,
	}
}

func (f configFixture) render() string {
	return fmt.Sprintf(`Daemon Configuration:

Alarm .............................................. %s
Hibernate .......................................... %s
Cloud .............................................. %s

Action for Power Failure:

	Delay time since Power failure ............. %d sec.
	Run script command ......................... %s
	Path of script command ..................... %s
	Duration of command running ................ %d sec.
	Enable shutdown system ..................... %s

Action for Battery Low:

	Remaining runtime threshold ................ %d sec.
	Battery capacity threshold ................. %d %%.
	Run script command ......................... %s
	Path of command ............................ %s
	Duration of command running ................ %d sec.
	Enable shutdown system ..................... %s
`,
		onOffTitle(f.alarm), onOffTitle(f.hibernate), onOffTitle(f.cloud),
		f.pfDelay, onOffTitle(f.pfScript), f.pfPath, f.pfDuration, onOffTitle(f.pfShutdown),
		f.blRuntime, f.blCapacity, onOffTitle(f.blScript), f.blPath, f.blDuration, onOffTitle(f.blShutdown),
	)
}

type fakeCall struct {
	args   []string
	output string
	err    error
}

// fakeReader hands out scripted responses and fails the test on any
// deviation from the expected call sequence.
type fakeReader struct {
	t     *testing.T
	calls []fakeCall
	seen  int
}

func newFakeReader(t *testing.T) *fakeReader {
	t.Helper()
	f := &fakeReader{t: t}
	t.Cleanup(func() {
		if len(f.calls) != 0 {
			t.Errorf("expected %d more pwrstat calls, next would have been %v", len(f.calls), f.calls[0].args)
		}
	})
	return f
}

func (f *fakeReader) expect(output string, args ...string) {
	f.calls = append(f.calls, fakeCall{args: args, output: output})
}

func (f *fakeReader) expectErr(err error, args ...string) {
	f.calls = append(f.calls, fakeCall{args: args, err: err})
}

func (f *fakeReader) expectStatus(fx statusFixture) {
	f.expect(fx.render(), "-status")
}

func (f *fakeReader) expectUnreachableStatus(fx statusFixture) {
	f.expect(fx.renderUnreachable(), "-status")
}

func (f *fakeReader) expectConfig(fx configFixture) {
	f.expect(fx.render(), "-config")
}

func (f *fakeReader) Read(_ context.Context, args ...string) (string, error) {
	f.seen++
	if len(f.calls) == 0 {
		f.t.Fatalf("unexpected pwrstat call %v (call number %d)", args, f.seen)
	}
	call := f.calls[0]
	f.calls = f.calls[1:]
	require.Equal(f.t, call.args, args, "pwrstat call number %d", f.seen)
	if call.err != nil {
		return "", call.err
	}
	return call.output, nil
}

func newTestClient(t *testing.T) (*pwrstat.Client, *fakeReader) {
	t.Helper()
	reader := newFakeReader(t)
	return pwrstat.New(reader), reader
}

func TestClient_IsReachable(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectStatus(defaultStatus())
	reachable, err := client.IsReachable(context.Background())
	require.NoError(t, err)
	assert.True(t, reachable)

	reader.expectUnreachableStatus(defaultStatus())
	reachable, err = client.IsReachable(context.Background())
	require.NoError(t, err)
	assert.False(t, reachable)
}

func TestClient_PwrstatVersion(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expect("version:\npwrstat version 1.2.3", "-version")
	version, err := client.PwrstatVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", version)
}

func TestClient_PwrstatVersion_NoVersionLine(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expect("no such option", "-version")
	version, err := client.PwrstatVersion(context.Background())
	require.NoError(t, err)
	assert.Empty(t, version)
}

func TestClient_RawDaemonConfiguration(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectConfig(defaultConfig())
	got, err := client.RawDaemonConfiguration(context.Background())
	require.NoError(t, err)
	want := map[string]pwrstat.PropertyBag{
		"Daemon Configuration": {
			"Alarm":     "On",
			"Hibernate": "Off",
			"Cloud":     "Off",
		},
		"Action for Power Failure": {
			"Delay time since Power failure": "600 sec.",
			"Run script command":             "On",
			"Path of script command":         "/etc/pwrstatd-powerfail.sh",
			"Duration of command running":    "0 sec.",
			"Enable shutdown system":         "On",
		},
		"Action for Battery Low": {
			"Remaining runtime threshold": "600 sec.",
			"Battery capacity threshold":  "35 %.",
			"Run script command":          "On",
			"Path of command":             "/etc/pwrstatd-lowbatt.sh",
			"Duration of command running": "0 sec.",
			"Enable shutdown system":      "On",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("raw configuration mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_DaemonConfiguration(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectConfig(defaultConfig())
	got, err := client.DaemonConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &pwrstat.DaemonConfiguration{
		AlarmEnabled:     true,
		HibernateEnabled: false,
		CloudEnabled:     false,
		PowerFailureAction: pwrstat.PowerFailureAction{
			DelaySincePowerFailure: pwrstat.Duration(600 * time.Second),
			ScriptCommandEnabled:   true,
			ScriptCommandPath:      "/etc/pwrstatd-powerfail.sh",
			ScriptCommandDuration:  0,
			SystemShutdownEnabled:  true,
		},
		LowBatteryAction: pwrstat.LowBatteryAction{
			RemainingRuntimeThreshold:       pwrstat.Duration(600 * time.Second),
			BatteryCapacityThresholdPercent: 0.35,
			ScriptCommandEnabled:            true,
			ScriptCommandPath:               "/etc/pwrstatd-lowbatt.sh",
			ScriptCommandDuration:           0,
			SystemShutdownEnabled:           true,
		},
	}, got)
}

func TestClient_PowerFailureAction(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectConfig(defaultConfig())
	got, err := client.PowerFailureAction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &pwrstat.PowerFailureAction{
		DelaySincePowerFailure: pwrstat.Duration(600 * time.Second),
		ScriptCommandEnabled:   true,
		ScriptCommandPath:      "/etc/pwrstatd-powerfail.sh",
		ScriptCommandDuration:  0,
		SystemShutdownEnabled:  true,
	}, got)
}

func TestClient_LowBatteryAction(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectConfig(defaultConfig())
	got, err := client.LowBatteryAction(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &pwrstat.LowBatteryAction{
		RemainingRuntimeThreshold:       pwrstat.Duration(600 * time.Second),
		BatteryCapacityThresholdPercent: 0.35,
		ScriptCommandEnabled:            true,
		ScriptCommandPath:               "/etc/pwrstatd-lowbatt.sh",
		ScriptCommandDuration:           0,
		SystemShutdownEnabled:           true,
	}, got)
}

func TestClient_RawCompleteStatus(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectStatus(defaultStatus())
	got, err := client.RawCompleteStatus(context.Background(), false)
	require.NoError(t, err)
	want := map[string]pwrstat.PropertyBag{
		"The UPS information shows as following": {},
		"Properties": {
			"Model Name":      "CP1500EPFCLCD",
			"Firmware Number": "CR0XXXXXXX",
			"Rating Voltage":  "230 V",
			"Rating Power":    "900 Watt",
		},
		"Current UPS status": {
			"State":             "Normal",
			"Power Supply by":   "Utility Power",
			"Utility Voltage":   "230 V",
			"Output Voltage":    "230 V",
			"Battery Capacity":  "100 %",
			"Remaining Runtime": "129 min.",
			"Load":              "9 Watt(1 %)",
			"Line Interaction":  "None",
			"Test Result":       "Passed at 2022/07/21 16:16:42",
			"Last Power Event":  "Blackout at 2022/07/21 15:10:43 for 24 sec.",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("raw status mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_RawStatus(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectStatus(defaultStatus())
	got, err := client.RawStatus(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "Normal", got["State"])
	assert.Equal(t, "9 Watt(1 %)", got["Load"])
}

func TestClient_Status(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectStatus(defaultStatus())
	got, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &pwrstat.UPSStatus{
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
			TestTime: time.Date(2022, 7, 21, 16, 16, 42, 0, time.Local),
		},
		LastPowerEvent: &pwrstat.PowerEvent{
			EventType: "Blackout",
			EventTime: time.Date(2022, 7, 21, 15, 10, 43, 0, time.Local),
			Duration:  pwrstat.Duration(24 * time.Second),
		},
	}, got)
}

func TestClient_Status_Unreachable(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectUnreachableStatus(defaultStatus())
	_, err := client.Status(context.Background())
	require.ErrorIs(t, err, pwrstat.ErrUnreachable)
	require.ErrorIs(t, err, pwrstat.ErrNotReady)
	assert.Contains(t, err.Error(), "UPS is not reachable")
}

func TestClient_Status_ReadErrorPropagates(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectErr(&pwrstat.CommandError{Args: []string{"-status"}, ExitCode: 1}, "-status")
	_, err := client.Status(context.Background())
	require.ErrorIs(t, err, pwrstat.ErrCommandFailed)
}

func TestClient_RawProperties(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectStatus(defaultStatus())
	got, err := client.RawProperties(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, pwrstat.PropertyBag{
		"Model Name":      "CP1500EPFCLCD",
		"Firmware Number": "CR0XXXXXXX",
		"Rating Voltage":  "230 V",
		"Rating Power":    "900 Watt",
	}, got)
}

func TestClient_Properties(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectStatus(defaultStatus())
	got, err := client.Properties(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &pwrstat.UPSProperties{
		ModelName:          "CP1500EPFCLCD",
		FirmwareNumber:     "CR0XXXXXXX",
		RatingVoltageVolts: 230,
		RatingPowerWatts:   900,
	}, got)
}

func TestClient_TestUPS_PollsUntilResult(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		final    string
		want     *pwrstat.TestResult
	}{
		{
			name:     "no previous result",
			previous: "None",
			final:    "Failed at 2022/07/21 16:16:42",
			want: &pwrstat.TestResult{
				Status:   pwrstat.TestStatusFailed,
				TestTime: time.Date(2022, 7, 21, 16, 16, 42, 0, time.Local),
			},
		},
		{
			name:     "failed then passed",
			previous: "Failed at 2022/06/21 11:23:42",
			final:    "Passed at 2022/07/21 16:16:42",
			want: &pwrstat.TestResult{
				Status:   pwrstat.TestStatusPassed,
				TestTime: time.Date(2022, 7, 21, 16, 16, 42, 0, time.Local),
			},
		},
		{
			name:     "failed then failed again",
			previous: "Failed at 2022/06/21 11:23:42",
			final:    "Failed at 2022/07/21 16:16:42",
			want: &pwrstat.TestResult{
				Status:   pwrstat.TestStatusFailed,
				TestTime: time.Date(2022, 7, 21, 16, 16, 42, 0, time.Local),
			},
		},
		{
			name:     "passed then passed again",
			previous: "Passed at 2022/06/21 11:23:42",
			final:    "Passed at 2022/07/21 16:16:42",
			want: &pwrstat.TestResult{
				Status:   pwrstat.TestStatusPassed,
				TestTime: time.Date(2022, 7, 21, 16, 16, 42, 0, time.Local),
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, reader := newTestClient(t)
			fx := defaultStatus()
			fx.testResult = tc.previous
			reader.expectStatus(fx)
			reader.expect(`The UPS test is initiated, checking the result by command "pwrstat -status".`, "-test")
			reader.expectStatus(fx)
			inProgress := defaultStatus()
			inProgress.testResult = "In progress"
			reader.expectStatus(inProgress)
			reader.expectStatus(inProgress)
			reader.expectStatus(inProgress)
			done := defaultStatus()
			done.testResult = tc.final
			reader.expectStatus(done)

			got, err := client.TestUPS(context.Background(), pwrstat.TestOptions{
				PollResult: true,
				PollEvery:  time.Millisecond,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestClient_TestUPS_AlreadyInProgress(t *testing.T) {
	client, reader := newTestClient(t)
	fx := defaultStatus()
	fx.testResult = "In progress"
	reader.expectStatus(fx)
	_, err := client.TestUPS(context.Background(), pwrstat.DefaultTestOptions())
	require.ErrorIs(t, err, pwrstat.ErrNotReady)
	assert.NotErrorIs(t, err, pwrstat.ErrUnreachable)
}

func TestClient_TestUPS_NotAcknowledged(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectStatus(defaultStatus())
	reader.expect("The UPS is in a state that cannot test.", "-test")
	_, err := client.TestUPS(context.Background(), pwrstat.DefaultTestOptions())
	require.ErrorIs(t, err, pwrstat.ErrCommandFailed)
}

func TestClient_TestUPS_NoPollReturnsImmediately(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectStatus(defaultStatus())
	reader.expect(`The UPS test is initiated, checking the result by command "pwrstat -status".`, "-test")
	got, err := client.TestUPS(context.Background(), pwrstat.TestOptions{PollResult: false})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_TestUPS_Timeout(t *testing.T) {
	client, reader := newTestClient(t)
	fx := defaultStatus()
	fx.testResult = "None"
	reader.expectStatus(fx)
	reader.expect(`The UPS test is initiated, checking the result by command "pwrstat -status".`, "-test")
	inProgress := defaultStatus()
	inProgress.testResult = "In progress"
	reader.expectStatus(inProgress)

	_, err := client.TestUPS(context.Background(), pwrstat.TestOptions{
		PollResult: true,
		Timeout:    time.Nanosecond,
		PollEvery:  time.Millisecond,
	})
	require.ErrorIs(t, err, pwrstat.ErrTimeout)
	assert.Contains(t, err.Error(), "In Progress")
}

func TestClient_ResetDaemonConfiguration(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expect("", "-reset")
	require.NoError(t, client.ResetDaemonConfiguration(context.Background()))
}

func TestClient_HibernationEnabled(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		client, reader := newTestClient(t)
		fx := defaultConfig()
		fx.hibernate = enabled
		reader.expectConfig(fx)
		got, err := client.HibernationEnabled(context.Background())
		require.NoError(t, err)
		assert.Equal(t, enabled, got)
	}
}

func TestClient_SetHibernationEnabled(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		client, reader := newTestClient(t)
		reader.expect("Setup configuration successful.", "-hibernate", onOffArg(enabled))
		require.NoError(t, client.SetHibernationEnabled(context.Background(), enabled))
	}
}

func TestClient_AlarmEnabled(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		client, reader := newTestClient(t)
		fx := defaultConfig()
		fx.alarm = enabled
		reader.expectConfig(fx)
		got, err := client.AlarmEnabled(context.Background())
		require.NoError(t, err)
		assert.Equal(t, enabled, got)
	}
}

func TestClient_SetAlarmEnabled(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		client, reader := newTestClient(t)
		reader.expect("Setup configuration successful.", "-alarm", onOffArg(enabled))
		require.NoError(t, client.SetAlarmEnabled(context.Background(), enabled))
	}
}

func TestClient_Mute(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expect("Setup configuration successful.", "-mute")
	require.NoError(t, client.Mute(context.Background()))
}

func TestClient_SetupRejected(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expect("Operation failed.", "-mute")
	err := client.Mute(context.Background())
	require.ErrorIs(t, err, pwrstat.ErrSetupFailed)
	require.ErrorIs(t, err, pwrstat.ErrCommandFailed)
	assert.Contains(t, err.Error(), "Operation failed.")
}

func TestClient_ConfigurePowerFailureAction(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expect("Setup configuration successful.",
		"-pwrfail",
		"-delay", "600",
		"-active", "on",
		"-cmd", "/etc/pwrstatd-powerfail.sh",
		"-duration", "60",
		"-shutdown", "off",
	)
	err := client.ConfigurePowerFailureAction(context.Background(), pwrstat.PowerFailureActionConfig{
		ScriptCommandEnabled:   ptr(true),
		DelaySincePowerFailure: ptr(10 * time.Minute),
		ScriptCommandDuration:  ptr(60 * time.Second),
		ScriptCommandPath:      ptr("/etc/pwrstatd-powerfail.sh"),
		SystemShutdownEnabled:  ptr(false),
	})
	require.NoError(t, err)
}

func TestClient_ConfigurePowerFailureAction_PartialFlags(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expect("Setup configuration successful.", "-pwrfail", "-shutdown", "on")
	err := client.ConfigurePowerFailureAction(context.Background(), pwrstat.PowerFailureActionConfig{
		SystemShutdownEnabled: ptr(true),
	})
	require.NoError(t, err)
}

func TestClient_ConfigureLowBatteryAction(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expect("Setup configuration successful.",
		"-lowbatt",
		"-runtime", "1200",
		"-capacity", "50",
		"-active", "off",
		"-cmd", "/etc/pwrstatd-lowbatt.sh",
		"-duration", "120",
		"-shutdown", "on",
	)
	err := client.ConfigureLowBatteryAction(context.Background(), pwrstat.LowBatteryActionConfig{
		ScriptCommandEnabled:            ptr(false),
		RemainingRuntimeThreshold:       ptr(20 * time.Minute),
		BatteryCapacityThresholdPercent: ptr(0.5),
		ScriptCommandPath:               ptr("/etc/pwrstatd-lowbatt.sh"),
		ScriptCommandDuration:           ptr(120 * time.Second),
		SystemShutdownEnabled:           ptr(true),
	})
	require.NoError(t, err)
}

func TestClient_ConfigureLowBatteryAction_RejectsBadPercent(t *testing.T) {
	client, _ := newTestClient(t)
	err := client.ConfigureLowBatteryAction(context.Background(), pwrstat.LowBatteryActionConfig{
		BatteryCapacityThresholdPercent: ptr(50.0),
	})
	require.Error(t, err)
}

func TestClient_ConfigureCloud(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expect("Setup configuration successful.",
		"-cloud",
		"-active", "on",
		"-account", "dummy",
		"-password", "123456",
	)
	err := client.ConfigureCloud(context.Background(), pwrstat.CloudConfig{
		Enabled:  ptr(true),
		Account:  ptr("dummy"),
		Password: ptr("123456"),
	})
	require.NoError(t, err)
}

func TestClient_VerifyCloudConfiguration(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expect("Verify successful.", "-verify")
	ok, err := client.VerifyCloudConfiguration(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	reader.expect("Verify failed. Please check your account and password.", "-verify")
	ok, err = client.VerifyCloudConfiguration(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
