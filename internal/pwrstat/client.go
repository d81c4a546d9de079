// SPDX-License-Identifier: MIT

// Package pwrstat wraps CyberPower's pwrstat command line utility: it
// invokes the binary, parses its human-readable output into typed values
// and watches the UPS for state changes.
//
// The package is transport-free. HTTP, persistence and metrics servers
// live elsewhere and consume it through the Client and Monitor types.
package pwrstat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Acknowledgment strings printed by pwrstat.
const (
	setupSuccessPrefix  = "Setup configuration successful"
	testInitiatedMarker = "The UPS test is initiated"
	cloudVerifyFailed   = "Verify failed"
)

// Client exposes pwrstat's operations as typed calls. All methods take a
// context that bounds the underlying invocation; they are safe for
// concurrent use as long as the Reader is.
type Client struct {
	reader Reader
}

// New returns a client on top of the given reader.
func New(reader Reader) *Client {
	return &Client{reader: reader}
}

// IsReachable reports whether the daemon can talk to the UPS. pwrstat
// itself exits zero either way; reachability is read off the status
// section's State property.
func (c *Client) IsReachable(ctx context.Context) (bool, error) {
	data, err := c.RawCompleteStatus(ctx, false)
	if err != nil {
		return false, err
	}
	return isReachable(data[sectionStatus])
}

// PwrstatVersion returns the wrapped binary's version as reported by
// `pwrstat -version`, or "" when no version line is present.
func (c *Client) PwrstatVersion(ctx context.Context) (string, error) {
	output, err := c.reader.Read(ctx, "-version")
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(output, "\n") {
		if m := versionRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1], nil
		}
	}
	return "", nil
}

// RawDaemonConfiguration returns the `pwrstat -config` output as sections
// of raw string properties.
func (c *Client) RawDaemonConfiguration(ctx context.Context) (map[string]PropertyBag, error) {
	output, err := c.reader.Read(ctx, "-config")
	if err != nil {
		return nil, err
	}
	return parseOutput(output), nil
}

// DaemonConfiguration returns the parsed pwrstatd configuration.
func (c *Client) DaemonConfiguration(ctx context.Context) (*DaemonConfiguration, error) {
	data, err := c.RawDaemonConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	cfg := &DaemonConfiguration{}
	section, ok := data[sectionDaemonConfig]
	if !ok {
		return nil, fmt.Errorf("missing section %q: %w", sectionDaemonConfig, ErrParse)
	}
	raw, err := get(sectionDaemonConfig, section, "Alarm")
	if err != nil {
		return nil, err
	}
	if cfg.AlarmEnabled, err = parseOnOff(raw); err != nil {
		return nil, err
	}
	if raw, err = get(sectionDaemonConfig, section, "Hibernate"); err != nil {
		return nil, err
	}
	if cfg.HibernateEnabled, err = parseOnOff(raw); err != nil {
		return nil, err
	}
	if raw, err = get(sectionDaemonConfig, section, "Cloud"); err != nil {
		return nil, err
	}
	if cfg.CloudEnabled, err = parseOnOff(raw); err != nil {
		return nil, err
	}
	pfSection, ok := data[sectionPowerFailure]
	if !ok {
		return nil, fmt.Errorf("missing section %q: %w", sectionPowerFailure, ErrParse)
	}
	if cfg.PowerFailureAction, err = parsePowerFailureAction(pfSection); err != nil {
		return nil, err
	}
	blSection, ok := data[sectionBatteryLow]
	if !ok {
		return nil, fmt.Errorf("missing section %q: %w", sectionBatteryLow, ErrParse)
	}
	if cfg.LowBatteryAction, err = parseLowBatteryAction(blSection); err != nil {
		return nil, err
	}
	return cfg, nil
}

// PowerFailureAction returns the "Action for Power Failure" part of the
// daemon configuration.
func (c *Client) PowerFailureAction(ctx context.Context) (*PowerFailureAction, error) {
	cfg, err := c.DaemonConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	return &cfg.PowerFailureAction, nil
}

// LowBatteryAction returns the "Action for Battery Low" part of the
// daemon configuration.
func (c *Client) LowBatteryAction(ctx context.Context) (*LowBatteryAction, error) {
	cfg, err := c.DaemonConfiguration(ctx)
	if err != nil {
		return nil, err
	}
	return &cfg.LowBatteryAction, nil
}

// RawCompleteStatus returns the full `pwrstat -status` output as sections
// of raw string properties. With checkReachable it fails with an
// ErrUnreachable error when the UPS is in Lost Communication.
func (c *Client) RawCompleteStatus(ctx context.Context, checkReachable bool) (map[string]PropertyBag, error) {
	output, err := c.reader.Read(ctx, "-status")
	if err != nil {
		return nil, err
	}
	data := parseOutput(output)
	if checkReachable {
		reachable, err := isReachable(data[sectionStatus])
		if err != nil {
			return nil, err
		}
		if !reachable {
			return nil, NewUnreachableError("UPS is not reachable")
		}
	}
	return data, nil
}

// RawStatus returns the raw "Current UPS status" section.
func (c *Client) RawStatus(ctx context.Context, checkReachable bool) (PropertyBag, error) {
	data, err := c.RawCompleteStatus(ctx, checkReachable)
	if err != nil {
		return nil, err
	}
	return data[sectionStatus], nil
}

// Status returns the parsed "Current UPS status" section. It fails with
// an ErrUnreachable error when the UPS is in Lost Communication.
func (c *Client) Status(ctx context.Context) (*UPSStatus, error) {
	bag, err := c.RawStatus(ctx, true)
	if err != nil {
		return nil, err
	}
	return parseStatus(bag)
}

// RawProperties returns the raw "Properties" section.
func (c *Client) RawProperties(ctx context.Context, checkReachable bool) (PropertyBag, error) {
	data, err := c.RawCompleteStatus(ctx, checkReachable)
	if err != nil {
		return nil, err
	}
	return data[sectionProperties], nil
}

// Properties returns the parsed "Properties" section. It fails with an
// ErrUnreachable error when the UPS is in Lost Communication.
func (c *Client) Properties(ctx context.Context) (*UPSProperties, error) {
	bag, err := c.RawProperties(ctx, true)
	if err != nil {
		return nil, err
	}
	return parseProperties(bag)
}

// TestOptions controls TestUPS polling.
type TestOptions struct {
	// PollResult waits for the test to finish and returns its result.
	PollResult bool
	// Timeout gives up polling after this long. Zero polls forever.
	Timeout time.Duration
	// PollEvery is the delay between result polls (1s if zero).
	PollEvery time.Duration
}

// DefaultTestOptions waits for the result, polling once a second without
// a cutoff.
func DefaultTestOptions() TestOptions {
	return TestOptions{PollResult: true, PollEvery: time.Second}
}

// TestUPS starts a UPS self-test (as run by `pwrstat -test`) and, when
// polling is on, waits until the reported test result changes to a
// finished one.
//
// It fails with an ErrNotReady error if a test is already in progress,
// an ErrCommandFailed error if pwrstat did not acknowledge the test, and
// an ErrTimeout error when the cutoff elapses first. Without polling the
// returned result is nil.
func (c *Client) TestUPS(ctx context.Context, opts TestOptions) (*TestResult, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	previous := status.TestResult
	if previous != nil && previous.Status == TestStatusInProgress {
		return nil, fmt.Errorf("a test is already in progress: %w", ErrNotReady)
	}
	output, err := c.reader.Read(ctx, "-test")
	if err != nil {
		return nil, err
	}
	if !strings.Contains(output, testInitiatedMarker) {
		return nil, &CommandError{Args: []string{"-test"}, Output: output}
	}
	if !opts.PollResult {
		return nil, nil
	}

	pollEvery := opts.PollEvery
	if pollEvery <= 0 {
		pollEvery = time.Second
	}
	var cutoff time.Time
	if opts.Timeout > 0 {
		cutoff = time.Now().Add(opts.Timeout)
	}
	start := time.Now()
	for {
		status, err := c.Status(ctx)
		if err != nil {
			return nil, err
		}
		last := status.TestResult
		if last.Equal(previous) {
			// unchanged, keep polling
		} else if last != nil && last.Status != TestStatusInProgress {
			return last, nil
		}
		if !cutoff.IsZero() && time.Now().After(cutoff) {
			lastStatus := "unknown"
			if last != nil {
				lastStatus = string(last.Status)
			}
			return nil, fmt.Errorf(
				"timed out waiting for test results after %s, last status was %q: %w",
				time.Since(start).Round(time.Millisecond), lastStatus, ErrTimeout,
			)
		}
		if err := sleepCtx(ctx, pollEvery); err != nil {
			return nil, err
		}
	}
}

// ResetDaemonConfiguration resets all pwrstatd configuration to defaults
// (as run by `pwrstat -reset`).
func (c *Client) ResetDaemonConfiguration(ctx context.Context) error {
	_, err := c.reader.Read(ctx, "-reset")
	return err
}

// HibernationEnabled reports whether hibernation (vs. shutdown) is the
// configured reaction.
func (c *Client) HibernationEnabled(ctx context.Context) (bool, error) {
	cfg, err := c.DaemonConfiguration(ctx)
	if err != nil {
		return false, err
	}
	return cfg.HibernateEnabled, nil
}

// SetHibernationEnabled switches between hibernation and shutdown (as run
// by `pwrstat -hibernate on|off`).
func (c *Client) SetHibernationEnabled(ctx context.Context, enabled bool) error {
	return c.checkSetup(ctx, "-hibernate", onOff(enabled))
}

// AlarmEnabled reports whether the UPS alarm is enabled.
func (c *Client) AlarmEnabled(ctx context.Context) (bool, error) {
	cfg, err := c.DaemonConfiguration(ctx)
	if err != nil {
		return false, err
	}
	return cfg.AlarmEnabled, nil
}

// SetAlarmEnabled switches the UPS alarm (as run by `pwrstat -alarm
// on|off`).
func (c *Client) SetAlarmEnabled(ctx context.Context, enabled bool) error {
	return c.checkSetup(ctx, "-alarm", onOff(enabled))
}

// Mute temporarily silences an enabled alarm until the next event (as run
// by `pwrstat -mute`).
func (c *Client) Mute(ctx context.Context) error {
	return c.checkSetup(ctx, "-mute")
}

// PowerFailureActionConfig selects which power failure settings to
// override; nil fields keep the daemon's current value.
type PowerFailureActionConfig struct {
	ScriptCommandEnabled   *bool
	DelaySincePowerFailure *time.Duration
	ScriptCommandDuration  *time.Duration
	ScriptCommandPath      *string
	SystemShutdownEnabled  *bool
}

// LowBatteryActionConfig selects which low battery settings to override;
// nil fields keep the daemon's current value.
// BatteryCapacityThresholdPercent is a fraction in [0,1].
type LowBatteryActionConfig struct {
	ScriptCommandEnabled            *bool
	RemainingRuntimeThreshold       *time.Duration
	BatteryCapacityThresholdPercent *float64
	ScriptCommandDuration           *time.Duration
	ScriptCommandPath               *string
	SystemShutdownEnabled           *bool
}

// CloudConfig selects which cloud settings to override; nil fields keep
// the daemon's current value.
type CloudConfig struct {
	Enabled  *bool
	Account  *string
	Password *string
}

// ConfigurePowerFailureAction updates the daemon's power failure reaction
// (as run by `pwrstat -pwrfail ...`).
func (c *Client) ConfigurePowerFailureAction(ctx context.Context, cfg PowerFailureActionConfig) error {
	return c.configureAction(ctx, actionArgs{
		action:   "-pwrfail",
		delay:    cfg.DelaySincePowerFailure,
		active:   cfg.ScriptCommandEnabled,
		cmd:      cfg.ScriptCommandPath,
		duration: cfg.ScriptCommandDuration,
		shutdown: cfg.SystemShutdownEnabled,
	})
}

// ConfigureLowBatteryAction updates the daemon's low battery reaction (as
// run by `pwrstat -lowbatt ...`).
func (c *Client) ConfigureLowBatteryAction(ctx context.Context, cfg LowBatteryActionConfig) error {
	return c.configureAction(ctx, actionArgs{
		action:   "-lowbatt",
		runtime:  cfg.RemainingRuntimeThreshold,
		capacity: cfg.BatteryCapacityThresholdPercent,
		active:   cfg.ScriptCommandEnabled,
		cmd:      cfg.ScriptCommandPath,
		duration: cfg.ScriptCommandDuration,
		shutdown: cfg.SystemShutdownEnabled,
	})
}

// ConfigureCloud updates the PowerPanel cloud settings (as run by
// `pwrstat -cloud ...`).
func (c *Client) ConfigureCloud(ctx context.Context, cfg CloudConfig) error {
	args := []string{"-cloud"}
	if cfg.Enabled != nil {
		args = append(args, "-active", onOff(*cfg.Enabled))
	}
	if cfg.Account != nil {
		args = append(args, "-account", *cfg.Account)
	}
	if cfg.Password != nil {
		args = append(args, "-password", *cfg.Password)
	}
	return c.checkSetup(ctx, args...)
}

// VerifyCloudConfiguration checks that PowerPanel can log in to the cloud
// server (as run by `pwrstat -verify`).
func (c *Client) VerifyCloudConfiguration(ctx context.Context) (bool, error) {
	output, err := c.reader.Read(ctx, "-verify")
	if err != nil {
		return false, err
	}
	return !strings.Contains(output, cloudVerifyFailed), nil
}

// actionArgs carries the optional flags shared by -pwrfail and -lowbatt.
// pwrstat is picky about flag order, so they are always emitted in the
// order delay, runtime, capacity, active, cmd, duration, shutdown.
type actionArgs struct {
	action   string
	delay    *time.Duration
	runtime  *time.Duration
	capacity *float64
	active   *bool
	cmd      *string
	duration *time.Duration
	shutdown *bool
}

func (c *Client) configureAction(ctx context.Context, a actionArgs) error {
	args := []string{a.action}
	if a.delay != nil {
		args = append(args, "-delay", strconv.Itoa(int(a.delay.Seconds())))
	}
	if a.runtime != nil {
		args = append(args, "-runtime", strconv.Itoa(int(a.runtime.Seconds())))
	}
	if a.capacity != nil {
		capacity, err := checkPercent(*a.capacity)
		if err != nil {
			return err
		}
		args = append(args, "-capacity", strconv.Itoa(int(capacity*100.0)))
	}
	if a.active != nil {
		args = append(args, "-active", onOff(*a.active))
	}
	if a.cmd != nil {
		args = append(args, "-cmd", *a.cmd)
	}
	if a.duration != nil {
		args = append(args, "-duration", strconv.Itoa(int(a.duration.Seconds())))
	}
	if a.shutdown != nil {
		args = append(args, "-shutdown", onOff(*a.shutdown))
	}
	return c.checkSetup(ctx, args...)
}

// checkSetup runs a configuration command and verifies pwrstat's success
// acknowledgment.
func (c *Client) checkSetup(ctx context.Context, args ...string) error {
	output, err := c.reader.Read(ctx, args...)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(output, setupSuccessPrefix) {
		return &SetupError{Args: args, Output: output}
	}
	return nil
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
