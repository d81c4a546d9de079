// SPDX-License-Identifier: MIT

package pwrstat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

func TestMonitor_EmitsChangesAndReachability(t *testing.T) {
	client, reader := newTestClient(t)

	base := defaultStatus()
	base.loadWatts = 15
	reader.expectStatus(base) // initial snapshot taken by the test itself
	reader.expectStatus(base) // monitor baseline
	changed := base
	changed.outputVoltage = 235
	changed.loadWatts = 16
	reader.expectStatus(changed)
	reader.expectUnreachableStatus(base)
	recovered := base
	recovered.outputVoltage = 229
	reader.expectStatus(recovered)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initial, err := client.Status(ctx)
	require.NoError(t, err)

	mon := pwrstat.NewMonitor(client, pwrstat.MonitorOptions{Interval: time.Millisecond})
	var events []pwrstat.Event
	err = mon.Run(ctx, func(ev pwrstat.Event) error {
		events = append(events, ev)
		if len(events) == 4 {
			cancel()
		}
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, events, 4)

	wantChanged := *initial
	wantChanged.OutputVoltageVolts = 235
	wantChanged.LoadWatts = 16

	// Changed fields come out in stable order, sharing both snapshots.
	assert.Equal(t, pwrstat.NewValueChanged("load_watts", 15.0, 16.0), events[0].Metadata)
	assert.Equal(t, initial, events[0].PreviousState)
	assert.Equal(t, &wantChanged, events[0].NewState)

	assert.Equal(t, pwrstat.NewValueChanged("output_voltage_volts", 230.0, 235.0), events[1].Metadata)
	assert.Equal(t, initial, events[1].PreviousState)
	assert.Equal(t, &wantChanged, events[1].NewState)
	assert.Same(t, events[0].PreviousState, events[1].PreviousState)
	assert.Same(t, events[0].NewState, events[1].NewState)

	// Losing the UPS produces exactly one event with no new state.
	assert.Equal(t, pwrstat.NewReachabilityChanged(false), events[2].Metadata)
	assert.Equal(t, &wantChanged, events[2].PreviousState)
	assert.Nil(t, events[2].NewState)

	// Recovery resets the baseline: no ValueChanged for the voltage drop
	// that happened during the outage.
	wantRecovered := *initial
	wantRecovered.OutputVoltageVolts = 229
	assert.Equal(t, pwrstat.NewReachabilityChanged(true), events[3].Metadata)
	assert.Nil(t, events[3].PreviousState)
	assert.Equal(t, &wantRecovered, events[3].NewState)
}

func TestMonitor_SilentWhileUnreachable(t *testing.T) {
	client, reader := newTestClient(t)

	base := defaultStatus()
	reader.expectUnreachableStatus(base) // baseline: already unreachable
	reader.expectUnreachableStatus(base) // still unreachable: nothing to say
	reader.expectStatus(base)            // recovery

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mon := pwrstat.NewMonitor(client, pwrstat.MonitorOptions{Interval: time.Millisecond})
	var events []pwrstat.Event
	err := mon.Run(ctx, func(ev pwrstat.Event) error {
		events = append(events, ev)
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, events, 1)
	assert.Equal(t, pwrstat.NewReachabilityChanged(true), events[0].Metadata)
	assert.Nil(t, events[0].PreviousState)
	assert.NotNil(t, events[0].NewState)
}

func TestMonitor_PollErrorStops(t *testing.T) {
	client, reader := newTestClient(t)
	reader.expectStatus(defaultStatus())
	reader.expectErr(&pwrstat.CommandError{Args: []string{"-status"}, ExitCode: 1}, "-status")

	mon := pwrstat.NewMonitor(client, pwrstat.MonitorOptions{Interval: time.Millisecond})
	err := mon.Run(context.Background(), func(pwrstat.Event) error {
		t.Fatal("no events expected")
		return nil
	})
	require.ErrorIs(t, err, pwrstat.ErrCommandFailed)
}

func TestMonitor_EmitErrorStops(t *testing.T) {
	client, reader := newTestClient(t)

	base := defaultStatus()
	base.loadWatts = 15
	reader.expectStatus(base)
	changed := base
	changed.loadWatts = 18
	reader.expectStatus(changed)

	sentinel := errors.New("stream closed")
	mon := pwrstat.NewMonitor(client, pwrstat.MonitorOptions{Interval: time.Millisecond})
	err := mon.Run(context.Background(), func(pwrstat.Event) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
}
