// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/gowrstat/gowrstat/internal/daemon"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

var (
	monitorPollEvery time.Duration
	monitorJSON      bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the UPS and print every change",
	Long:  "Poll the UPS and print one line per change: a field that moved between\ntwo polls, or communication with the UPS being lost or regained.\nThe first poll only establishes the baseline.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := daemon.WaitForShutdown()
		defer stop()

		client, err := newClient()
		if err != nil {
			return err
		}
		mon := pwrstat.NewMonitor(client, pwrstat.MonitorOptions{Interval: monitorPollEvery})
		printer := eventPrinter{out: cmd.OutOrStdout(), asJSON: monitorJSON, now: time.Now}
		err = mon.Run(ctx, printer.print)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorPollEvery, "poll-every", pwrstat.DefaultMonitorInterval, "delay between polls")
	monitorCmd.Flags().BoolVar(&monitorJSON, "json", false, "print events as JSON lines")
}

// eventPrinter renders monitor events, one line each.
type eventPrinter struct {
	out    io.Writer
	asJSON bool
	now    func() time.Time
}

func (p eventPrinter) print(ev pwrstat.Event) error {
	if p.asJSON {
		line, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.out, string(line))
		return err
	}

	stamp := p.now().Format("15:04:05")
	switch md := ev.Metadata.(type) {
	case pwrstat.ValueChanged:
		fmt.Fprintf(p.out, "%s %s: %s -> %s\n", stamp, md.FieldName,
			formatEventValue(md.PreviousValue), formatEventValue(md.NewValue))
	case pwrstat.ReachabilityChanged:
		if md.Reachable {
			fmt.Fprintf(p.out, "%s UPS reachable again\n", stamp)
		} else {
			fmt.Fprintf(p.out, "%s UPS unreachable\n", stamp)
		}
	}
	return nil
}

// formatEventValue renders a changed field value for the human line.
// Values come from the status snapshot, so the composite ones reuse the
// status formatting.
func formatEventValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "none"
	case *pwrstat.TestResult:
		return formatTestResult(t)
	case *pwrstat.PowerEvent:
		return formatPowerEvent(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
