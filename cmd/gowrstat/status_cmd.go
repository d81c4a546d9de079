// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current UPS status",
	Long:  "Show the live UPS state as reported by `pwrstat -status`: power source,\nvoltages, battery capacity, load and the last self-test and power event.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		status, err := client.Status(cmd.Context())
		if err != nil {
			return err
		}
		if statusJSON {
			return printJSON(cmd.OutOrStdout(), status)
		}
		printStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print as JSON")
}

func printStatus(out io.Writer, s *pwrstat.UPSStatus) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "State\t%s\n", s.State)
	fmt.Fprintf(w, "Power Supply By\t%s\n", s.PowerSupplyBy)
	fmt.Fprintf(w, "Utility Voltage\t%g V\n", s.UtilityVoltageVolts)
	fmt.Fprintf(w, "Output Voltage\t%g V\n", s.OutputVoltageVolts)
	fmt.Fprintf(w, "Battery Capacity\t%.0f %%\n", s.BatteryCapacityPercent*100)
	fmt.Fprintf(w, "Remaining Runtime\t%s\n", s.RemainingRuntime)
	fmt.Fprintf(w, "Load\t%g W (%.0f %%)\n", s.LoadWatts, s.LoadPercent*100)
	fmt.Fprintf(w, "Line Interaction\t%s\n", s.LineInteraction)
	fmt.Fprintf(w, "Test Result\t%s\n", formatTestResult(s.TestResult))
	fmt.Fprintf(w, "Last Power Event\t%s\n", formatPowerEvent(s.LastPowerEvent))
	w.Flush()
}

func formatTestResult(r *pwrstat.TestResult) string {
	if r == nil {
		return "none"
	}
	if r.Status == pwrstat.TestStatusInProgress {
		return string(r.Status)
	}
	return fmt.Sprintf("%s at %s", r.Status, r.TestTime.Format("2006-01-02 15:04:05"))
}

func formatPowerEvent(e *pwrstat.PowerEvent) string {
	if e == nil {
		return "none"
	}
	return fmt.Sprintf("%s at %s for %s",
		e.EventType, e.EventTime.Format("2006-01-02 15:04:05"), e.Duration)
}
