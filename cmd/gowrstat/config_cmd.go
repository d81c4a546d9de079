// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

var configJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the pwrstatd daemon configuration",
	Long:  "Show how pwrstatd reacts to power failures and low battery: delays,\nshutdown behavior, scripts, alarm and cloud settings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		cfg, err := client.DaemonConfiguration(cmd.Context())
		if err != nil {
			return err
		}
		if configJSON {
			return printJSON(cmd.OutOrStdout(), cfg)
		}
		printDaemonConfiguration(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&configJSON, "json", false, "print as JSON")
}

func printDaemonConfiguration(out io.Writer, cfg *pwrstat.DaemonConfiguration) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Alarm\t%s\n", onOff(cfg.AlarmEnabled))
	fmt.Fprintf(w, "Hibernate\t%s\n", onOff(cfg.HibernateEnabled))
	fmt.Fprintf(w, "Cloud\t%s\n", onOff(cfg.CloudEnabled))
	w.Flush()

	pf := cfg.PowerFailureAction
	fmt.Fprintln(out, "\nPower Failure Action")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Delay Since Power Failure\t%s\n", pf.DelaySincePowerFailure)
	fmt.Fprintf(w, "  Run Script Command\t%s\n", onOff(pf.ScriptCommandEnabled))
	if pf.ScriptCommandEnabled {
		fmt.Fprintf(w, "  Script Command\t%s\n", pf.ScriptCommandPath)
		fmt.Fprintf(w, "  Script Duration\t%s\n", pf.ScriptCommandDuration)
	}
	fmt.Fprintf(w, "  System Shutdown\t%s\n", onOff(pf.SystemShutdownEnabled))
	w.Flush()

	lb := cfg.LowBatteryAction
	fmt.Fprintln(out, "\nLow Battery Action")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Remaining Runtime Threshold\t%s\n", lb.RemainingRuntimeThreshold)
	fmt.Fprintf(w, "  Battery Capacity Threshold\t%.0f %%\n", lb.BatteryCapacityThresholdPercent*100)
	fmt.Fprintf(w, "  Run Script Command\t%s\n", onOff(lb.ScriptCommandEnabled))
	if lb.ScriptCommandEnabled {
		fmt.Fprintf(w, "  Script Command\t%s\n", lb.ScriptCommandPath)
		fmt.Fprintf(w, "  Script Duration\t%s\n", lb.ScriptCommandDuration)
	}
	fmt.Fprintf(w, "  System Shutdown\t%s\n", onOff(lb.SystemShutdownEnabled))
	w.Flush()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
