// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var propertiesJSON bool

var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "Show the UPS device properties",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		props, err := client.Properties(cmd.Context())
		if err != nil {
			return err
		}
		if propertiesJSON {
			return printJSON(cmd.OutOrStdout(), props)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Model Name\t%s\n", props.ModelName)
		fmt.Fprintf(w, "Firmware Number\t%s\n", props.FirmwareNumber)
		fmt.Fprintf(w, "Rating Voltage\t%g V\n", props.RatingVoltageVolts)
		fmt.Fprintf(w, "Rating Power\t%g W\n", props.RatingPowerWatts)
		w.Flush()
		return nil
	},
}

func init() {
	propertiesCmd.Flags().BoolVar(&propertiesJSON, "json", false, "print as JSON")
}
