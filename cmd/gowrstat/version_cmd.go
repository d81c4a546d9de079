// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gowrstat/gowrstat/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gowrstat version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
