// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gowrstat/gowrstat/internal/daemon"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
)

var (
	testWait    bool
	testTimeout time.Duration
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run a UPS self-test",
	Long:  "Start a UPS self-test via `pwrstat -test` and, unless --wait=false,\npoll until the result is in.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := daemon.WaitForShutdown()
		defer stop()

		client, err := newClient()
		if err != nil {
			return err
		}
		result, err := client.TestUPS(ctx, pwrstat.TestOptions{
			PollResult: testWait,
			Timeout:    testTimeout,
			PollEvery:  time.Second,
		})
		if err != nil {
			return err
		}
		if !testWait {
			fmt.Println("self-test started")
			return nil
		}
		fmt.Println(formatTestResult(result))
		return nil
	},
}

func init() {
	testCmd.Flags().BoolVar(&testWait, "wait", true, "wait for the test result")
	testCmd.Flags().DurationVar(&testTimeout, "timeout", 10*time.Minute, "give up waiting after this long")
}
