// SPDX-License-Identifier: MIT

// Command gowrstat wraps CyberPower's pwrstat utility: one-shot UPS
// queries, a change monitor, and the long-running web API daemon.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/gowrstat/gowrstat/internal/config"
	"github.com/gowrstat/gowrstat/internal/log"
	"github.com/gowrstat/gowrstat/internal/pwrstat"
	"github.com/gowrstat/gowrstat/internal/ratelimit"
	"github.com/gowrstat/gowrstat/internal/version"
)

var (
	flagPwrstatPath string
	flagSudo        bool
	flagTimeout     time.Duration
	flagLogLevel    string
	flagLogFormat   string
)

var rootCmd = &cobra.Command{
	Use:           "gowrstat",
	Short:         "CyberPower UPS toolkit",
	Long:          "gowrstat talks to CyberPower's pwrstat utility: query UPS status,\nwatch for changes, or run the web API daemon.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Reconfigure(log.Config{
			Level:   flagLogLevel,
			Format:  flagLogFormat,
			Service: "gowrstat",
			Version: version.Version,
		})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagPwrstatPath, "pwrstat-path", pwrstat.DefaultBinaryPath, "path to the pwrstat executable")
	pf.BoolVar(&flagSudo, "sudo", true, "invoke pwrstat through sudo")
	pf.DurationVar(&flagTimeout, "timeout", 10*time.Second, "per-invocation pwrstat timeout")
	pf.StringVar(&flagLogLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "console", "log format (json, console)")

	rootCmd.AddCommand(
		statusCmd,
		propertiesCmd,
		configCmd,
		testCmd,
		monitorCmd,
		serveCmd,
		apikeyCmd,
		installCmd,
		versionCmd,
	)
}

// cliConfig resolves the effective settings for a one-shot command:
// environment first, then any explicitly set global flags on top.
func cliConfig() (config.AppConfig, error) {
	cfg, err := config.NewLoader("", version.Version).Load()
	if err != nil {
		return cfg, err
	}
	pf := rootCmd.PersistentFlags()
	if pf.Changed("pwrstat-path") {
		cfg.Pwrstat.BinaryPath = flagPwrstatPath
	}
	if pf.Changed("sudo") {
		cfg.Pwrstat.UseSudo = flagSudo
	}
	if pf.Changed("timeout") {
		cfg.Pwrstat.CommandTimeout = flagTimeout
	}
	return cfg, nil
}

// newClient builds a pwrstat client for one-shot commands.
func newClient() (*pwrstat.Client, error) {
	cfg, err := cliConfig()
	if err != nil {
		return nil, err
	}
	reader, err := pwrstat.NewExecReader(pwrstat.ExecOptions{
		BinaryPath: cfg.Pwrstat.BinaryPath,
		UseSudo:    cfg.Pwrstat.UseSudo,
		Timeout:    cfg.Pwrstat.CommandTimeout,
		Limiter: ratelimit.New(ratelimit.Config{
			Rate:  rate.Limit(cfg.Pwrstat.CommandRate),
			Burst: cfg.Pwrstat.CommandBurst,
		}),
	})
	if err != nil {
		return nil, err
	}
	return pwrstat.New(reader), nil
}

// printJSON writes v indented, matching the web API's field names.
func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "gowrstat: %v\n", err)
		os.Exit(1)
	}
}
