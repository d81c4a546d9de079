// SPDX-License-Identifier: MIT

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gowrstat/gowrstat/internal/config"
	"github.com/gowrstat/gowrstat/internal/daemon"
	"github.com/gowrstat/gowrstat/internal/version"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the UPS monitor daemon and web API",
	Long:  "Run the long-lived process: poll the UPS for changes, journal and\nbroadcast them, and serve the authenticated web API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := daemon.WaitForShutdown()
		defer stop()

		if serveConfigPath == "" {
			serveConfigPath = os.Getenv(config.EnvConfigFile)
		}

		// Explicit log flags outrank the config file; routing them
		// through the environment keeps the loader's precedence intact.
		pf := rootCmd.PersistentFlags()
		if pf.Changed("log-level") {
			os.Setenv(config.EnvLogLevel, flagLogLevel)
		}
		if pf.Changed("log-format") {
			os.Setenv(config.EnvLogFormat, flagLogFormat)
		}

		app, err := daemon.New(ctx, daemon.Options{
			ConfigPath: serveConfigPath,
			Version:    version.Version,
		})
		if err != nil {
			return err
		}
		return app.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "path to the YAML config file (default $"+config.EnvConfigFile+")")
}
