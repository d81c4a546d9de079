// SPDX-License-Identifier: MIT

package main

import (
	"github.com/spf13/cobra"

	"github.com/gowrstat/gowrstat/internal/install"
)

var (
	installUser   string
	installBind   string
	installCert   string
	installKey    string
	installDryRun bool
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install gowrstat as a systemd service",
	Long: "Write the systemd unit, the service environment file with a generated\n" +
		"JWT secret, and (with --sudo) a sudoers drop-in allowing the service\n" +
		"user to run pwrstat as root. systemctl is never invoked; the followup\n" +
		"commands are printed instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return install.Run(install.Options{
			User:        installUser,
			Bind:        installBind,
			PwrstatPath: flagPwrstatPath,
			UseSudo:     flagSudo,
			TLSCert:     installCert,
			TLSKey:      installKey,
			DryRun:      installDryRun,
		}, cmd.OutOrStdout())
	},
}

func init() {
	installCmd.Flags().StringVar(&installUser, "user", install.DefaultUser, "system user running the service")
	installCmd.Flags().StringVar(&installBind, "bind", install.DefaultBind, "API listen address")
	installCmd.Flags().StringVar(&installCert, "cert", "", "TLS certificate file (optional)")
	installCmd.Flags().StringVar(&installKey, "key", "", "TLS private key file (optional)")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "print the files instead of writing them")
}
