// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gowrstat/gowrstat/internal/auth"
	"github.com/gowrstat/gowrstat/internal/config"
	"github.com/gowrstat/gowrstat/internal/install"
)

var (
	apikeyEnvFile   string
	apikeyExpiresIn time.Duration
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Mint an API key for the web API",
	Long:  "Mint a bearer token signed with the server's JWT secret. The secret is\ntaken from $" + config.EnvJWTSecret + " or, failing that, the installed\nservice environment file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := os.Getenv(config.EnvJWTSecret)
		if secret == "" {
			secret, _ = install.ReadEnvValue(apikeyEnvFile, config.EnvJWTSecret)
		}
		if secret == "" {
			return fmt.Errorf("no JWT secret configured: set %s or run `gowrstat install` first (looked in %s)",
				config.EnvJWTSecret, apikeyEnvFile)
		}

		token, err := mintAPIKey(secret, apikeyExpiresIn)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

// mintAPIKey signs a fresh token. A zero expiresIn mints a key without
// an exp claim; such keys stay valid until the secret rotates.
func mintAPIKey(secret string, expiresIn time.Duration) (string, error) {
	claims := auth.Claims{Iss: auth.Issuer, Jti: uuid.NewString()}
	if expiresIn > 0 {
		now := time.Now()
		claims.Iat = now.Unix()
		claims.Exp = now.Add(expiresIn).Unix()
	}
	return auth.GenerateHS256([]byte(secret), claims)
}

func init() {
	apikeyCmd.Flags().StringVar(&apikeyEnvFile, "env-file", install.EnvFilePath(), "environment file holding the JWT secret")
	apikeyCmd.Flags().DurationVar(&apikeyExpiresIn, "expires-in", 0, "token lifetime (0 mints a non-expiring key)")
}
