// SPDX-License-Identifier: MIT

package health

import (
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gowrstat/gowrstat/internal/config"
	"github.com/gowrstat/gowrstat/internal/log"
)

// PerformStartupChecks validates the environment before the daemon
// starts serving: a bad listen address or an unreadable pwrstat binary
// should fail here, not minutes later.
func PerformStartupChecks(cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}
	if err := checkListenAddr(logger, cfg.API.Listen); err != nil {
		return fmt.Errorf("listen address check failed: %w", err)
	}
	if err := checkPwrstatBinary(logger, cfg.Pwrstat.BinaryPath); err != nil {
		return fmt.Errorf("pwrstat binary check failed: %w", err)
	}
	if err := checkTLS(logger, cfg.API.TLSCert, cfg.API.TLSKey); err != nil {
		return fmt.Errorf("TLS check failed: %w", err)
	}

	logger.Info().Msg("✅ All startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// First boot on a fresh host; create it rather than bounce.
			if mkErr := os.MkdirAll(path, 0o750); mkErr != nil {
				return fmt.Errorf("directory does not exist and cannot be created: %s (%v)", path, mkErr)
			}
			logger.Info().Str(log.FieldPath, path).Msg("✓ Data directory created")
			return checkWritable(logger, path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return checkWritable(logger, path)
}

func checkWritable(logger zerolog.Logger, path string) error {
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str(log.FieldPath, path).Msg("✓ Data directory is writable")
	return nil
}

func checkListenAddr(logger zerolog.Logger, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, addr)
	}
	logger.Info().Str("addr", addr).Msg("✓ API listen address is valid")
	return nil
}

func checkPwrstatBinary(logger zerolog.Logger, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("pwrstat binary not found at %s (is the CyberPower PowerPanel package installed?)", path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("pwrstat path is a directory: %s", path)
	}
	logger.Info().Str(log.FieldPath, path).Msg("✓ pwrstat binary present")
	return nil
}

func checkTLS(logger zerolog.Logger, cert, key string) error {
	if cert == "" && key == "" {
		return nil
	}
	if cert == "" || key == "" {
		return fmt.Errorf("TLS configuration requires BOTH cert and key to be set")
	}
	// Loading the pair catches unreadable files, bad PEM and a key that
	// does not match the certificate in one step.
	if _, err := tls.LoadX509KeyPair(cert, key); err != nil {
		return fmt.Errorf("TLS key pair does not load: %w", err)
	}
	logger.Info().Msg("✓ TLS key pair loads")
	return nil
}
