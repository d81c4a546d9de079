// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gowrstat/gowrstat/internal/config"
)

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon.
	Logger zerolog.Logger

	// APIHandler is the HTTP handler for the API server.
	APIHandler http.Handler

	// MetricsHandler serves the Prometheus endpoint; nil disables it.
	MetricsHandler http.Handler

	// MetricsAddr is the metrics listen address; empty disables it.
	MetricsAddr string

	// TLSCert and TLSKey switch the API server to HTTPS when both are set.
	TLSCert string
	TLSKey  string
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}

// ServerConfig tunes the HTTP listeners.
type ServerConfig struct {
	ListenAddr        string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	ShutdownTimeout   time.Duration
}

// ServerConfigFor derives listener tuning from the app config. The write
// timeout stays zero: monitor streams outlive any fixed deadline, so
// bounded routes carry their own timeout middleware instead.
func ServerConfigFor(cfg config.AppConfig) ServerConfig {
	return ServerConfig{
		ListenAddr:        cfg.API.Listen,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ShutdownTimeout:   10 * time.Second,
	}
}
