// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader resolves the configuration with the precedence ENV > file >
// defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader returns a loader. configPath may be empty for ENV-only
// operation.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load builds and validates the configuration. On any error the returned
// config is not usable.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		fileCfg, err := loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFile(&cfg, fileCfg)
	}

	mergeEnv(&cfg)

	// An absolute data dir keeps derived paths stable regardless of the
	// daemon's working directory.
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}

	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile parses a YAML config file strictly: unknown fields, multiple
// documents and trailing content are errors.
func loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- the config path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

// mergeFile overlays set file values onto cfg.
func mergeFile(cfg *AppConfig, file *FileConfig) {
	if file.DataDir != nil {
		cfg.DataDir = *file.DataDir
	}
	if f := file.Log; f != nil {
		setString(&cfg.Log.Level, f.Level)
		setString(&cfg.Log.Format, f.Format)
	}
	if f := file.Pwrstat; f != nil {
		setString(&cfg.Pwrstat.BinaryPath, f.BinaryPath)
		setBool(&cfg.Pwrstat.UseSudo, f.UseSudo)
		setDuration(&cfg.Pwrstat.CommandTimeout, f.CommandTimeout)
		setFloat(&cfg.Pwrstat.CommandRate, f.CommandRate)
		setInt(&cfg.Pwrstat.CommandBurst, f.CommandBurst)
	}
	if f := file.Monitor; f != nil {
		setDuration(&cfg.Monitor.Interval, f.Interval)
	}
	if f := file.API; f != nil {
		setString(&cfg.API.Listen, f.Listen)
		setString(&cfg.API.MetricsListen, f.MetricsListen)
		setString(&cfg.API.JWTSecret, f.JWTSecret)
		setString(&cfg.API.TLSCert, f.TLSCert)
		setString(&cfg.API.TLSKey, f.TLSKey)
		setInt(&cfg.API.RateLimit, f.RateLimit)
		setDuration(&cfg.API.RateWindow, f.RateWindow)
		setDuration(&cfg.API.RequestTimeout, f.RequestTimeout)
		setDuration(&cfg.API.SSEPollDefault, f.SSEPollDefault)
		setDuration(&cfg.API.SSEPollMin, f.SSEPollMin)
	}
	if f := file.Cache; f != nil {
		setString(&cfg.Cache.Backend, f.Backend)
		setDuration(&cfg.Cache.TTL, f.TTL)
		setString(&cfg.Cache.RedisAddr, f.RedisAddr)
		setString(&cfg.Cache.RedisPassword, f.RedisPassword)
		setInt(&cfg.Cache.RedisDB, f.RedisDB)
	}
	if f := file.Journal; f != nil {
		setBool(&cfg.Journal.Enabled, f.Enabled)
		setString(&cfg.Journal.Path, f.Path)
		setDuration(&cfg.Journal.Retention, f.Retention)
		setDuration(&cfg.Journal.PruneInterval, f.PruneInterval)
	}
	if f := file.Telemetry; f != nil {
		setBool(&cfg.Telemetry.Enabled, f.Enabled)
		setString(&cfg.Telemetry.Endpoint, f.Endpoint)
		setString(&cfg.Telemetry.Protocol, f.Protocol)
		setBool(&cfg.Telemetry.Insecure, f.Insecure)
		setFloat(&cfg.Telemetry.SampleRatio, f.SampleRatio)
	}
}

// mergeEnv overlays set environment variables onto cfg. The current
// value doubles as the default, so unset variables change nothing.
func mergeEnv(cfg *AppConfig) {
	cfg.DataDir = ParseString(EnvDataDir, cfg.DataDir)

	cfg.Log.Level = ParseString(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Format = ParseString(EnvLogFormat, cfg.Log.Format)

	cfg.Pwrstat.BinaryPath = ParseString(EnvPwrstatPath, cfg.Pwrstat.BinaryPath)
	cfg.Pwrstat.UseSudo = ParseBool(EnvUseSudo, cfg.Pwrstat.UseSudo)
	cfg.Pwrstat.CommandTimeout = ParseDuration(EnvCommandTimeout, cfg.Pwrstat.CommandTimeout)
	cfg.Pwrstat.CommandRate = ParseFloat(EnvCommandRate, cfg.Pwrstat.CommandRate)
	cfg.Pwrstat.CommandBurst = ParseInt(EnvCommandBurst, cfg.Pwrstat.CommandBurst)

	cfg.Monitor.Interval = ParseDuration(EnvMonitorInterval, cfg.Monitor.Interval)

	cfg.API.Listen = ParseString(EnvListen, cfg.API.Listen)
	cfg.API.MetricsListen = ParseString(EnvMetricsListen, cfg.API.MetricsListen)
	cfg.API.JWTSecret = ParseString(EnvJWTSecret, cfg.API.JWTSecret)
	cfg.API.TLSCert = ParseString(EnvTLSCert, cfg.API.TLSCert)
	cfg.API.TLSKey = ParseString(EnvTLSKey, cfg.API.TLSKey)
	cfg.API.RateLimit = ParseInt(EnvAPIRate, cfg.API.RateLimit)
	cfg.API.RateWindow = ParseDuration(EnvAPIRateWindow, cfg.API.RateWindow)
	cfg.API.RequestTimeout = ParseDuration(EnvRequestTimeout, cfg.API.RequestTimeout)
	cfg.API.SSEPollDefault = ParseDuration(EnvSSEPollDefault, cfg.API.SSEPollDefault)
	cfg.API.SSEPollMin = ParseDuration(EnvSSEPollMin, cfg.API.SSEPollMin)

	cfg.Cache.Backend = ParseString(EnvCacheBackend, cfg.Cache.Backend)
	cfg.Cache.TTL = ParseDuration(EnvCacheTTL, cfg.Cache.TTL)
	cfg.Cache.RedisAddr = ParseString(EnvRedisAddr, cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = ParseString(EnvRedisPassword, cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = ParseInt(EnvRedisDB, cfg.Cache.RedisDB)

	cfg.Journal.Enabled = ParseBool(EnvJournalEnabled, cfg.Journal.Enabled)
	cfg.Journal.Path = ParseString(EnvJournalPath, cfg.Journal.Path)
	cfg.Journal.Retention = ParseDuration(EnvJournalRetention, cfg.Journal.Retention)
	cfg.Journal.PruneInterval = ParseDuration(EnvJournalPruneInterval, cfg.Journal.PruneInterval)

	cfg.Telemetry.Enabled = ParseBool(EnvOTLPEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Endpoint = ParseString(EnvOTLPEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.Protocol = ParseString(EnvOTLPProtocol, cfg.Telemetry.Protocol)
	cfg.Telemetry.Insecure = ParseBool(EnvOTLPInsecure, cfg.Telemetry.Insecure)
	cfg.Telemetry.SampleRatio = ParseFloat(EnvTraceSampleRatio, cfg.Telemetry.SampleRatio)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *fileDuration) {
	if src != nil {
		*dst = src.std()
	}
}
