// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig mirrors AppConfig for YAML files. All fields are optional;
// absent ones keep their current (default) value.
type FileConfig struct {
	DataDir   *string        `yaml:"data_dir"`
	Log       *FileLog       `yaml:"log"`
	Pwrstat   *FilePwrstat   `yaml:"pwrstat"`
	Monitor   *FileMonitor   `yaml:"monitor"`
	API       *FileAPI       `yaml:"api"`
	Cache     *FileCache     `yaml:"cache"`
	Journal   *FileJournal   `yaml:"journal"`
	Telemetry *FileTelemetry `yaml:"telemetry"`
}

type FileLog struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

type FilePwrstat struct {
	BinaryPath     *string       `yaml:"binary_path"`
	UseSudo        *bool         `yaml:"use_sudo"`
	CommandTimeout *fileDuration `yaml:"command_timeout"`
	CommandRate    *float64      `yaml:"command_rate"`
	CommandBurst   *int          `yaml:"command_burst"`
}

type FileMonitor struct {
	Interval *fileDuration `yaml:"interval"`
}

type FileAPI struct {
	Listen         *string       `yaml:"listen"`
	MetricsListen  *string       `yaml:"metrics_listen"`
	JWTSecret      *string       `yaml:"jwt_secret"`
	TLSCert        *string       `yaml:"tls_cert"`
	TLSKey         *string       `yaml:"tls_key"`
	RateLimit      *int          `yaml:"rate_limit"`
	RateWindow     *fileDuration `yaml:"rate_window"`
	RequestTimeout *fileDuration `yaml:"request_timeout"`
	SSEPollDefault *fileDuration `yaml:"sse_poll_default"`
	SSEPollMin     *fileDuration `yaml:"sse_poll_min"`
}

type FileCache struct {
	Backend       *string       `yaml:"backend"`
	TTL           *fileDuration `yaml:"ttl"`
	RedisAddr     *string       `yaml:"redis_addr"`
	RedisPassword *string       `yaml:"redis_password"`
	RedisDB       *int          `yaml:"redis_db"`
}

type FileJournal struct {
	Enabled       *bool         `yaml:"enabled"`
	Path          *string       `yaml:"path"`
	Retention     *fileDuration `yaml:"retention"`
	PruneInterval *fileDuration `yaml:"prune_interval"`
}

type FileTelemetry struct {
	Enabled     *bool    `yaml:"enabled"`
	Endpoint    *string  `yaml:"endpoint"`
	Protocol    *string  `yaml:"protocol"`
	Insecure    *bool    `yaml:"insecure"`
	SampleRatio *float64 `yaml:"sample_ratio"`
}

// fileDuration accepts Go duration strings in YAML ("5s", "1h30m").
type fileDuration time.Duration

func (d *fileDuration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = fileDuration(parsed)
	return nil
}

func (d *fileDuration) std() time.Duration { return time.Duration(*d) }
