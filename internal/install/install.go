// SPDX-License-Identifier: MIT

// Package install writes the pieces of a systemd deployment: the
// gowrstat.service unit, the environment file carrying the JWT secret,
// and the sudoers drop-in that lets the service user run pwrstat as
// root. It never calls systemctl itself; the followup commands are
// printed for the operator.
package install

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/gowrstat/gowrstat/internal/config"
)

const (
	// DefaultUser runs the service. It only needs sudo rights on
	// pwrstat, nothing else.
	DefaultUser = "gowrstat"
	// DefaultBind is where the API listens after installation.
	DefaultBind = ":8000"

	// ServiceName is the systemd unit written by the installer.
	ServiceName = "gowrstat.service"
	// EnvFileName holds the service environment, including the secret.
	EnvFileName = "gowrstat.env"

	confDirMode  = 0o700
	envFileMode  = 0o600
	unitFileMode = 0o644
	// sudo refuses sudoers.d files that are writable or world-readable.
	sudoersFileMode = 0o440

	secretBytes = 64
)

// Dirs are the system locations an installation writes to. The zero
// value means the real ones; tests point them at a scratch directory.
type Dirs struct {
	Conf    string
	Systemd string
	Sudoers string
}

// DefaultDirs returns the live system locations.
func DefaultDirs() Dirs {
	return Dirs{
		Conf:    "/etc/gowrstat",
		Systemd: "/etc/systemd/system",
		Sudoers: "/etc/sudoers.d",
	}
}

func (d Dirs) orDefaults() Dirs {
	def := DefaultDirs()
	if d.Conf == "" {
		d.Conf = def.Conf
	}
	if d.Systemd == "" {
		d.Systemd = def.Systemd
	}
	if d.Sudoers == "" {
		d.Sudoers = def.Sudoers
	}
	return d
}

// EnvFilePath is where an installation with default directories keeps
// the service environment. The apikey command reads the secret from
// here.
func EnvFilePath() string {
	return filepath.Join(DefaultDirs().Conf, EnvFileName)
}

// Options parameterize an installation.
type Options struct {
	// User runs the service (DefaultUser if empty).
	User string
	// Bind is the API listen address (DefaultBind if empty).
	Bind string
	// PwrstatPath is the pwrstat binary the service will invoke.
	PwrstatPath string
	// UseSudo writes the sudoers drop-in and configures the service to
	// invoke pwrstat through sudo.
	UseSudo bool
	// TLSCert/TLSKey enable HTTPS when both are set.
	TLSCert string
	TLSKey  string
	// ExecPath is the gowrstat binary the unit starts (the running
	// executable if empty).
	ExecPath string
	// DryRun prints every file instead of writing it.
	DryRun bool
	// Dirs overrides the system locations.
	Dirs Dirs
}

func (o Options) withDefaults() (Options, error) {
	if o.User == "" {
		o.User = DefaultUser
	}
	if o.Bind == "" {
		o.Bind = DefaultBind
	}
	if o.PwrstatPath == "" {
		o.PwrstatPath = "/usr/sbin/pwrstat"
	}
	if o.ExecPath == "" {
		exe, err := os.Executable()
		if err != nil {
			return o, fmt.Errorf("resolve executable path: %w", err)
		}
		o.ExecPath = exe
	}
	o.Dirs = o.Dirs.orDefaults()
	return o, nil
}

// Run performs the installation and reports each step to out.
func Run(opts Options, out io.Writer) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	envPath := filepath.Join(opts.Dirs.Conf, EnvFileName)
	unitPath := filepath.Join(opts.Dirs.Systemd, ServiceName)
	sudoersPath := filepath.Join(opts.Dirs.Sudoers, "gowrstat")

	// A reinstall keeps the existing secret so minted API keys stay
	// valid.
	secret, _ := ReadEnvValue(envPath, config.EnvJWTSecret)
	if secret == "" {
		secret, err = newSecret()
		if err != nil {
			return err
		}
	}

	envFile := renderEnvFile(secret, opts)
	unit := renderUnit(opts, envPath)
	sudoers := renderSudoers(opts)

	if opts.DryRun {
		fmt.Fprintf(out, "would write %s:\n%s\n", envPath, redactSecret(envFile, secret))
		fmt.Fprintf(out, "would write %s:\n%s\n", unitPath, unit)
		if opts.UseSudo {
			fmt.Fprintf(out, "would write %s:\n%s\n", sudoersPath, sudoers)
		}
		printFollowups(out, opts)
		return nil
	}

	if err := os.MkdirAll(opts.Dirs.Conf, confDirMode); err != nil {
		return fmt.Errorf("create %s: %w", opts.Dirs.Conf, err)
	}
	if err := renameio.WriteFile(envPath, []byte(envFile), envFileMode); err != nil {
		return fmt.Errorf("write %s: %w", envPath, err)
	}
	fmt.Fprintf(out, "wrote %s\n", envPath)

	if err := renameio.WriteFile(unitPath, []byte(unit), unitFileMode); err != nil {
		return fmt.Errorf("write %s: %w", unitPath, err)
	}
	fmt.Fprintf(out, "wrote %s\n", unitPath)

	if opts.UseSudo {
		if err := renameio.WriteFile(sudoersPath, []byte(sudoers), sudoersFileMode); err != nil {
			return fmt.Errorf("write %s: %w", sudoersPath, err)
		}
		fmt.Fprintf(out, "wrote %s\n", sudoersPath)
	}

	printFollowups(out, opts)
	return nil
}

// renderEnvFile builds the EnvironmentFile body. Values are quoted the
// way systemd and ReadEnvValue both understand.
func renderEnvFile(secret string, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s=%q\n", config.EnvJWTSecret, secret)
	fmt.Fprintf(&b, "%s=%q\n", config.EnvListen, opts.Bind)
	fmt.Fprintf(&b, "%s=%q\n", config.EnvPwrstatPath, opts.PwrstatPath)
	fmt.Fprintf(&b, "%s=%t\n", config.EnvUseSudo, opts.UseSudo)
	if opts.TLSCert != "" && opts.TLSKey != "" {
		fmt.Fprintf(&b, "%s=%q\n", config.EnvTLSCert, opts.TLSCert)
		fmt.Fprintf(&b, "%s=%q\n", config.EnvTLSKey, opts.TLSKey)
	}
	return b.String()
}

// renderUnit builds the systemd service unit. StateDirectory makes
// systemd create /var/lib/gowrstat owned by the service user, which is
// where the journal lives.
func renderUnit(opts Options, envPath string) string {
	var b strings.Builder
	b.WriteString("[Unit]\n")
	b.WriteString("Description=CyberPower UPS status daemon and web API\n")
	b.WriteString("After=network-online.target\n")
	b.WriteString("Wants=network-online.target\n")
	b.WriteString("\n[Service]\n")
	b.WriteString("Type=simple\n")
	fmt.Fprintf(&b, "User=%s\n", opts.User)
	fmt.Fprintf(&b, "EnvironmentFile=%s\n", envPath)
	fmt.Fprintf(&b, "ExecStart=%s serve\n", opts.ExecPath)
	b.WriteString("StateDirectory=gowrstat\n")
	b.WriteString("Restart=on-failure\n")
	b.WriteString("RestartSec=5\n")
	b.WriteString("\n[Install]\n")
	b.WriteString("WantedBy=multi-user.target\n")
	return b.String()
}

// renderSudoers builds the drop-in allowing the service user to run
// pwrstat, and only pwrstat, as root without a password.
func renderSudoers(opts Options) string {
	return fmt.Sprintf("%s ALL=(root) NOPASSWD: %s *\n", opts.User, opts.PwrstatPath)
}

func printFollowups(out io.Writer, opts Options) {
	if _, err := user.Lookup(opts.User); err != nil {
		fmt.Fprintf(out, "\nuser %q does not exist yet:\n", opts.User)
		fmt.Fprintf(out, "  useradd --system --no-create-home --shell /usr/sbin/nologin %s\n", opts.User)
	}
	fmt.Fprintf(out, "\nto activate the service:\n")
	fmt.Fprintf(out, "  systemctl daemon-reload\n")
	fmt.Fprintf(out, "  systemctl enable --now %s\n", ServiceName)
}

// newSecret returns a hex-encoded random JWT secret.
func newSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// redactSecret keeps dry-run output safe to paste into a ticket.
func redactSecret(envFile, secret string) string {
	if secret == "" {
		return envFile
	}
	return strings.ReplaceAll(envFile, secret, "<redacted>")
}

// ReadEnvValue extracts one KEY=value assignment from an environment
// file in the subset of systemd's EnvironmentFile syntax this package
// writes: one assignment per line, optional double quotes, # comments.
// A missing file or key yields "".
func ReadEnvValue(path, key string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-chosen path
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(k) != key {
			continue
		}
		v = strings.TrimSpace(v)
		if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
			v = v[1 : len(v)-1]
		}
		return v, nil
	}
	return "", nil
}
