// SPDX-License-Identifier: MIT

package install

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gowrstat/gowrstat/internal/config"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	root := t.TempDir()
	return Options{
		User:        "upsd",
		Bind:        "127.0.0.1:8123",
		PwrstatPath: "/usr/sbin/pwrstat",
		UseSudo:     true,
		ExecPath:    "/usr/local/bin/gowrstat",
		Dirs: Dirs{
			Conf:    filepath.Join(root, "etc", "gowrstat"),
			Systemd: filepath.Join(root, "systemd"),
			Sudoers: filepath.Join(root, "sudoers.d"),
		},
	}
}

func TestRun_WritesAllFiles(t *testing.T) {
	opts := testOptions(t)
	require.NoError(t, os.MkdirAll(opts.Dirs.Systemd, 0o755))
	require.NoError(t, os.MkdirAll(opts.Dirs.Sudoers, 0o755))

	var out bytes.Buffer
	require.NoError(t, Run(opts, &out))

	envPath := filepath.Join(opts.Dirs.Conf, EnvFileName)
	envInfo, err := os.Stat(envPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), envInfo.Mode().Perm(), "secret-bearing file must not be group readable")

	envData, err := os.ReadFile(envPath)
	require.NoError(t, err)
	env := string(envData)
	assert.Contains(t, env, config.EnvJWTSecret+`="`)
	assert.Contains(t, env, config.EnvListen+`="127.0.0.1:8123"`)
	assert.Contains(t, env, config.EnvUseSudo+"=true")

	unitPath := filepath.Join(opts.Dirs.Systemd, ServiceName)
	unitData, err := os.ReadFile(unitPath)
	require.NoError(t, err)
	unit := string(unitData)
	assert.Contains(t, unit, "User=upsd")
	assert.Contains(t, unit, "ExecStart=/usr/local/bin/gowrstat serve")
	assert.Contains(t, unit, "EnvironmentFile="+envPath)
	assert.Contains(t, unit, "StateDirectory=gowrstat")

	sudoersPath := filepath.Join(opts.Dirs.Sudoers, "gowrstat")
	sudoersInfo, err := os.Stat(sudoersPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o440), sudoersInfo.Mode().Perm())

	sudoersData, err := os.ReadFile(sudoersPath)
	require.NoError(t, err)
	assert.Equal(t, "upsd ALL=(root) NOPASSWD: /usr/sbin/pwrstat *\n", string(sudoersData))

	assert.Contains(t, out.String(), "systemctl enable --now "+ServiceName)
}

func TestRun_PreservesExistingSecret(t *testing.T) {
	opts := testOptions(t)
	require.NoError(t, os.MkdirAll(opts.Dirs.Systemd, 0o755))
	require.NoError(t, os.MkdirAll(opts.Dirs.Sudoers, 0o755))
	require.NoError(t, os.MkdirAll(opts.Dirs.Conf, 0o700))

	envPath := filepath.Join(opts.Dirs.Conf, EnvFileName)
	existing := config.EnvJWTSecret + `="keep-this-secret"` + "\n"
	require.NoError(t, os.WriteFile(envPath, []byte(existing), 0o600))

	var out bytes.Buffer
	require.NoError(t, Run(opts, &out))

	secret, err := ReadEnvValue(envPath, config.EnvJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "keep-this-secret", secret, "reinstall must not invalidate minted API keys")
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	opts := testOptions(t)
	opts.DryRun = true

	var out bytes.Buffer
	require.NoError(t, Run(opts, &out))

	_, err := os.Stat(opts.Dirs.Conf)
	assert.True(t, os.IsNotExist(err), "dry run must not create directories")
	_, err = os.Stat(filepath.Join(opts.Dirs.Systemd, ServiceName))
	assert.True(t, os.IsNotExist(err))

	printed := out.String()
	assert.Contains(t, printed, "would write")
	assert.Contains(t, printed, ServiceName)
	assert.Contains(t, printed, "<redacted>", "dry run output must not leak the secret")
}

func TestRun_NoSudoSkipsSudoers(t *testing.T) {
	opts := testOptions(t)
	opts.UseSudo = false
	require.NoError(t, os.MkdirAll(opts.Dirs.Systemd, 0o755))

	var out bytes.Buffer
	require.NoError(t, Run(opts, &out))

	_, err := os.Stat(filepath.Join(opts.Dirs.Sudoers, "gowrstat"))
	assert.True(t, os.IsNotExist(err))

	env, err := os.ReadFile(filepath.Join(opts.Dirs.Conf, EnvFileName))
	require.NoError(t, err)
	assert.Contains(t, string(env), config.EnvUseSudo+"=false")
}

func TestRenderEnvFile_TLSOnlyWhenComplete(t *testing.T) {
	opts := Options{Bind: ":8000", PwrstatPath: "/usr/sbin/pwrstat", TLSCert: "/etc/ssl/c.pem"}
	env := renderEnvFile("s", opts)
	assert.NotContains(t, env, config.EnvTLSCert, "cert without key must not half-configure TLS")

	opts.TLSKey = "/etc/ssl/k.pem"
	env = renderEnvFile("s", opts)
	assert.Contains(t, env, config.EnvTLSCert+`="/etc/ssl/c.pem"`)
	assert.Contains(t, env, config.EnvTLSKey+`="/etc/ssl/k.pem"`)
}

func TestReadEnvValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.env")
	body := strings.Join([]string{
		"# comment",
		"",
		`GOWRSTAT_JWT_SECRET="abc123"`,
		"GOWRSTAT_LISTEN=:8000",
		"BROKEN LINE",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	v, err := ReadEnvValue(path, "GOWRSTAT_JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "abc123", v, "surrounding quotes are stripped")

	v, err = ReadEnvValue(path, "GOWRSTAT_LISTEN")
	require.NoError(t, err)
	assert.Equal(t, ":8000", v)

	v, err = ReadEnvValue(path, "GOWRSTAT_MISSING")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = ReadEnvValue(filepath.Join(t.TempDir(), "absent.env"), "K")
	assert.Error(t, err)
}
