package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stephen-fox/winedaemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() carries the daemon defaults
// - Load() fails without an executable
// - Load() reads winedaemon.yaml from the search directory when present
// - Load() fails when an explicit config file is missing or malformed
// - Environment variables override the config file
// - Flags override environment variables, unset flags do not
// - Validate() rejects negative durations and unknown log settings
// - DaemonConfig() and LogConfig() carry every field

func writeConfigFile(t *testing.T, dir string, contents string) string {
	t.Helper()

	path := filepath.Join(dir, "winedaemon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))

	return flags
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "wine", cfg.Shim)
	assert.Equal(t, 10*time.Second, cfg.StartupTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.StopPollInterval)
	assert.Equal(t, "/", cfg.WorkDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.ErrorIs(t, Validate(cfg), ErrMissingExe)
}

func TestLoad_MissingExe(t *testing.T) {
	_, err := NewLoader("", t.TempDir(), nil).Load()
	assert.ErrorIs(t, err, ErrMissingExe)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("WINEDAEMON_EXE", "/srv/il2/il2server.exe")
	t.Setenv("WINEDAEMON_STARTUP_TIMEOUT", "30s")
	t.Setenv("WINEDAEMON_LOG_LEVEL", "debug")

	cfg, err := NewLoader("", t.TempDir(), nil).Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/il2/il2server.exe", cfg.Exe)
	assert.Equal(t, 30*time.Second, cfg.StartupTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "wine", cfg.Shim)
}

func TestLoad_ConfigFileInSearchDir(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
exe: /srv/il2/il2server.exe
shim: /opt/wine/bin/wine
stdout: /var/log/il2/out.log
startup_timeout: 1m
ready_prefix: "1>"
log:
  format: json
`)

	cfg, err := NewLoader("", dir, nil).Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/il2/il2server.exe", cfg.Exe)
	assert.Equal(t, "/opt/wine/bin/wine", cfg.Shim)
	assert.Equal(t, "/var/log/il2/out.log", cfg.Stdout)
	assert.Equal(t, time.Minute, cfg.StartupTimeout)
	assert.Equal(t, "1>", cfg.ReadyPrefix)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ExplicitConfigFile(t *testing.T) {
	path := writeConfigFile(t, t.TempDir(), "exe: /srv/il2/il2server.exe\n")

	cfg, err := NewLoader(path, t.TempDir(), nil).Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/il2/il2server.exe", cfg.Exe)
}

func TestLoad_ExplicitConfigFileMissing(t *testing.T) {
	t.Setenv("WINEDAEMON_EXE", "/srv/il2/il2server.exe")

	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir(), nil).Load()
	assert.Error(t, err)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "exe: [unterminated\n")

	_, err := NewLoader("", dir, nil).Load()
	assert.Error(t, err)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
exe: /from/file.exe
shim: file-wine
work_dir: /from/file
`)

	t.Setenv("WINEDAEMON_SHIM", "env-wine")
	t.Setenv("WINEDAEMON_WORK_DIR", "/from/env")

	flags := newFlags(t, "--work-dir", "/from/flag")

	cfg, err := NewLoader("", dir, flags).Load()
	require.NoError(t, err)

	assert.Equal(t, "/from/file.exe", cfg.Exe, "file beats default")
	assert.Equal(t, "env-wine", cfg.Shim, "env beats file, unset flag does not count")
	assert.Equal(t, "/from/flag", cfg.WorkDir, "flag beats env")
}

func TestLoad_FlagDurations(t *testing.T) {
	flags := newFlags(t,
		"--exe", "il2server.exe",
		"--startup-timeout", "3s",
		"--stop-poll-interval", "250ms")

	cfg, err := NewLoader("", t.TempDir(), flags).Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.StartupTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.StopPollInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *Config)
		wantErr error
	}{
		{
			name:   "valid",
			modify: func(cfg *Config) {},
		},
		{
			name:    "negative startup timeout",
			modify:  func(cfg *Config) { cfg.StartupTimeout = -time.Second },
			wantErr: ErrInvalidDuration,
		},
		{
			name:    "negative poll interval",
			modify:  func(cfg *Config) { cfg.StopPollInterval = -time.Second },
			wantErr: ErrInvalidDuration,
		},
		{
			name:   "unknown log level",
			modify: func(cfg *Config) { cfg.Log.Level = "chatty" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Exe = "il2server.exe"
			tt.modify(cfg)

			err := Validate(cfg)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.name == "valid":
				assert.NoError(t, err)
			default:
				assert.Error(t, err)
			}
		})
	}
}

func TestConfig_DaemonConfig(t *testing.T) {
	cfg := &Config{
		Exe:              "/srv/il2/il2server.exe",
		Shim:             "-",
		Stdin:            "/in",
		Stdout:           "/out",
		Stderr:           "/err",
		StartupTimeout:   time.Second,
		StopPollInterval: time.Millisecond,
		WorkDir:          "/srv",
		Log:              LogConfig{Level: "debug", Format: "json"},
	}

	assert.Equal(t, winedaemon.Config{
		ExePath:          "/srv/il2/il2server.exe",
		Shim:             "-",
		Stdin:            "/in",
		Stdout:           "/out",
		Stderr:           "/err",
		StartupTimeout:   time.Second,
		StopPollInterval: time.Millisecond,
		WorkDir:          "/srv",
	}, cfg.DaemonConfig())

	assert.Equal(t, winedaemon.LogConfig{Level: "debug", Format: winedaemon.LogFormatJSON}, cfg.LogConfig())
}
