// Package config loads the settings of the winedaemon command from flags,
// environment variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/stephen-fox/winedaemon"
)

var (
	// ErrMissingExe indicates that no executable was configured.
	ErrMissingExe = errors.New("no executable configured")

	// ErrInvalidDuration indicates a negative timeout or interval.
	ErrInvalidDuration = errors.New("invalid duration")
)

// Config holds the settings of the winedaemon command.
type Config struct {
	// Exe is the Windows executable to run as a daemon.
	Exe string `mapstructure:"exe"`

	// Shim runs Exe ("wine" unless set, "-" to run Exe directly).
	Shim string `mapstructure:"shim"`

	Stdin  string `mapstructure:"stdin"`
	Stdout string `mapstructure:"stdout"`
	Stderr string `mapstructure:"stderr"`

	StartupTimeout   time.Duration `mapstructure:"startup_timeout"`
	StopPollInterval time.Duration `mapstructure:"stop_poll_interval"`
	WorkDir          string        `mapstructure:"work_dir"`

	// ReadyPrefix, when set, makes the daemon wait for an output
	// line starting with it before reporting readiness.
	ReadyPrefix string `mapstructure:"ready_prefix"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig configures the command's own logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns a Config with all defaults applied. It has no
// executable, so it does not validate on its own.
func Default() *Config {
	return &Config{
		Shim:             winedaemon.DefaultShim,
		StartupTimeout:   winedaemon.DefaultStartupTimeout,
		StopPollInterval: winedaemon.DefaultStopPollInterval,
		WorkDir:          winedaemon.DefaultWorkDir,
		Log: LogConfig{
			Level:  "info",
			Format: string(winedaemon.LogFormatText),
		},
	}
}

// Validate checks that the configuration is complete.
func Validate(cfg *Config) error {
	var errs []error

	if len(cfg.Exe) == 0 {
		errs = append(errs, fmt.Errorf("%w: set --exe or WINEDAEMON_EXE", ErrMissingExe))
	}

	if cfg.StartupTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: startup_timeout must not be negative, got %s",
			ErrInvalidDuration, cfg.StartupTimeout))
	}

	if cfg.StopPollInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: stop_poll_interval must not be negative, got %s",
			ErrInvalidDuration, cfg.StopPollInterval))
	}

	if err := cfg.LogConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// DaemonConfig returns the winedaemon.Config described by cfg.
func (cfg *Config) DaemonConfig() winedaemon.Config {
	return winedaemon.Config{
		ExePath:          cfg.Exe,
		Shim:             cfg.Shim,
		Stdin:            cfg.Stdin,
		Stdout:           cfg.Stdout,
		Stderr:           cfg.Stderr,
		StartupTimeout:   cfg.StartupTimeout,
		StopPollInterval: cfg.StopPollInterval,
		WorkDir:          cfg.WorkDir,
	}
}

// LogConfig returns the winedaemon.LogConfig described by cfg.
func (cfg *Config) LogConfig() winedaemon.LogConfig {
	return winedaemon.LogConfig{
		Level:  cfg.Log.Level,
		Format: winedaemon.LogFormat(cfg.Log.Format),
	}
}
