package winedaemon

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	Running Status = "running"
	Stopped Status = "stopped"

	// DefaultShim is the compatibility layer used to run the executable.
	DefaultShim = "wine"

	DefaultStartupTimeout   = 10 * time.Second
	DefaultStopPollInterval = 100 * time.Millisecond
	DefaultWorkDir          = "/"

	pidFileExt = ".pid"
	devNull    = "/dev/null"
)

// Status represents the status of a daemon.
type Status string

func (o Status) String() string {
	return string(o)
}

// Config configures a Daemon.
type Config struct {
	// ExePath is the path to the executable that will be run
	// as a daemon (for example, '/srv/il2/il2server.exe').
	ExePath string

	// Shim is the program used to run ExePath. The executable
	// path is passed to it as its only argument. If left unset,
	// DefaultShim is used. Set it to "-" to run the executable
	// directly.
	Shim string

	// Stdin, Stdout and Stderr are the files the daemon's own
	// standard streams are redirected to once it has detached.
	// They default to '/dev/null'.
	Stdin  string
	Stdout string
	Stderr string

	// StartupTimeout is how long 'start' waits for the detached
	// daemon to report that it is ready.
	StartupTimeout time.Duration

	// StopPollInterval is the delay between termination signals
	// sent by 'stop'.
	StopPollInterval time.Duration

	// WorkDir is the directory the daemon changes into after
	// detaching.
	WorkDir string
}

// Validate returns a non-nil error if the Config cannot be used.
func (o Config) Validate() error {
	if len(o.ExePath) == 0 {
		return fmt.Errorf("executable path must be provided to daemon config")
	}

	if o.StartupTimeout < 0 {
		return fmt.Errorf("startup timeout must not be negative, got %s", o.StartupTimeout)
	}

	if o.StopPollInterval < 0 {
		return fmt.Errorf("stop poll interval must not be negative, got %s", o.StopPollInterval)
	}

	return nil
}

// PidFilePath returns the pid file path derived from the executable path:
// the executable's directory, and its base name with the extension
// replaced by '.pid'.
//
// PID file path example: '/srv/il2/il2server.pid'.
func (o Config) PidFilePath() string {
	base := filepath.Base(o.ExePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(filepath.Dir(o.ExePath), name+pidFileExt)
}

// shimCommand returns the program and arguments used to launch ExePath.
func (o Config) shimCommand() (string, []string) {
	if o.Shim == "-" {
		return o.ExePath, nil
	}

	return o.Shim, []string{o.ExePath}
}

// withDefaults returns a copy of the Config with unset fields populated
// and every path made absolute.
func (o Config) withDefaults() (Config, error) {
	if len(o.Shim) == 0 {
		o.Shim = DefaultShim
	}

	if o.StartupTimeout == 0 {
		o.StartupTimeout = DefaultStartupTimeout
	}

	if o.StopPollInterval == 0 {
		o.StopPollInterval = DefaultStopPollInterval
	}

	if len(o.WorkDir) == 0 {
		o.WorkDir = DefaultWorkDir
	}

	exePath, err := filepath.Abs(o.ExePath)
	if err != nil {
		return o, fmt.Errorf("failed to resolve executable path '%s' - %w", o.ExePath, err)
	}
	o.ExePath = exePath

	for _, p := range []*string{&o.Stdin, &o.Stdout, &o.Stderr} {
		if len(*p) == 0 {
			*p = devNull
			continue
		}

		abs, err := filepath.Abs(*p)
		if err != nil {
			return o, fmt.Errorf("failed to resolve path '%s' - %w", *p, err)
		}
		*p = abs
	}

	return o, nil
}
