//go:build unix

package winedaemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// Daemon runs one executable as a detached Unix daemon. Its state lives
// entirely in the pid file, so separate invocations of a program (one
// per command) each construct their own Daemon from the same Config.
type Daemon struct {
	config    Config
	record    *PIDRecord
	startLock *flock.Flock
	readiness ReadinessFunc
	run       RunFunc
	logger    *slog.Logger
	exit      func(int)
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithReadiness sets the function that decides when the process is
// ready. By default the process is considered ready as soon as it
// has been started.
func WithReadiness(fn ReadinessFunc) Option {
	return func(o *Daemon) {
		o.readiness = fn
	}
}

// WithRun replaces the default run loop, which copies the process's
// output to the daemon's standard output and error and waits for the
// process to exit.
func WithRun(fn RunFunc) Option {
	return func(o *Daemon) {
		o.run = fn
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Daemon) {
		o.logger = logger
	}
}

// New returns a Daemon for the given Config.
func New(config Config, options ...Option) (*Daemon, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	config, err = config.withDefaults()
	if err != nil {
		return nil, err
	}

	record := NewPIDRecord(config.PidFilePath())

	daemon := &Daemon{
		config:    config,
		record:    record,
		startLock: flock.New(record.Path() + ".lock"),
		readiness: noReadiness,
		logger:    NewLogger(LogConfig{}, os.Stderr),
		exit:      os.Exit,
	}

	for _, option := range options {
		option(daemon)
	}

	return daemon, nil
}

// Config returns the Daemon's configuration with defaults applied.
func (o *Daemon) Config() Config {
	return o.config
}

// PIDRecord returns the Daemon's pid file.
func (o *Daemon) PIDRecord() *PIDRecord {
	return o.record
}

// Status reports whether the daemon's process is running, and its pid
// if it is.
func (o *Daemon) Status() (Status, int) {
	pid, ok := o.record.Live()
	if !ok {
		return Stopped, 0
	}

	return Running, pid
}

// Start detaches a daemon process and blocks until it reports that the
// executable is ready, or until the startup timeout elapses.
//
// Start re-executes the current program twice (see IsDetached). In those
// processes Start does not return: it runs the daemon and exits. Programs
// must therefore construct the Daemon the same way on every invocation
// and call Start for the same command line.
//
// On ErrStartTimeout the detached daemon is left running. A later Start
// reports ErrAlreadyRunning, and Stop terminates it.
func (o *Daemon) Start(ctx context.Context) error {
	if stage := currentStage(); len(stage) > 0 {
		o.exit(o.runStage(stage))
		return nil
	}

	locked, err := o.startLock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire start lock - %w", err)
	}
	if !locked {
		return fmt.Errorf("another invocation is starting the daemon ('%s') - %w",
			o.record.Path(), ErrAlreadyRunning)
	}
	defer o.startLock.Unlock()

	if pid, running := o.record.Live(); running {
		return fmt.Errorf("pid file '%s' refers to running process %d - %w",
			o.record.Path(), pid, ErrAlreadyRunning)
	}

	o.logger.Debug("starting daemon",
		"exe", o.config.ExePath, "timeout", o.config.StartupTimeout.String())

	err = o.detach(ctx)
	if errors.Is(err, ErrStartTimeout) {
		if pid, running := o.record.Live(); running {
			o.logger.Warn("daemon did not become ready in time, leaving it running",
				"pid", pid, "pid_file", o.record.Path())
		}
	}
	if err != nil {
		return err
	}

	if pid, running := o.record.Live(); running {
		o.logger.Info("daemon started", "pid", pid)
	}

	return nil
}

// Stop sends SIGTERM to the process in the pid file until it no longer
// exists, then removes the pid file. It is not an error if the daemon
// is not running.
//
// Stop does not give up on its own. Cancel ctx to abandon it.
func (o *Daemon) Stop(ctx context.Context) error {
	pid, ok := o.record.Read()
	if !ok {
		o.logger.Warn("pid file does not exist, daemon not running?",
			"pid_file", o.record.Path())
		return nil
	}

	for {
		err := unix.Kill(pid, unix.SIGTERM)
		if errors.Is(err, unix.ESRCH) {
			o.logger.Info("daemon stopped", "pid", pid)
			return o.record.Remove()
		}
		if err != nil {
			return &SignalError{
				Pid: pid,
				Err: err,
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(o.config.StopPollInterval):
		}
	}
}

// Restart stops the daemon if it is running and starts it again.
func (o *Daemon) Restart(ctx context.Context) error {
	if len(currentStage()) == 0 {
		err := o.Stop(ctx)
		if err != nil {
			return err
		}
	}

	return o.Start(ctx)
}

// Run runs the executable in the foreground, without detaching. This is
// meant for service managers that supervise the process themselves.
// The pid file, readiness function and run loop behave as they do for
// a detached daemon. Cancelling ctx terminates the process.
func (o *Daemon) Run(ctx context.Context) error {
	if pid, running := o.record.Live(); running {
		return fmt.Errorf("pid file '%s' refers to running process %d - %w",
			o.record.Path(), pid, ErrAlreadyRunning)
	}

	return o.serve(ctx, nil)
}

// serve launches the process, waits for it to become ready, notifies
// whoever is waiting and then hands the process to the run loop. ready
// is nil when running in the foreground.
func (o *Daemon) serve(ctx context.Context, ready *handshake) error {
	process, err := launch(o.config, o.record)
	if err != nil {
		return err
	}
	defer func() {
		err := process.release()
		if err != nil {
			o.logger.Warn("failed to clean up pid file", "error", err.Error())
		}
	}()

	stopProcess := context.AfterFunc(ctx, func() {
		process.Signal(syscall.SIGTERM)
	})
	defer stopProcess()

	if ready != nil {
		err = redirectStdio(o.config)
		if err != nil {
			process.kill()
			return err
		}
	}

	o.logger.Info("process started", "pid", process.Pid(), "pid_file", o.record.Path())

	err = o.readiness(ctx, process)
	if err != nil {
		process.kill()
		return fmt.Errorf("process did not become ready - %w", err)
	}

	if ready != nil {
		err = ready.signalReady()
		if err != nil {
			o.logger.Warn("failed to notify starting process", "error", err.Error())
		}
	}
	notifyReady(o.logger)

	run := o.run
	if run == nil {
		run = CopyOutput(os.Stdout, os.Stderr)
	}

	return run(ctx, process)
}

