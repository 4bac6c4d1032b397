package winedaemon

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start and Run when the pid file
	// refers to a live process, or when another invocation is
	// starting the same daemon.
	ErrAlreadyRunning = errors.New("daemon already running")

	// ErrStartTimeout is returned by Start when the detached daemon
	// does not report readiness within the startup timeout. The
	// daemon is left running.
	ErrStartTimeout = errors.New("timed out waiting for daemon to start")

	// ErrDaemonExited is returned by Start when the detached daemon
	// exits before reporting readiness.
	ErrDaemonExited = errors.New("daemon exited before it was ready")

	// ErrNoReadinessMarker is returned by WaitForPrefix when the
	// process output ends before the marker is seen.
	ErrNoReadinessMarker = errors.New("process output ended before readiness marker")
)

// ForkError reports a failure to start one of the detached stages.
type ForkError struct {
	Stage string
	Err   error
}

func (o *ForkError) Error() string {
	return fmt.Sprintf("failed to start %s stage - %s", o.Stage, o.Err.Error())
}

func (o *ForkError) Unwrap() error {
	return o.Err
}

// SignalError reports a failure to deliver a termination signal for
// any reason other than the process being gone.
type SignalError struct {
	Pid int
	Err error
}

func (o *SignalError) Error() string {
	return fmt.Sprintf("failed to signal process %d - %s", o.Pid, o.Err.Error())
}

func (o *SignalError) Unwrap() error {
	return o.Err
}
