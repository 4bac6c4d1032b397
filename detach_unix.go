//go:build unix

package winedaemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	stageEnv     = "WINEDAEMON_STAGE"
	parentPidEnv = "WINEDAEMON_PARENT_PID"

	// stageSession is the first re-execution. It leads a new session,
	// clears the umask and starts stageDaemon.
	stageSession = "session"

	// stageDaemon is the second re-execution. It is not a session
	// leader, so it can never acquire a controlling terminal.
	stageDaemon = "daemon"

	// readyFD is the descriptor on which both stages receive the write
	// end of the readiness pipe (the first entry of exec.Cmd.ExtraFiles).
	readyFD = 3
)

// IsDetached reports whether the current process is one of the detached
// stages started by Daemon.Start. Programs can use it to skip work that
// only makes sense in the invoking process, such as parsing interactive
// input. The daemon still requires Start to be called.
func IsDetached() bool {
	return len(currentStage()) > 0
}

func currentStage() string {
	return os.Getenv(stageEnv)
}

// detach starts the session stage and waits for the daemon stage to
// report readiness through the handshake.
func (o *Daemon) detach(ctx context.Context) error {
	ready, err := newHandshake()
	if err != nil {
		return err
	}

	session, err := reexec(stageSession, ready.w)
	if err != nil {
		ready.close()
		return &ForkError{
			Stage: stageSession,
			Err:   err,
		}
	}
	session.Env = append(session.Env, parentPidEnv+"="+strconv.Itoa(os.Getpid()))
	session.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	deadline := time.Now().Add(o.config.StartupTimeout)

	err = session.Start()
	ready.closeWriter()
	if err != nil {
		ready.close()
		return &ForkError{
			Stage: stageSession,
			Err:   err,
		}
	}

	// The session stage exits as soon as the daemon stage has been
	// started, or with a non-zero status if it could not be.
	err = waitStage(ctx, session, deadline)
	if err != nil {
		ready.close()
		if errors.Is(err, ErrStartTimeout) || ctx.Err() != nil {
			return err
		}
		return &ForkError{
			Stage: stageDaemon,
			Err:   err,
		}
	}

	return ready.wait(ctx, time.Until(deadline))
}

// waitStage waits for a started stage to exit. The stage is killed if
// it is still running at deadline or when ctx is done.
func waitStage(ctx context.Context, stage *exec.Cmd, deadline time.Time) error {
	exited := make(chan error, 1)
	go func() {
		exited <- stage.Wait()
	}()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case err := <-exited:
		return err
	case <-timer.C:
		stage.Process.Kill()
		<-exited
		return ErrStartTimeout
	case <-ctx.Done():
		stage.Process.Kill()
		<-exited
		return ctx.Err()
	}
}

func (o *Daemon) runStage(stage string) int {
	switch stage {
	case stageSession:
		return o.runSessionStage()
	case stageDaemon:
		return o.runDaemonStage()
	}

	fmt.Fprintf(os.Stderr, "unknown daemon stage '%s'\n", stage)
	return 1
}

func (o *Daemon) runSessionStage() int {
	unix.Umask(0)

	ready := os.NewFile(readyFD, "ready")

	daemon, err := reexec(stageDaemon, ready)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare daemon stage - %s\n", err)
		return 1
	}

	err = daemon.Start()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start daemon stage - %s\n", err)
		return 1
	}

	daemon.Process.Release()

	return 0
}

func (o *Daemon) runDaemonStage() int {
	// The executable must not inherit the pipe, or its lifetime would
	// hide an early exit of this process from the caller.
	unix.CloseOnExec(readyFD)

	ready := &handshake{
		w: os.NewFile(readyFD, "ready"),
	}
	defer ready.closeWriter()

	parentPid := os.Getenv(parentPidEnv)

	// The executable must not see these, in case it is itself a
	// program built on this package.
	os.Unsetenv(stageEnv)
	os.Unsetenv(parentPidEnv)

	err := os.Chdir(o.config.WorkDir)
	if err != nil {
		o.logger.Error("failed to change working directory",
			"dir", o.config.WorkDir, "error", err.Error())
		return 1
	}

	signal.Ignore(syscall.SIGHUP)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	o.logger.Debug("daemon stage started", "pid", os.Getpid(), "parent_pid", parentPid)

	err = o.serve(ctx, ready)
	if err != nil {
		o.logger.Error("daemon failed", "error", err.Error())
		return 1
	}

	return 0
}

// reexec prepares a command that runs the current program again with the
// same arguments, in the given stage. ready becomes descriptor readyFD in
// the new process. Standard output and error are inherited.
func reexec(stage string, ready *os.File) (*exec.Cmd, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to find current executable - %w", err)
	}

	cmd := exec.Command(exePath, os.Args[1:]...)
	cmd.Env = append(os.Environ(), stageEnv+"="+stage)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{ready}

	return cmd, nil
}

// redirectStdio points the daemon's standard streams at the configured
// files. Output files are opened for appending and created if needed.
func redirectStdio(config Config) error {
	streams := []struct {
		path string
		flag int
		fd   int
	}{
		{path: config.Stdin, flag: os.O_RDONLY, fd: int(os.Stdin.Fd())},
		{path: config.Stdout, flag: os.O_WRONLY | os.O_CREATE | os.O_APPEND, fd: int(os.Stdout.Fd())},
		{path: config.Stderr, flag: os.O_WRONLY | os.O_CREATE | os.O_APPEND, fd: int(os.Stderr.Fd())},
	}

	for _, stream := range streams {
		f, err := os.OpenFile(stream.path, stream.flag, 0644)
		if err != nil {
			return fmt.Errorf("failed to open '%s' for redirection - %w", stream.path, err)
		}

		err = dup2(int(f.Fd()), stream.fd)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to redirect descriptor %d to '%s' - %w",
				stream.fd, stream.path, err)
		}
	}

	return nil
}
