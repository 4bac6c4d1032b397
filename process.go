//go:build unix

package winedaemon

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// ReadinessFunc decides when a freshly spawned process is ready. It runs
// in the daemon after the process is started and before the original
// 'start' invocation is released. Returning an error stops the process
// and fails the start.
type ReadinessFunc func(ctx context.Context, process *Process) error

// RunFunc runs once the process is ready, and returns when the daemon
// should exit. ctx is done when the daemon is asked to stop, at which
// point the process has already been sent SIGTERM.
type RunFunc func(ctx context.Context, process *Process) error

// Process is the subprocess managed by a daemon. Its standard output and
// error are pipes owned by the daemon.
type Process struct {
	// Stdout and Stderr are the process's output streams. Readers must
	// consume them, or the process may block once a pipe fills up.
	Stdout *bufio.Reader
	Stderr *bufio.Reader

	cmd    *exec.Cmd
	record *PIDRecord
}

// Pid returns the process id.
func (o *Process) Pid() int {
	return o.cmd.Process.Pid
}

// Signal sends sig to the process.
func (o *Process) Signal(sig os.Signal) error {
	return o.cmd.Process.Signal(sig)
}

// Wait waits for the process to exit. Both output streams must have been
// read to EOF before calling it.
func (o *Process) Wait() error {
	return o.cmd.Wait()
}

// kill stops the process without regard for its output.
func (o *Process) kill() {
	o.cmd.Process.Kill()
	o.cmd.Wait()
}

// release removes the pid record when the daemon exits. A record that
// already names another process belongs to a newer daemon and is kept.
func (o *Process) release() error {
	pid, ok := o.record.Read()
	if ok && pid != o.Pid() {
		return nil
	}

	return o.record.Remove()
}

// launch starts the configured executable through the shim and records
// its pid.
func launch(config Config, record *PIDRecord) (*Process, error) {
	name, args := config.shimCommand()

	cmd := exec.Command(name, args...)
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe - %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe - %w", err)
	}

	err = cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("failed to start process '%s' - %w",
			strings.Join(cmd.Args, " "), err)
	}

	process := &Process{
		Stdout: bufio.NewReader(stdout),
		Stderr: bufio.NewReader(stderr),
		cmd:    cmd,
		record: record,
	}

	err = record.Write(process.Pid())
	if err != nil {
		process.kill()
		return nil, err
	}

	return process, nil
}

// WaitForPrefix returns a ReadinessFunc that reads the process's standard
// output one line at a time until a line starting with prefix is seen.
// Lines after the marker are left unread.
//
// Only the first buffered chunk of a line (4096 bytes by default) is
// compared against prefix, and the rest of a longer line is discarded.
// If ctx is done first, ctx.Err() is returned and the process must be
// stopped, since its output is still being read.
func WaitForPrefix(prefix string) ReadinessFunc {
	return func(ctx context.Context, process *Process) error {
		found := make(chan error, 1)
		go func() {
			found <- readUntilPrefix(process.Stdout, []byte(prefix))
		}()

		select {
		case err := <-found:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func readUntilPrefix(r *bufio.Reader, prefix []byte) error {
	lineStart := true
	for {
		chunk, err := r.ReadSlice('\n')
		if lineStart && bytes.HasPrefix(chunk, prefix) {
			return nil
		}

		switch {
		case err == nil:
			lineStart = true
		case errors.Is(err, bufio.ErrBufferFull):
			lineStart = false
		case err == io.EOF:
			return fmt.Errorf("%w (waiting for '%s')", ErrNoReadinessMarker, prefix)
		default:
			return fmt.Errorf("failed to read process output - %w", err)
		}
	}
}

// CopyOutput returns a RunFunc that copies the process's output streams
// to the given writers until the process exits.
func CopyOutput(stdout io.Writer, stderr io.Writer) RunFunc {
	return func(ctx context.Context, process *Process) error {
		var streams errgroup.Group

		streams.Go(func() error {
			_, err := io.Copy(stdout, process.Stdout)
			return err
		})
		streams.Go(func() error {
			_, err := io.Copy(stderr, process.Stderr)
			return err
		})

		copyErr := streams.Wait()

		err := process.Wait()
		if err != nil {
			// SIGTERM is how both 'stop' and the daemon's own
			// shutdown end the process.
			if exitedFromSignal(err, syscall.SIGTERM) {
				return nil
			}
			return fmt.Errorf("process exited - %w", err)
		}

		if copyErr != nil {
			return fmt.Errorf("failed to copy process output - %w", copyErr)
		}

		return nil
	}
}

func exitedFromSignal(err error, sig syscall.Signal) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}

	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return false
	}

	return status.Signaled() && status.Signal() == sig
}

func noReadiness(context.Context, *Process) error {
	return nil
}
