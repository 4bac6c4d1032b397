package winedaemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const readyByte = '!'

// handshake carries the readiness notification from the detached daemon
// back to the invocation that started it. Exactly one process reads
// (the original caller) and exactly one writes (the daemon).
type handshake struct {
	r *os.File
	w *os.File
}

func newHandshake() (*handshake, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create readiness pipe - %w", err)
	}

	return &handshake{
		r: r,
		w: w,
	}, nil
}

// closeWriter closes the caller's copy of the write end. It must be
// called once the write end has been handed to the detached process,
// otherwise wait never observes the daemon exiting.
func (o *handshake) closeWriter() {
	if o.w != nil {
		o.w.Close()
		o.w = nil
	}
}

// close releases both ends. It is used when the detached process could
// not be started.
func (o *handshake) close() {
	o.closeWriter()
	o.r.Close()
}

// wait blocks until the daemon signals readiness, the daemon closes
// its end, the timeout elapses or ctx is done.
func (o *handshake) wait(ctx context.Context, timeout time.Duration) error {
	defer o.r.Close()

	err := o.r.SetReadDeadline(time.Now().Add(timeout))
	if err != nil {
		return fmt.Errorf("failed to set readiness deadline - %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		o.r.SetReadDeadline(time.Now())
	})
	defer stop()

	b := make([]byte, 1)
	_, err = o.r.Read(b)
	switch {
	case err == nil && b[0] == readyByte:
		return nil
	case err == nil:
		return fmt.Errorf("unexpected readiness message %q", b[0])
	case errors.Is(err, os.ErrDeadlineExceeded):
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrStartTimeout
	case errors.Is(err, io.EOF):
		return ErrDaemonExited
	}

	return fmt.Errorf("failed to read readiness pipe - %w", err)
}

// signalReady is called by the daemon. The write end is closed
// afterwards so it is not leaked into the subprocess's lifetime.
func (o *handshake) signalReady() error {
	if o.w == nil {
		return nil
	}
	defer o.closeWriter()

	_, err := o.w.Write([]byte{readyByte})
	if err != nil {
		return fmt.Errorf("failed to write readiness pipe - %w", err)
	}

	return nil
}
