//go:build unix

package winedaemon

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// launchScript starts a shell script as the daemon's executable.
func launchScript(t *testing.T, script string) (*Process, *PIDRecord) {
	t.Helper()

	dir := t.TempDir()
	exePath := filepath.Join(dir, "demo.exe")
	require.NoError(t, os.WriteFile(exePath, []byte(script), 0755))

	config, err := Config{ExePath: exePath, Shim: "/bin/sh"}.withDefaults()
	require.NoError(t, err)

	record := NewPIDRecord(config.PidFilePath())

	process, err := launch(config, record)
	require.NoError(t, err)

	return process, record
}

func TestLaunch_WritesPidRecord(t *testing.T) {
	process, record := launchScript(t, "echo hello\n")

	pid, ok := record.Read()
	assert.True(t, ok)
	assert.Equal(t, process.Pid(), pid)

	var stdout, stderr bytes.Buffer
	require.NoError(t, CopyOutput(&stdout, &stderr)(context.Background(), process))
	assert.Equal(t, "hello\n", stdout.String())

	require.NoError(t, process.release())
	assert.NoFileExists(t, record.Path())
}

func TestLaunch_MissingShim(t *testing.T) {
	dir := t.TempDir()
	config, err := Config{
		ExePath: filepath.Join(dir, "demo.exe"),
		Shim:    filepath.Join(dir, "no-such-wine"),
	}.withDefaults()
	require.NoError(t, err)

	record := NewPIDRecord(config.PidFilePath())

	_, err = launch(config, record)
	assert.Error(t, err)
	assert.NoFileExists(t, record.Path())
}

func TestWaitForPrefix(t *testing.T) {
	process, _ := launchScript(t, "echo booting\necho '1> ready'\necho serving\n")

	require.NoError(t, WaitForPrefix("1>")(context.Background(), process))

	var stdout, stderr bytes.Buffer
	require.NoError(t, CopyOutput(&stdout, &stderr)(context.Background(), process))
	assert.Equal(t, "serving\n", stdout.String())
}

func TestWaitForPrefix_NoMarker(t *testing.T) {
	process, _ := launchScript(t, "echo booting\n")

	err := WaitForPrefix("1>")(context.Background(), process)
	assert.ErrorIs(t, err, ErrNoReadinessMarker)

	process.kill()
}

func TestWaitForPrefix_LongLine(t *testing.T) {
	// A 10000 byte line that merely contains the marker after its
	// first buffered chunk must not count as ready.
	process, _ := launchScript(t,
		"printf '%10000s1> fake\\n' ''\necho '1> ready'\necho serving\n")

	require.NoError(t, WaitForPrefix("1>")(context.Background(), process))

	var stdout, stderr bytes.Buffer
	require.NoError(t, CopyOutput(&stdout, &stderr)(context.Background(), process))
	assert.Equal(t, "serving\n", stdout.String())
}

func TestWaitForPrefix_Cancelled(t *testing.T) {
	process, _ := launchScript(t, "printf 'no newline'\nexec sleep 30\n")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := WaitForPrefix("1>")(ctx, process)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	process.kill()
}

func TestCopyOutput_Stderr(t *testing.T) {
	process, _ := launchScript(t, "echo oops >&2\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, CopyOutput(&stdout, &stderr)(context.Background(), process))
	assert.Empty(t, stdout.String())
	assert.Equal(t, "oops\n", stderr.String())
}

func TestCopyOutput_ExitStatus(t *testing.T) {
	process, _ := launchScript(t, "exit 3\n")

	var stdout, stderr bytes.Buffer
	assert.Error(t, CopyOutput(&stdout, &stderr)(context.Background(), process))
}

func TestCopyOutput_Terminated(t *testing.T) {
	process, _ := launchScript(t, "echo '1> ready'\nexec sleep 30\n")

	require.NoError(t, WaitForPrefix("1>")(context.Background(), process))
	require.NoError(t, process.Signal(syscall.SIGTERM))

	var stdout, stderr bytes.Buffer
	assert.NoError(t, CopyOutput(&stdout, &stderr)(context.Background(), process))
}
