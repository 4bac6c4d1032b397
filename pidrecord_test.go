package winedaemon

import (
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDRecord_WriteRead(t *testing.T) {
	record := NewPIDRecord(filepath.Join(t.TempDir(), "server.pid"))

	_, ok := record.Read()
	assert.False(t, ok)

	require.NoError(t, record.Write(1234))

	raw, err := os.ReadFile(record.Path())
	require.NoError(t, err)
	assert.Equal(t, "1234\n", string(raw))

	pid, ok := record.Read()
	assert.True(t, ok)
	assert.Equal(t, 1234, pid)

	require.NoError(t, record.Write(42))
	pid, ok = record.Read()
	assert.True(t, ok)
	assert.Equal(t, 42, pid)
}

func TestPIDRecord_ReadInvalid(t *testing.T) {
	invalid := []string{
		"",
		"abc",
		"-5",
		"0",
		"12 34",
		"2147483648",
		"4294967295",
		"4294967297",
	}

	for _, contents := range invalid {
		t.Run(contents, func(t *testing.T) {
			record := NewPIDRecord(filepath.Join(t.TempDir(), "server.pid"))
			require.NoError(t, os.WriteFile(record.Path(), []byte(contents), 0644))

			_, ok := record.Read()
			assert.False(t, ok)
		})
	}
}

func TestPIDRecord_ReadMaxPid(t *testing.T) {
	record := NewPIDRecord(filepath.Join(t.TempDir(), "server.pid"))
	require.NoError(t, os.WriteFile(record.Path(), []byte("2147483647\n"), 0644))

	pid, ok := record.Read()
	assert.True(t, ok)
	assert.Equal(t, math.MaxInt32, pid)
}

func TestPIDRecord_LiveOutOfRange(t *testing.T) {
	record := NewPIDRecord(filepath.Join(t.TempDir(), "server.pid"))

	// The low 32 bits are pid 1, which always exists.
	require.NoError(t, os.WriteFile(record.Path(), []byte("4294967297\n"), 0644))

	_, ok := record.Live()
	assert.False(t, ok)
}

func TestPIDRecord_Live(t *testing.T) {
	record := NewPIDRecord(filepath.Join(t.TempDir(), "server.pid"))

	require.NoError(t, record.Write(os.Getpid()))
	pid, ok := record.Live()
	assert.True(t, ok)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, record.Write(exitedPid(t)))
	_, ok = record.Live()
	assert.False(t, ok)
	assert.FileExists(t, record.Path(), "stale pid file must not be removed")
}

func TestPIDRecord_Remove(t *testing.T) {
	record := NewPIDRecord(filepath.Join(t.TempDir(), "server.pid"))

	require.NoError(t, record.Write(1))
	require.NoError(t, record.Remove())
	assert.NoFileExists(t, record.Path())

	assert.NoError(t, record.Remove())
}

// exitedPid returns the pid of a process that has exited and been
// reaped.
func exitedPid(t *testing.T) int {
	t.Helper()

	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	return cmd.Process.Pid
}
