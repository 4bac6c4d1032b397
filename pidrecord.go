package winedaemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

const pidFilePerm = 0644

// PIDRecord is the pid file of a daemon's subprocess. The file's presence
// alone does not mean the daemon is running; see Live.
type PIDRecord struct {
	path string
}

// NewPIDRecord returns a PIDRecord stored at the given path.
func NewPIDRecord(path string) *PIDRecord {
	return &PIDRecord{
		path: path,
	}
}

// Path returns the pid file path.
func (o *PIDRecord) Path() string {
	return o.path
}

// Write stores pid in the file, replacing any previous contents.
func (o *PIDRecord) Write(pid int) error {
	err := os.WriteFile(o.path, []byte(fmt.Sprintf("%d\n", pid)), pidFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write pid file - %w", err)
	}

	return nil
}

// Read returns the pid stored in the file. It returns false if the file
// does not exist, cannot be read, or does not contain a pid in the range
// of pid_t (1 to math.MaxInt32).
func (o *PIDRecord) Read() (int, bool) {
	raw, err := os.ReadFile(o.path)
	if err != nil {
		return 0, false
	}

	// Larger values would be truncated by kill(2), turning them into
	// pid 1 or -1 (every process the user may signal).
	pid, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 32)
	if err != nil || pid <= 0 {
		return 0, false
	}

	return int(pid), true
}

// Live returns the stored pid if a process with that pid currently
// exists. A stale file is not removed.
func (o *PIDRecord) Live() (int, bool) {
	pid, ok := o.Read()
	if !ok {
		return 0, false
	}

	exists, err := process.PidExists(int32(pid))
	if err != nil || !exists {
		return 0, false
	}

	return pid, true
}

// Remove deletes the pid file. It is not an error if the file does
// not exist.
func (o *PIDRecord) Remove() error {
	err := os.Remove(o.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove pid file - %w", err)
	}

	return nil
}
