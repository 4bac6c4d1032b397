package control

import (
	"fmt"
	"os"
	"strings"
)

// RunCommand is the subcommand a service manager uses to run the daemon
// in the foreground.
const RunCommand = "run"

// SystemSpecificOption specifies the name of an operating system
// specific option.
type SystemSpecificOption string

// ServiceConfig describes how a service manager should run the daemon.
// The service runs the controlling program (usually the current
// executable) with Arguments followed by RunCommand.
type ServiceConfig struct {
	// ID is the string used to identify the service (for example,
	// "il2server"). It must contain no spaces or special characters.
	// On macOS, it must be in reverse DNS format (e.g.,
	// com.github.thedude.il2server).
	ID string

	// Description is a short blurb describing the service.
	Description string

	// ExePath is the controlling program. If left unset, the
	// current executable is used.
	ExePath string

	// Arguments are placed before RunCommand (for example, the
	// flags that select the Wine executable).
	Arguments []string

	// RunAs is the user to run the service as. If left unset,
	// the service runs as root.
	RunAs string

	// SystemSpecificOptions is a map of operating system specific
	// settings keys to values.
	SystemSpecificOptions map[SystemSpecificOption]interface{}
}

// Validate returns a non-nil error if the ServiceConfig cannot be used.
func (o ServiceConfig) Validate() error {
	if len(o.ID) == 0 {
		return fmt.Errorf("service id must be provided to service config")
	}

	if strings.ContainsAny(o.ID, " /\t\n") {
		return fmt.Errorf("service id '%s' must not contain spaces or slashes", o.ID)
	}

	return nil
}

// command returns the program and arguments the service manager runs.
func (o ServiceConfig) command() (string, []string, error) {
	exePath := o.ExePath
	if len(exePath) == 0 {
		var err error
		exePath, err = os.Executable()
		if err != nil {
			return "", nil, fmt.Errorf("failed to find current executable - %w", err)
		}
	}

	args := append(append([]string{}, o.Arguments...), RunCommand)

	return exePath, args, nil
}

func (o ServiceConfig) hasOption(option SystemSpecificOption) bool {
	_, ok := o.SystemSpecificOptions[option]
	return ok
}
