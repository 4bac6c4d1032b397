package control

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stephen-fox/winedaemon"
)

const (
	GetStatus Command = "status"
	Start     Command = "start"
	Stop      Command = "stop"
	Restart   Command = "restart"
)

// Command represents a command that can be issued to a Controller.
type Command string

func (o Command) string() string {
	return string(o)
}

// Lifecycle is the set of daemon operations a Controller dispatches to.
// *winedaemon.Daemon implements it.
type Lifecycle interface {
	// Status reports whether the daemon is running and, if so,
	// the pid of its process.
	Status() (winedaemon.Status, int)

	// Start starts the daemon.
	Start(ctx context.Context) error

	// Stop stops the daemon. Stopping a daemon that is not running
	// is not an error.
	Stop(ctx context.Context) error

	// Restart stops the daemon if it is running and starts it.
	Restart(ctx context.Context) error
}

type handler func(ctx context.Context, lifecycle Lifecycle) (string, error)

// Controller turns command names (a command line argument, for example)
// into Lifecycle calls.
type Controller struct {
	lifecycle Lifecycle
	handlers  map[Command]handler
}

// NewController returns a Controller with the status, start, stop and
// restart commands registered.
func NewController(lifecycle Lifecycle) *Controller {
	return &Controller{
		lifecycle: lifecycle,
		handlers: map[Command]handler{
			GetStatus: status,
			Start:     start,
			Stop:      stop,
			Restart:   restart,
		},
	}
}

// Execute executes a control command. It returns any output associated
// with the command (e.g., the status of the daemon). An unrecognized
// command results in a *CommandError.
func (o *Controller) Execute(ctx context.Context, command Command) (output string, err error) {
	fn, ok := o.handlers[command]
	if !ok {
		return "", &CommandError{
			Command: command,
			unknown: true,
		}
	}

	output, err = fn(ctx, o.lifecycle)
	if err != nil {
		return "", &CommandError{
			Command: command,
			Err:     err,
		}
	}

	return output, nil
}

// Commands returns the names of the registered commands.
func (o *Controller) Commands() []string {
	var names []string
	for command := range o.handlers {
		names = append(names, command.string())
	}

	sort.Slice(names, func(i, j int) bool {
		return commandOrder(names[i]) < commandOrder(names[j])
	})

	return names
}

func status(_ context.Context, lifecycle Lifecycle) (string, error) {
	status, pid := lifecycle.Status()
	if status == winedaemon.Running {
		return fmt.Sprintf("Daemon is running (pid=%d).", pid), nil
	}

	return "Daemon is not running.", nil
}

func start(ctx context.Context, lifecycle Lifecycle) (string, error) {
	err := lifecycle.Start(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start daemon - %w", err)
	}

	return "", nil
}

func stop(ctx context.Context, lifecycle Lifecycle) (string, error) {
	err := lifecycle.Stop(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to stop daemon - %w", err)
	}

	return "", nil
}

func restart(ctx context.Context, lifecycle Lifecycle) (string, error) {
	err := lifecycle.Restart(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to restart daemon - %w", err)
	}

	return "", nil
}

// CommandError is returned by Controller.Execute.
type CommandError struct {
	Command Command
	Err     error
	unknown bool
}

func (o *CommandError) Error() string {
	if o.unknown {
		return fmt.Sprintf("unknown daemon command '%s'", o.Command)
	}

	return o.Err.Error()
}

func (o *CommandError) Unwrap() error {
	return o.Err
}

// IsUnknownCommand returns true if the command was not recognized.
func (o *CommandError) IsUnknownCommand() bool {
	return o.unknown
}

// IsUnknownCommand returns true if err is a *CommandError for an
// unrecognized command.
func IsUnknownCommand(err error) bool {
	var commandErr *CommandError
	return errors.As(err, &commandErr) && commandErr.IsUnknownCommand()
}

// SupportedCommandsString returns the supported commands joined for use
// in a usage line (e.g., 'status|start|stop|restart').
func SupportedCommandsString() string {
	return strings.Join(SupportedCommands(), "|")
}

// SupportedCommands returns a slice of supported daemon control commands.
func SupportedCommands() []string {
	return []string{
		GetStatus.string(),
		Start.string(),
		Stop.string(),
		Restart.string(),
	}
}

// Usage returns the usage line for a program named prog.
func Usage(prog string) string {
	return fmt.Sprintf("usage: %s %s", prog, SupportedCommandsString())
}

func commandOrder(name string) int {
	for i, supported := range SupportedCommands() {
		if name == supported {
			return i
		}
	}

	return len(SupportedCommands())
}
