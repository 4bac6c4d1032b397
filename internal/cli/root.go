//go:build unix

// Package cli implements the winedaemon command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stephen-fox/winedaemon"
	"github.com/stephen-fox/winedaemon/control"
	"github.com/stephen-fox/winedaemon/internal/config"
)

// usageError makes Execute print the usage line.
type usageError struct {
	err error
}

func (o usageError) Error() string {
	if o.err == nil {
		return "missing command"
	}

	return o.err.Error()
}

func (o usageError) Unwrap() error {
	return o.err
}

type options struct {
	configFile string
}

// Execute runs the command line in args (args[0] being the program
// name) and returns the process exit code.
//
// When 'start' or 'restart' detach a daemon, the program is executed
// again with the same arguments. Those executions end inside Execute
// and never return.
func Execute(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	prog := "winedaemon"
	if len(args) > 0 {
		prog = filepath.Base(args[0])
		args = args[1:]
	}

	root := NewRootCommand(prog)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var usage usageError
	if errors.As(err, &usage) {
		if usage.err != nil {
			fmt.Fprintf(stderr, "%s.\n", capitalize(usage.Error()))
		}
		fmt.Fprintln(stderr, control.Usage(prog))
		return 1
	}

	fmt.Fprintf(stderr, "Error: %s\n", err.Error())
	return 1
}

// NewRootCommand creates the root command. Its single argument selects
// one of the control commands.
func NewRootCommand(prog string) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s [flags] %s", prog, control.SupportedCommandsString()),
		Short: "Run a Windows executable under Wine as a Unix daemon",
		Long: `Runs a Windows executable through Wine as a detached Unix daemon.

'start' returns once the executable is ready: immediately after it has
been spawned, or once it prints a line beginning with --ready-prefix.
The executable's pid is kept in a .pid file next to it.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // Execute prints errors and picks the exit code
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runControlCommand(cmd, opts, args)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "",
		"path to config file (default: ./winedaemon.yaml if present)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newRunCommand(opts))
	addServiceCommands(cmd, opts)

	return cmd
}

func runControlCommand(cmd *cobra.Command, opts *options, args []string) error {
	if len(args) != 1 {
		return usageError{}
	}

	command := control.Command(args[0])

	// Reject unknown commands before the executable is required.
	if !isSupported(command) {
		return usageError{
			err: fmt.Errorf("unknown command '%s'", command),
		}
	}

	daemon, _, err := newDaemon(cmd, opts)
	if err != nil {
		return err
	}

	output, err := control.NewController(daemon).Execute(cmd.Context(), command)
	if err != nil {
		if control.IsUnknownCommand(err) {
			return usageError{err: err}
		}
		return err
	}

	if len(output) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), output)
	}

	return nil
}

// newDaemon loads the configuration and creates the daemon it describes.
func newDaemon(cmd *cobra.Command, opts *options) (*winedaemon.Daemon, *config.Config, error) {
	cfg, err := config.NewLoader(opts.configFile, ".", cmd.Flags()).Load()
	if err != nil {
		return nil, nil, err
	}

	logger := winedaemon.NewLogger(cfg.LogConfig(), cmd.ErrOrStderr())

	daemonOptions := []winedaemon.Option{
		winedaemon.WithLogger(logger),
	}

	if len(cfg.ReadyPrefix) > 0 {
		daemonOptions = append(daemonOptions,
			winedaemon.WithReadiness(winedaemon.WaitForPrefix(cfg.ReadyPrefix)))
	}

	daemon, err := winedaemon.New(cfg.DaemonConfig(), daemonOptions...)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("loaded configuration",
		slog.String("exe", daemon.Config().ExePath),
		slog.String("pid_file", daemon.PIDRecord().Path()))

	return daemon, cfg, nil
}

func isSupported(command control.Command) bool {
	for _, supported := range control.SupportedCommands() {
		if string(command) == supported {
			return true
		}
	}

	return false
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
