//go:build unix

package cli

import (
	"github.com/spf13/cobra"
	"github.com/stephen-fox/winedaemon/control"
)

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   control.RunCommand,
		Short: "Run the executable in the foreground",
		Long: `Runs the executable without detaching, for use by service managers
such as systemd and launchd. The pid file, readiness prefix and output
copying behave as they do for 'start'. SIGTERM or SIGINT stops the
executable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			daemon, _, err := newDaemon(cmd, opts)
			if err != nil {
				return err
			}

			return daemon.Run(cmd.Context())
		},
	}
}
