package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stephen-fox/winedaemon/control"
)

func addServiceCommands(root *cobra.Command, opts *options) {
	root.AddCommand(newUnitCommand(opts))
}

func newUnitCommand(opts *options) *cobra.Command {
	svc := &serviceOptions{}
	var install bool

	cmd := &cobra.Command{
		Use:   "unit",
		Short: "Print a systemd unit that runs the daemon",
		Long: `Prints a systemd service unit (Type=notify) that runs this program's
'run' command with the current settings. With --install the unit is
written to the systemd unit directory instead. Enable it with systemctl.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := serviceConfig(cmd, opts, svc)
			if err != nil {
				return err
			}

			if install {
				unitPath, err := control.InstallSystemdUnit(config)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", unitPath)
				return nil
			}

			contents, err := control.SystemdUnit(config)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(contents)
			return err
		},
	}

	svc.register(cmd.Flags(), "unit name (default: the executable's base name)")
	cmd.Flags().BoolVar(&install, "install", false, "write the unit file instead of printing it")

	return cmd
}
