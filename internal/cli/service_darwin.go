package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stephen-fox/winedaemon/control"
)

func addServiceCommands(root *cobra.Command, opts *options) {
	root.AddCommand(newInstallCommand(opts), newUninstallCommand(opts))
}

func newInstallCommand(opts *options) *cobra.Command {
	svc := &serviceOptions{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install a launchd job that runs the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := serviceConfig(cmd, opts, svc)
			if err != nil {
				return err
			}

			err = control.InstallLaunchd(config)
			if err != nil {
				return fmt.Errorf("failed to install launchd job - %w", err)
			}

			status, err := control.LaunchdStatus(config.ID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s (%s)\n", config.ID, status)
			return nil
		},
	}

	svc.register(cmd.Flags(), "launchd label in reverse DNS format (e.g., com.example.il2server)")
	cmd.MarkFlagRequired("id")

	return cmd
}

func newUninstallCommand(opts *options) *cobra.Command {
	svc := &serviceOptions{}

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the launchd job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := serviceConfig(cmd, opts, svc)
			if err != nil {
				return err
			}

			err = control.UninstallLaunchd(config)
			if err != nil {
				return fmt.Errorf("failed to uninstall launchd job - %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled %s\n", config.ID)
			return nil
		},
	}

	svc.register(cmd.Flags(), "launchd label in reverse DNS format (e.g., com.example.il2server)")
	cmd.MarkFlagRequired("id")

	return cmd
}
