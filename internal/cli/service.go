//go:build unix

package cli

import (
	"fmt"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stephen-fox/winedaemon/control"
)

type serviceOptions struct {
	id          string
	description string
	runAs       string
	userService bool
}

func (o *serviceOptions) register(flags *pflag.FlagSet, idHelp string) {
	flags.StringVar(&o.id, "id", "", idHelp)
	flags.StringVar(&o.description, "description", "", "service description")
	flags.StringVar(&o.runAs, "run-as", "", "user the service runs as (default: root)")
	flags.BoolVar(&o.userService, "user", false, "install for the current user, running only while they are logged in")
}

// serviceConfig describes a service that runs this program with the
// same daemon settings as the current invocation.
func serviceConfig(cmd *cobra.Command, opts *options, svc *serviceOptions) (control.ServiceConfig, error) {
	daemon, _, err := newDaemon(cmd, opts)
	if err != nil {
		return control.ServiceConfig{}, err
	}

	exePath := daemon.Config().ExePath

	args := []string{"--exe", exePath}
	if len(opts.configFile) > 0 {
		configFile, err := filepath.Abs(opts.configFile)
		if err != nil {
			return control.ServiceConfig{}, fmt.Errorf("failed to resolve config file path - %w", err)
		}
		args = append(args, "--config", configFile)
	}

	cmd.InheritedFlags().Visit(func(flag *pflag.Flag) {
		switch flag.Name {
		case "exe", "config":
			return
		}
		args = append(args, "--"+flag.Name, flag.Value.String())
	})

	config := control.ServiceConfig{
		ID:          svc.id,
		Description: svc.description,
		Arguments:   args,
		RunAs:       svc.runAs,
	}

	if len(config.ID) == 0 {
		base := filepath.Base(exePath)
		config.ID = strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "-")
	}

	if len(config.Description) == 0 {
		config.Description = fmt.Sprintf("%s (Wine)", filepath.Base(exePath))
	}

	if svc.userService {
		current, err := user.Current()
		if err != nil {
			return control.ServiceConfig{}, fmt.Errorf("failed to get current user - %w", err)
		}

		config.RunAs = current.Username
		config.SystemSpecificOptions = map[control.SystemSpecificOption]interface{}{
			control.RunOnlyWhenLoggedIn: "",
		}
	}

	return config, nil
}
