package control

import (
	"fmt"
	"os"
	"os/user"
	"path"
	"strings"

	"github.com/stephen-fox/launchctlutil"
)

// LaunchdStatus values.
const (
	LaunchdNotInstalled = "not installed"
	LaunchdStopped      = "stopped"
	LaunchdRunning      = "running"
	LaunchdUnknown      = "unknown"
)

// InstallLaunchd installs a launchd job that runs the daemon in the
// foreground. launchd starts the job when it loads it, which happens
// right away.
func InstallLaunchd(config ServiceConfig) error {
	lconfig, logFilePath, err := launchdConfig(config)
	if err != nil {
		return err
	}

	err = os.MkdirAll(path.Dir(logFilePath), 0700)
	if err != nil {
		return err
	}

	return launchctlutil.Install(lconfig)
}

// UninstallLaunchd stops the launchd job if it is running, and
// removes it.
func UninstallLaunchd(config ServiceConfig) error {
	lconfig, _, err := launchdConfig(config)
	if err != nil {
		return err
	}

	configFilePath, err := lconfig.GetFilePath()
	if err != nil {
		return err
	}

	return launchctlutil.Remove(configFilePath, lconfig.GetKind())
}

// LaunchdStatus returns the state of the launchd job with the given id.
func LaunchdStatus(id string) (string, error) {
	details, err := launchctlutil.CurrentStatus(id)
	if err != nil {
		return "", err
	}

	switch details.Status {
	case launchctlutil.NotInstalled:
		return LaunchdNotInstalled, nil
	case launchctlutil.NotRunning:
		return LaunchdStopped, nil
	case launchctlutil.Running:
		return LaunchdRunning, nil
	}

	return LaunchdUnknown, nil
}

func launchdConfig(config ServiceConfig) (lconfig launchctlutil.Configuration, logFilePath string, err error) {
	err = config.Validate()
	if err != nil {
		return lconfig, "", err
	}

	if strings.Count(config.ID, ".") < 2 {
		return lconfig, "", fmt.Errorf("service id must be in reverse DNS format on macOS (e.g., net.website.MyApp)")
	}

	exePath, args, err := config.command()
	if err != nil {
		return lconfig, "", err
	}

	kind, setRunAs, logPath, err := runSettings(config)
	if err != nil {
		return lconfig, "", err
	}

	var runAs string
	if setRunAs {
		runAs = config.RunAs
	}

	builder := launchctlutil.NewConfigurationBuilder().
		SetKind(kind).
		SetLabel(config.ID).
		SetRunAtLoad(true).
		SetCommand(exePath).
		SetStandardErrorPath(logPath).
		SetUserName(runAs)

	for i := range args {
		builder.AddArgument(args[i])
	}

	lconfig, err = builder.Build()
	if err != nil {
		return lconfig, "", err
	}

	return lconfig, logPath, nil
}

// runSettings returns the launchd job kind, whether the run as username
// should be specified in the launchd config, and the log file path.
func runSettings(config ServiceConfig) (launchctlutil.Kind, bool, string, error) {
	logPathSuffix := fmt.Sprintf("Library/Logs/%s/%s.log", config.ID, config.ID)

	if len(config.RunAs) == 0 {
		return launchctlutil.Daemon, false, path.Join("/", logPathSuffix), nil
	}

	current, err := user.Current()
	if err != nil {
		return launchctlutil.Daemon, false, "",
			fmt.Errorf("failed to get current user - %w", err)
	}

	if config.hasOption(RunOnlyWhenLoggedIn) {
		if config.RunAs == current.Username {
			return launchctlutil.UserAgent, false, path.Join(current.HomeDir, logPathSuffix), nil
		}
		return launchctlutil.Daemon, false, "",
			fmt.Errorf("the '%s' option cannot be used when the current user is not the RunAs user",
				RunOnlyWhenLoggedIn)
	}

	runAs, lookUpErr := user.Lookup(config.RunAs)
	if lookUpErr != nil {
		return launchctlutil.Daemon, true, path.Join("/Users", config.RunAs, logPathSuffix), nil
	}

	return launchctlutil.Daemon, true, path.Join(runAs.HomeDir, logPathSuffix), nil
}
