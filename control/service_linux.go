package control

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/unit"
)

// SystemdUnit renders a systemd service unit that runs the daemon in the
// foreground. The unit uses Type=notify, so systemd considers the
// service started once the executable is ready.
func SystemdUnit(config ServiceConfig) ([]byte, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	exePath, args, err := config.command()
	if err != nil {
		return nil, err
	}

	userUnit, err := isUserUnit(config)
	if err != nil {
		return nil, err
	}

	description := config.Description
	if len(description) == 0 {
		description = config.ID
	}

	unitOptions := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", description),
		unit.NewUnitOption("Unit", "After", "network.target"),
		unit.NewUnitOption("Service", "Type", "notify"),
		unit.NewUnitOption("Service", "ExecStart", execStart(exePath, args)),
		unit.NewUnitOption("Service", "Restart", "on-failure"),
	}

	if len(config.RunAs) > 0 && !userUnit {
		unitOptions = append(unitOptions, unit.NewUnitOption("Service", "User", config.RunAs))
	}

	wantedBy := "multi-user.target"
	if userUnit {
		wantedBy = "default.target"
	}
	unitOptions = append(unitOptions, unit.NewUnitOption("Install", "WantedBy", wantedBy))

	contents, err := io.ReadAll(unit.Serialize(unitOptions))
	if err != nil {
		return nil, fmt.Errorf("failed to read from unit reader - %w", err)
	}

	return contents, nil
}

// SystemdUnitPath returns where the unit file for config belongs: the
// system unit directory, or the current user's unit directory when
// RunOnlyWhenLoggedIn is set.
func SystemdUnitPath(config ServiceConfig) (string, error) {
	userUnit, err := isUserUnit(config)
	if err != nil {
		return "", err
	}

	if !userUnit {
		return fmt.Sprintf("/etc/systemd/system/%s.service", config.ID), nil
	}

	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user - %w", err)
	}

	return filepath.Join(current.HomeDir, ".config", "systemd", "user", config.ID+".service"), nil
}

// InstallSystemdUnit writes the unit file for config and returns its
// path. Enabling and starting the unit is left to systemctl.
func InstallSystemdUnit(config ServiceConfig) (string, error) {
	contents, err := SystemdUnit(config)
	if err != nil {
		return "", err
	}

	unitPath, err := SystemdUnitPath(config)
	if err != nil {
		return "", err
	}

	err = os.MkdirAll(filepath.Dir(unitPath), 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create unit directory - %w", err)
	}

	err = os.WriteFile(unitPath, contents, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to write systemd unit file - %w", err)
	}

	return unitPath, nil
}

func isUserUnit(config ServiceConfig) (bool, error) {
	if !config.hasOption(RunOnlyWhenLoggedIn) {
		return false, nil
	}

	current, err := user.Current()
	if err != nil {
		return false, fmt.Errorf("failed to get current user - %w", err)
	}

	if config.RunAs != current.Username {
		return false, fmt.Errorf("the '%s' option cannot be used when the current user is not the RunAs user",
			RunOnlyWhenLoggedIn)
	}

	return true, nil
}

// execStart joins a command line, quoting words that systemd would
// otherwise split.
func execStart(exePath string, args []string) string {
	words := append([]string{exePath}, args...)
	for i, word := range words {
		if strings.ContainsAny(word, " \t\"'\\") {
			words[i] = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(word) + `"`
		}
	}

	return strings.Join(words, " ")
}
