//go:build unix && !linux && !darwin

package cli

import "github.com/spf13/cobra"

func addServiceCommands(*cobra.Command, *options) {}
