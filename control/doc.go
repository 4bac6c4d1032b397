// Package control provides functionality for managing a daemon from the
// command line, and for handing it to the operating system's service
// manager.
//
// The Controller maps the commands 'status', 'start', 'stop' and
// 'restart' to a Lifecycle (normally a *winedaemon.Daemon) and formats
// their output.
//
// On Linux, SystemdUnit renders a unit file that runs the daemon in the
// foreground under systemd. On macOS, InstallLaunchd and UninstallLaunchd
// manage a launchd job that does the same.
package control
