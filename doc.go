// Package winedaemon turns a Windows executable run through Wine (or any
// other program) into a well-behaved Unix daemon.
//
// # Usage
//
// Construct a Daemon from a Config and call its lifecycle methods:
//
// 	d, err := winedaemon.New(winedaemon.Config{ExePath: "il2server.exe"},
// 		winedaemon.WithReadiness(winedaemon.WaitForPrefix("1>")))
// 	...
// 	err = d.Start(ctx)
//
// Start detaches a daemon in a new session, spawns the executable through
// the shim (wine by default), records the executable's pid in a pid file
// next to it, and returns once the executable is ready. Status, Stop and
// Restart work from any later invocation of the program, since all of
// the daemon's state lives in the pid file.
//
// # Gotchas
//
// Go programs cannot fork. Start instead runs the current executable
// again, twice, with the same arguments. The re-executed processes
// recognize themselves (see IsDetached) and must reach the same Start
// call. In practice this means main must build the Daemon the same way
// regardless of how it was invoked, and must not consume the
// process's standard input before calling Start.
//
// The 'control' subpackage maps command names (status, start, stop,
// restart) to these methods for use in command line programs.
package winedaemon
