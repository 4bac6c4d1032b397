//go:build !linux

package winedaemon

import "log/slog"

func notifyReady(*slog.Logger) {}
