package winedaemon

import (
	"log/slog"

	"github.com/coreos/go-systemd/daemon"
)

// notifyReady tells systemd that the service is ready when running as a
// Type=notify unit. It does nothing when NOTIFY_SOCKET is unset.
func notifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, "READY=1")
	if err != nil {
		logger.Warn("failed to notify service manager", "error", err.Error())
		return
	}

	if sent {
		logger.Debug("notified service manager")
	}
}
