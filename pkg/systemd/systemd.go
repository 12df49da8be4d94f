// Package systemd reports service state to systemd when running as a
// Type=notify unit. Every call is a no-op outside systemd.
package systemd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// notify is swapped in tests.
var notify = daemon.SdNotify

var watchdogInterval = daemon.SdWatchdogEnabled

// Ready tells systemd startup finished. ok is false when no notify socket
// is configured.
func Ready() (bool, error) { return notify(false, daemon.SdNotifyReady) }

func Stopping() (bool, error) { return notify(false, daemon.SdNotifyStopping) }

func Reloading() (bool, error) { return notify(false, daemon.SdNotifyReloading) }

// Status sets the free-form status line shown by systemctl status.
func Status(msg string) (bool, error) { return notify(false, "STATUS="+msg) }

// Watchdog pings the systemd watchdog at half the configured interval
// until ctx ends. It returns immediately when the watchdog is disabled.
func Watchdog(ctx context.Context) error {
	interval, err := watchdogInterval(false)
	if err != nil || interval <= 0 {
		return err
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := notify(false, daemon.SdNotifyWatchdog); err != nil {
				return err
			}
		}
	}
}
