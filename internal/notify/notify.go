// Package notify delivers desktop notifications through the platform's
// native mechanism, with a log-only fallback for headless machines.
package notify

import (
	"fmt"
	"log"
	"os/exec"
	"time"

	"github.com/theirongolddev/aibudget/internal/alert"
)

const sendTimeout = 5 * time.Second

// Desktop is a notification sink using the platform notifier (osascript
// on macOS, notify-send on Linux).
type Desktop struct{}

// Notify sends a desktop notification. The error propagates so callers
// can retry undelivered alerts.
func (Desktop) Notify(title, message string) error {
	return platformNotify(title, message)
}

// Logger is a sink that only writes to the process log. Used when the
// desktop notifier is unavailable or in daemon foreground mode.
type Logger struct{}

func (Logger) Notify(title, message string) error {
	log.Printf("alert: %s: %s", title, message)
	return nil
}

// Best returns the Desktop sink when the platform notifier binary is on
// PATH, otherwise the Logger sink.
func Best() alert.Sink {
	if _, err := exec.LookPath(notifierBinary); err == nil {
		return Desktop{}
	}
	return Logger{}
}

func runNotifier(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("notify: starting %s: %w", name, err)
	}
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("notify: %s: %w", name, err)
		}
		return nil
	case <-time.After(sendTimeout):
		_ = cmd.Process.Kill()
		return fmt.Errorf("notify: %s timed out", name)
	}
}
