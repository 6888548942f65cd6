// Package notify posts macOS user notifications for run outcomes. It
// prefers terminal-notifier (clickable, can open the run report) and falls
// back to osascript's display notification.
package notify

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// commandTimeout bounds the notifier subprocess so a wedged notification
// helper can never stall a run.
const commandTimeout = 10 * time.Second

// Notifier delivers system notifications. The zero value is not usable;
// call New.
type Notifier struct {
	// Group coalesces notifications in Notification Center.
	Group string

	lookPath func(string) (string, error)
	runner   func(name string, args ...string) error
}

// New returns a Notifier using the host's notification tooling.
func New() *Notifier {
	return &Notifier{
		Group:    "trigr",
		lookPath: exec.LookPath,
		runner:   runCommand,
	}
}

func runCommand(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(commandTimeout):
		_ = cmd.Process.Kill()
		return fmt.Errorf("notifier timed out after %s", commandTimeout)
	}
}

// Send displays a notification. openPath, when non-empty, becomes the
// click-to-open target (terminal-notifier only). Delivery failures are
// returned but callers treat them as best-effort.
func (n *Notifier) Send(title, body, openPath string) error {
	if notifier, err := n.lookPath("terminal-notifier"); err == nil {
		args := []string{"-title", title, "-message", body, "-group", n.Group}
		if openPath != "" {
			args = append(args, "-open", "file://"+openPath)
		}
		return n.runner(notifier, args...)
	}

	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		escapeAppleScript(body), escapeAppleScript(title))
	return n.runner("osascript", "-e", script)
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
