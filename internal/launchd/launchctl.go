package launchd

import (
	"os/exec"
)

// Controller drives launchctl to install and remove task descriptors from
// the scheduler's active set. The binary path is configurable so tests can
// substitute a stub.
type Controller struct {
	// LaunchctlPath is the launchctl binary. Defaults to "launchctl".
	LaunchctlPath string
}

// NewController returns a Controller using the system launchctl.
func NewController() *Controller {
	return &Controller{LaunchctlPath: "launchctl"}
}

func (c *Controller) binary() string {
	if c.LaunchctlPath != "" {
		return c.LaunchctlPath
	}
	return "launchctl"
}

// Load installs a task's descriptor into launchd. Returns false when the
// descriptor file is missing or launchctl refuses it.
func (c *Controller) Load(name string) bool {
	path, err := PlistPath(name)
	if err != nil {
		return false
	}
	return exec.Command(c.binary(), "load", path).Run() == nil
}

// Unload removes a task's descriptor from launchd's active set. Returns
// false when the descriptor file is missing or launchctl refuses.
func (c *Controller) Unload(name string) bool {
	path, err := PlistPath(name)
	if err != nil {
		return false
	}
	return exec.Command(c.binary(), "unload", path).Run() == nil
}

// IsLoaded reports whether the task's label is currently known to launchd.
func (c *Controller) IsLoaded(name string) bool {
	return exec.Command(c.binary(), "list", Label(name)).Run() == nil
}
