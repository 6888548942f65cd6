// Package config resolves the trigr home directory and the captured
// environment snapshot embedded into every scheduler descriptor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Home is the resolved trigr directory layout. All state lives under Root
// except the launchd agent plists, which the launchd package places in
// ~/Library/LaunchAgents.
type Home struct {
	Root       string
	TasksDir   string
	LogsDir    string
	LocksDir   string
	OutputsDir string
	DBPath     string
	EnvPath    string
}

// ResolveHome returns the trigr home directory layout.
// Priority order:
//  1. TRIGR_HOME environment variable (if set)
//  2. ~/.config/trigr
//
// The directories are not created; call EnsureInit for that.
func ResolveHome() (*Home, error) {
	root := os.Getenv("TRIGR_HOME")
	if root == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		root = filepath.Join(userHome, ".config", "trigr")
	}
	return &Home{
		Root:       root,
		TasksDir:   filepath.Join(root, "tasks"),
		LogsDir:    filepath.Join(root, "logs"),
		LocksDir:   filepath.Join(root, "locks"),
		OutputsDir: filepath.Join(root, "outputs"),
		DBPath:     filepath.Join(root, "history.db"),
		EnvPath:    filepath.Join(root, "env"),
	}, nil
}

// EnsureInit creates the directory layout if it is missing and captures the
// environment snapshot when none exists yet. Safe to call from every command.
func (h *Home) EnsureInit() error {
	for _, dir := range []string{h.Root, h.TasksDir, h.LogsDir, h.LocksDir, h.OutputsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	if _, err := os.Stat(h.EnvPath); os.IsNotExist(err) {
		snap := CaptureEnv()
		if err := snap.Write(h.EnvPath); err != nil {
			return err
		}
	}
	return nil
}

// TaskPath returns the task file path for a task name.
func (h *Home) TaskPath(name string) string {
	return filepath.Join(h.TasksDir, name+".yaml")
}

// LockPath returns the run-lock file path for a task name.
func (h *Home) LockPath(name string) string {
	return filepath.Join(h.LocksDir, name+".lock")
}
