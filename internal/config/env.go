package config

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// capturedKeys are the shell environment variables snapshotted at init time
// so actions run with a consistent environment regardless of what invoked
// the scheduler.
var capturedKeys = []string{"PATH", "HOME", "SHELL", "USER", "LANG"}

// BinaryPathKey stores the resolved trigr binary path inside the snapshot.
// It is stripped before the snapshot is embedded into a descriptor.
const BinaryPathKey = "TRIGR_PATH"

// EnvSnapshot is an immutable point-in-time capture of shell environment
// variables. The trigger compiler embeds it into every descriptor; the run
// supervisor uses it as the base environment for actions.
type EnvSnapshot struct {
	vars map[string]string
}

// NewEnvSnapshot builds a snapshot from an explicit variable map.
func NewEnvSnapshot(vars map[string]string) *EnvSnapshot {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return &EnvSnapshot{vars: copied}
}

// CaptureEnv snapshots the current process environment, keeping only the
// captured keys plus the resolved trigr binary path when it can be found.
func CaptureEnv() *EnvSnapshot {
	vars := make(map[string]string, len(capturedKeys)+1)
	for _, key := range capturedKeys {
		if val := os.Getenv(key); val != "" {
			vars[key] = val
		}
	}
	if path, err := exec.LookPath("trigr"); err == nil {
		vars[BinaryPathKey] = path
	} else if self, err := os.Executable(); err == nil {
		vars[BinaryPathKey] = self
	}
	return &EnvSnapshot{vars: vars}
}

// LoadEnv reads a snapshot previously written by Write. A missing file
// yields an empty snapshot, not an error.
func LoadEnv(path string) (*EnvSnapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &EnvSnapshot{vars: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read env snapshot: %w", err)
	}
	vars := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		key, val, ok := strings.Cut(line, "=")
		if ok && key != "" {
			vars[key] = val
		}
	}
	return &EnvSnapshot{vars: vars}, nil
}

// Write persists the snapshot as KEY=VALUE lines, sorted for stable output.
func (s *EnvSnapshot) Write(path string) error {
	keys := s.Keys()
	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s=%s\n", key, s.vars[key])
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write env snapshot: %w", err)
	}
	return nil
}

// Get returns the value for a key, or "" if absent.
func (s *EnvSnapshot) Get(key string) string { return s.vars[key] }

// Keys returns the snapshot's keys in sorted order.
func (s *EnvSnapshot) Keys() []string {
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Vars returns a copy of the variables with the binary-path key stripped,
// suitable for embedding into a descriptor or an action environment.
func (s *EnvSnapshot) Vars() map[string]string {
	vars := make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		if k == BinaryPathKey {
			continue
		}
		vars[k] = v
	}
	return vars
}

// BinaryPath returns the captured trigr binary path, falling back to the
// current executable, then the bare command name.
func (s *EnvSnapshot) BinaryPath() string {
	if path := s.vars[BinaryPathKey]; path != "" {
		return path
	}
	if self, err := os.Executable(); err == nil {
		return self
	}
	return "trigr"
}
