package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/pietz/trigr/internal/config"
	"github.com/pietz/trigr/internal/models"
)

// captureCeiling bounds in-memory stdout/stderr capture per stream.
const captureCeiling = 32 * 1024

// killGrace is how long a timed-out process gets between SIGTERM and
// SIGKILL.
const killGrace = 10 * time.Second

// spawnResult is the raw outcome of one action process.
type spawnResult struct {
	exitCode int
	stdout   string
	stderr   string
	timedOut bool
}

// spawn builds and runs the task's action process. A returned error means
// the process could not be started; once the process runs, failures are
// reported through spawnResult.
func (s *Supervisor) spawn(ctx context.Context, task *models.TaskConfig, env *config.EnvSnapshot, timeout time.Duration) (*spawnResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd, err := buildCommand(runCtx, &task.Action, env)
	if err != nil {
		return nil, err
	}

	stdout := newBoundedBuffer(captureCeiling)
	stderr := newBoundedBuffer(captureCeiling)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// Escalating termination: SIGTERM at the deadline, SIGKILL if the
	// process has not exited after the grace period.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	runErr := cmd.Run()

	res := &spawnResult{
		stdout: stdout.String(),
		stderr: stderr.String(),
	}
	if runCtx.Err() == context.DeadlineExceeded {
		res.timedOut = true
		return res, nil
	}
	if runErr == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.exitCode = exitErr.ExitCode()
		return res, nil
	}
	// Start failures (binary missing, bad working dir) are reported to the
	// caller for classification as failures with diagnostic stderr.
	return nil, runErr
}

// buildCommand assembles the exec.Cmd for a command or prompt action, with
// the captured environment merged under the task's env overrides.
func buildCommand(ctx context.Context, action *models.ActionConfig, env *config.EnvSnapshot) (*exec.Cmd, error) {
	var cmd *exec.Cmd
	if action.IsPrompt() {
		provider, ok := models.Providers[action.ProviderName()]
		if !ok {
			return nil, fmt.Errorf("unknown provider %q", action.ProviderName())
		}
		if _, err := exec.LookPath(provider.Binary); err != nil {
			return nil, fmt.Errorf("provider %s unavailable: %s not found in PATH", action.ProviderName(), provider.Binary)
		}
		args := append([]string{}, provider.PromptArgs...)
		args = append(args, action.Prompt)
		if action.Model != "" {
			args = append(args, provider.ModelFlag, action.Model)
		}
		cmd = exec.CommandContext(ctx, provider.Binary, args...)
	} else {
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", action.Command)
	}

	if action.WorkingDir != "" {
		dir, err := expandPath(action.WorkingDir)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("working directory %s: %w", dir, err)
		}
		cmd.Dir = dir
	}

	cmd.Env = mergeEnv(env, action.Env)
	return cmd, nil
}

// mergeEnv produces KEY=VALUE pairs from the captured snapshot with
// per-task entries overriding, sorted for reproducible spawns.
func mergeEnv(env *config.EnvSnapshot, overrides map[string]string) []string {
	merged := env.Vars()
	for k, v := range overrides {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+merged[k])
	}
	return pairs
}

func expandPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", p, err)
	}
	return abs, nil
}

// boundedBuffer captures up to max bytes and then drops the rest, recording
// that truncation happened so the stored output carries a marker instead of
// growing without bound.
type boundedBuffer struct {
	buf       []byte
	max       int
	truncated bool
}

func newBoundedBuffer(max int) *boundedBuffer {
	return &boundedBuffer{max: max}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if remaining := b.max - len(b.buf); remaining > 0 {
		if len(p) <= remaining {
			b.buf = append(b.buf, p...)
		} else {
			b.buf = append(b.buf, p[:remaining]...)
			b.truncated = true
		}
	} else if len(p) > 0 {
		b.truncated = true
	}
	// Report full consumption so the child never sees a write error.
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	if b.truncated {
		return string(b.buf) + "\n... [output truncated]"
	}
	return string(b.buf)
}
