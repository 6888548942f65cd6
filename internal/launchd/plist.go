// Package launchd compiles task triggers into launchd agent property lists
// and drives launchctl to install and remove them. Compilation is pure:
// the same task, environment snapshot, and paths always produce the same
// descriptor bytes, so re-installing an unchanged task causes no scheduler
// churn.
package launchd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"

	"github.com/pietz/trigr/internal/config"
	"github.com/pietz/trigr/internal/models"
)

// LabelPrefix namespaces trigr agents inside launchd.
const LabelPrefix = "com.trigr"

// Label returns the launchd label for a task name.
func Label(name string) string {
	return fmt.Sprintf("%s.%s", LabelPrefix, name)
}

// AgentDir returns the LaunchAgents directory for the current user.
func AgentDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "Library", "LaunchAgents"), nil
}

// PlistPath returns the descriptor file path for a task name.
func PlistPath(name string) (string, error) {
	dir, err := AgentDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, Label(name)+".plist"), nil
}

// CalendarInterval is one launchd StartCalendarInterval entry. Absent fields
// match every value; present fields combine conjunctively.
type CalendarInterval struct {
	Minute  *int `plist:"Minute,omitempty"`
	Hour    *int `plist:"Hour,omitempty"`
	Day     *int `plist:"Day,omitempty"`
	Weekday *int `plist:"Weekday,omitempty"`
	Month   *int `plist:"Month,omitempty"`
}

// calendarValue marshals as a single dict for one entry and as an array of
// dicts for several, matching the two shapes launchd accepts.
type calendarValue struct {
	entries []CalendarInterval
}

// MarshalPlist implements plist.Marshaler.
func (c calendarValue) MarshalPlist() (interface{}, error) {
	if len(c.entries) == 1 {
		return c.entries[0], nil
	}
	return c.entries, nil
}

// agentPlist is the launchd agent descriptor written for each task.
type agentPlist struct {
	Label                 string            `plist:"Label"`
	ProgramArguments      []string          `plist:"ProgramArguments"`
	EnvironmentVariables  map[string]string `plist:"EnvironmentVariables,omitempty"`
	StandardOutPath       string            `plist:"StandardOutPath"`
	StandardErrorPath     string            `plist:"StandardErrorPath"`
	RunAtLoad             bool              `plist:"RunAtLoad"`
	StartCalendarInterval *calendarValue    `plist:"StartCalendarInterval,omitempty"`
	StartInterval         int               `plist:"StartInterval,omitempty"`
	WatchPaths            []string          `plist:"WatchPaths,omitempty"`
}

// Compile translates a validated task into launchd descriptor bytes.
//
// The descriptor invokes the trigr binary from the environment snapshot with
// "run <name>", embeds the snapshot's variables, and routes the agent's own
// stdout/stderr into per-task log files under logsDir. Trigger translation
// follows launchd semantics: cron fields map to StartCalendarInterval,
// interval seconds to StartInterval, watch paths to WatchPaths. Watch paths
// must exist at compile time.
func Compile(task *models.TaskConfig, env *config.EnvSnapshot, logsDir string) ([]byte, error) {
	p := agentPlist{
		Label:                Label(task.Name),
		ProgramArguments:     []string{env.BinaryPath(), "run", task.Name},
		EnvironmentVariables: env.Vars(),
		StandardOutPath:      filepath.Join(logsDir, task.Name+".out.log"),
		StandardErrorPath:    filepath.Join(logsDir, task.Name+".err.log"),
		RunAtLoad:            false,
	}

	switch task.Trigger.Type {
	case models.TriggerCron:
		entries, err := calendarIntervals(task.Trigger.Cron)
		if err != nil {
			return nil, err
		}
		p.StartCalendarInterval = &calendarValue{entries: entries}

	case models.TriggerInterval:
		if task.Trigger.IntervalSeconds <= 0 {
			return nil, &models.ValidationError{
				Field:  "trigger.interval_seconds",
				Reason: fmt.Sprintf("must be a positive integer, got %d", task.Trigger.IntervalSeconds),
			}
		}
		p.StartInterval = task.Trigger.IntervalSeconds

	case models.TriggerWatch:
		paths, err := resolveWatchPaths(task.Trigger.WatchPaths)
		if err != nil {
			return nil, err
		}
		p.WatchPaths = paths

	default:
		return nil, &models.ValidationError{
			Field:  "trigger.type",
			Reason: fmt.Sprintf("unknown trigger type %q", task.Trigger.Type),
		}
	}

	data, err := plist.MarshalIndent(p, plist.XMLFormat, "\t")
	if err != nil {
		return nil, fmt.Errorf("marshal plist for %s: %w", task.Name, err)
	}
	return data, nil
}

// resolveWatchPaths expands and absolutizes watch paths, rejecting any that
// do not exist: a watch on a missing path would silently never fire.
func resolveWatchPaths(paths []string) ([]string, error) {
	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		expanded, err := expandPath(p)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(expanded); err != nil {
			return nil, &models.ValidationError{
				Field:  "trigger.watch_paths",
				Reason: fmt.Sprintf("path does not exist: %s", expanded),
			}
		}
		resolved = append(resolved, expanded)
	}
	return resolved, nil
}

// expandPath resolves a leading ~ and makes the path absolute.
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

// WritePlist compiles the task and writes its descriptor into the
// LaunchAgents directory, returning the descriptor path.
func WritePlist(task *models.TaskConfig, env *config.EnvSnapshot, logsDir string) (string, error) {
	data, err := Compile(task, env, logsDir)
	if err != nil {
		return "", err
	}
	path, err := PlistPath(task.Name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create agent directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write plist: %w", err)
	}
	return path, nil
}

// RemovePlist deletes the task's descriptor file if present.
func RemovePlist(name string) error {
	path, err := PlistPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove plist: %w", err)
	}
	return nil
}
