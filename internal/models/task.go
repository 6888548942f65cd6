// Package models defines the task configuration model shared by the trigger
// compiler, the run supervisor, and the CLI.
package models

import (
	"fmt"
	"sort"
	"strings"
)

// TriggerType identifies which trigger variant a task uses.
type TriggerType string

const (
	// TriggerCron fires at calendar times (launchd StartCalendarInterval).
	TriggerCron TriggerType = "cron"
	// TriggerInterval fires every N seconds (launchd StartInterval).
	TriggerInterval TriggerType = "interval"
	// TriggerWatch fires when a watched path changes (launchd WatchPaths).
	TriggerWatch TriggerType = "watch"
)

// ValidationError reports a malformed task configuration. It is surfaced at
// add/validate/refresh time, never during a run.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// invalid is shorthand for constructing a *ValidationError.
func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CronSchedule holds calendar constraints. A nil field means "every value",
// matching launchd's semantics for an absent StartCalendarInterval key.
// Present fields combine conjunctively.
type CronSchedule struct {
	Minute  *int `yaml:"minute,omitempty"`
	Hour    *int `yaml:"hour,omitempty"`
	Day     *int `yaml:"day,omitempty"`     // day of month
	Weekday *int `yaml:"weekday,omitempty"` // 0=Sunday
	Month   *int `yaml:"month,omitempty"`

	// Expr is an optional five-field cron expression ("0,30 8 * * 1-5").
	// Mutually exclusive with the discrete fields above.
	Expr string `yaml:"expr,omitempty"`
}

// IsZero reports whether no constraint or expression is set.
func (c *CronSchedule) IsZero() bool {
	return c.Minute == nil && c.Hour == nil && c.Day == nil &&
		c.Weekday == nil && c.Month == nil && c.Expr == ""
}

func (c *CronSchedule) validate() error {
	hasFields := c.Minute != nil || c.Hour != nil || c.Day != nil ||
		c.Weekday != nil || c.Month != nil
	if c.Expr != "" && hasFields {
		return invalid("trigger.cron", "expr cannot be combined with discrete fields")
	}
	checks := []struct {
		name     string
		val      *int
		min, max int
	}{
		{"minute", c.Minute, 0, 59},
		{"hour", c.Hour, 0, 23},
		{"day", c.Day, 1, 31},
		{"weekday", c.Weekday, 0, 6},
		{"month", c.Month, 1, 12},
	}
	for _, ck := range checks {
		if ck.val != nil && (*ck.val < ck.min || *ck.val > ck.max) {
			return invalid("trigger.cron."+ck.name, "must be %d-%d, got %d", ck.min, ck.max, *ck.val)
		}
	}
	return nil
}

// TriggerConfig is a tagged union: Type selects the variant and exactly the
// matching payload field must be populated.
type TriggerConfig struct {
	Type            TriggerType   `yaml:"type"`
	Cron            *CronSchedule `yaml:"cron,omitempty"`
	IntervalSeconds int           `yaml:"interval_seconds,omitempty"`
	WatchPaths      []string      `yaml:"watch_paths,omitempty"`
}

func (t *TriggerConfig) validate() error {
	switch t.Type {
	case TriggerCron:
		if t.Cron == nil {
			return invalid("trigger", "cron trigger requires a cron section")
		}
		return t.Cron.validate()
	case TriggerInterval:
		if t.IntervalSeconds <= 0 {
			return invalid("trigger.interval_seconds", "must be a positive integer, got %d", t.IntervalSeconds)
		}
	case TriggerWatch:
		if len(t.WatchPaths) == 0 {
			return invalid("trigger.watch_paths", "watch trigger requires at least one path")
		}
	case "":
		return invalid("trigger.type", "required (cron, interval, or watch)")
	default:
		return invalid("trigger.type", "unknown trigger type %q", t.Type)
	}
	return nil
}

// Provider describes how a prompt action invokes an LLM CLI.
type Provider struct {
	Binary     string
	PromptArgs []string // args preceding the prompt text
	ModelFlag  string
}

// Providers maps provider names to their CLI invocation shapes.
var Providers = map[string]Provider{
	"claude": {Binary: "claude", PromptArgs: []string{"-p"}, ModelFlag: "--model"},
	"codex":  {Binary: "codex", PromptArgs: []string{"exec", "--skip-git-repo-check"}, ModelFlag: "-m"},
	"gemini": {Binary: "gemini", PromptArgs: []string{"-p"}, ModelFlag: "-m"},
}

// DefaultProvider is used when a prompt action does not name one.
const DefaultProvider = "claude"

// DefaultTimeoutSeconds bounds an action that does not set its own timeout.
const DefaultTimeoutSeconds = 300

// ActionConfig describes what a run executes: exactly one of Command or
// Prompt must be set.
type ActionConfig struct {
	Command    string            `yaml:"command,omitempty"`
	Prompt     string            `yaml:"prompt,omitempty"`
	Provider   string            `yaml:"provider,omitempty"`
	Model      string            `yaml:"model,omitempty"`
	WorkingDir string            `yaml:"working_dir,omitempty"`
	Timeout    int               `yaml:"timeout,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`
}

// TimeoutSeconds returns the configured timeout, falling back to the default.
func (a *ActionConfig) TimeoutSeconds() int {
	if a.Timeout > 0 {
		return a.Timeout
	}
	return DefaultTimeoutSeconds
}

// IsPrompt reports whether the action invokes an LLM provider.
func (a *ActionConfig) IsPrompt() bool { return a.Prompt != "" }

// ProviderName returns the effective provider for a prompt action.
func (a *ActionConfig) ProviderName() string {
	if a.Provider != "" {
		return a.Provider
	}
	return DefaultProvider
}

func (a *ActionConfig) validate() error {
	if a.Command != "" && a.Prompt != "" {
		return invalid("action", "cannot have both command and prompt")
	}
	if a.Command == "" && a.Prompt == "" {
		return invalid("action", "requires either command or prompt")
	}
	if a.Provider != "" && a.Prompt == "" {
		return invalid("action.provider", "provider requires prompt")
	}
	if a.Model != "" && a.Prompt == "" {
		return invalid("action.model", "model requires prompt")
	}
	if a.Provider != "" {
		if _, ok := Providers[a.Provider]; !ok {
			return invalid("action.provider", "unknown provider %q (must be one of %s)", a.Provider, providerNames())
		}
	}
	if a.Timeout < 0 {
		return invalid("action.timeout", "must be non-negative, got %d", a.Timeout)
	}
	return nil
}

func providerNames() string {
	names := make([]string, 0, len(Providers))
	for name := range Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// DefaultMaxConsecutiveFailures auto-disables a task after this many
// non-success runs in a row unless the task overrides it. 0 turns the
// policy off.
const DefaultMaxConsecutiveFailures = 5

// NotifyConfig controls when a run posts a system notification and when the
// consecutive-failure policy disables the task.
type NotifyConfig struct {
	OnSuccess              bool   `yaml:"on_success"`
	OnFailure              *bool  `yaml:"on_failure,omitempty"`
	Title                  string `yaml:"title,omitempty"`
	MaxConsecutiveFailures *int   `yaml:"max_consecutive_failures,omitempty"`
}

// NotifyOnFailure reports whether failures should notify (default true).
func (n *NotifyConfig) NotifyOnFailure() bool {
	return n.OnFailure == nil || *n.OnFailure
}

// FailureLimit returns the effective max_consecutive_failures value.
func (n *NotifyConfig) FailureLimit() int {
	if n.MaxConsecutiveFailures != nil {
		return *n.MaxConsecutiveFailures
	}
	return DefaultMaxConsecutiveFailures
}

func (n *NotifyConfig) validate() error {
	if n.MaxConsecutiveFailures != nil && *n.MaxConsecutiveFailures < 0 {
		return invalid("notify.max_consecutive_failures", "must be non-negative, got %d", *n.MaxConsecutiveFailures)
	}
	return nil
}

// TaskConfig is one scheduled task: a unique name, a trigger, an action, and
// a notification policy. Name is immutable once registered.
type TaskConfig struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Trigger     TriggerConfig `yaml:"trigger"`
	Action      ActionConfig  `yaml:"action"`
	Notify      NotifyConfig  `yaml:"notify,omitempty"`
	Enabled     *bool         `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the task should be installed into the scheduler
// (default true).
func (t *TaskConfig) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// Validate checks the whole task configuration and returns a
// *ValidationError describing the first problem found.
func (t *TaskConfig) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return invalid("name", "required")
	}
	if strings.ContainsAny(t.Name, "/\\ ") {
		return invalid("name", "must not contain spaces or path separators: %q", t.Name)
	}
	if err := t.Trigger.validate(); err != nil {
		return err
	}
	if err := t.Action.validate(); err != nil {
		return err
	}
	return t.Notify.validate()
}

// ActionLabel is the short action description shown in list output.
func (t *TaskConfig) ActionLabel() string {
	if t.Action.IsPrompt() {
		return t.Action.ProviderName()
	}
	return "script"
}
