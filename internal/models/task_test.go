package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func validTask() TaskConfig {
	return TaskConfig{
		Name: "test-task",
		Trigger: TriggerConfig{
			Type:            TriggerInterval,
			IntervalSeconds: 60,
		},
		Action: ActionConfig{Command: "echo hi"},
	}
}

func TestTaskConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TaskConfig)
		wantErr string
	}{
		{
			name:   "valid interval task",
			mutate: func(t *TaskConfig) {},
		},
		{
			name:    "missing name",
			mutate:  func(t *TaskConfig) { t.Name = "" },
			wantErr: "name: required",
		},
		{
			name:    "name with spaces",
			mutate:  func(t *TaskConfig) { t.Name = "bad name" },
			wantErr: "must not contain spaces",
		},
		{
			name: "cron trigger without cron section",
			mutate: func(t *TaskConfig) {
				t.Trigger = TriggerConfig{Type: TriggerCron}
			},
			wantErr: "cron trigger requires a cron section",
		},
		{
			name: "cron minute out of range",
			mutate: func(t *TaskConfig) {
				t.Trigger = TriggerConfig{Type: TriggerCron, Cron: &CronSchedule{Minute: intPtr(75)}}
			},
			wantErr: "minute: must be 0-59",
		},
		{
			name: "cron weekday out of range",
			mutate: func(t *TaskConfig) {
				t.Trigger = TriggerConfig{Type: TriggerCron, Cron: &CronSchedule{Weekday: intPtr(7)}}
			},
			wantErr: "weekday: must be 0-6",
		},
		{
			name: "cron expr combined with fields",
			mutate: func(t *TaskConfig) {
				t.Trigger = TriggerConfig{Type: TriggerCron, Cron: &CronSchedule{Expr: "0 8 * * *", Hour: intPtr(8)}}
			},
			wantErr: "expr cannot be combined",
		},
		{
			name: "interval zero",
			mutate: func(t *TaskConfig) {
				t.Trigger = TriggerConfig{Type: TriggerInterval, IntervalSeconds: 0}
			},
			wantErr: "must be a positive integer, got 0",
		},
		{
			name: "interval negative",
			mutate: func(t *TaskConfig) {
				t.Trigger = TriggerConfig{Type: TriggerInterval, IntervalSeconds: -5}
			},
			wantErr: "must be a positive integer, got -5",
		},
		{
			name: "watch without paths",
			mutate: func(t *TaskConfig) {
				t.Trigger = TriggerConfig{Type: TriggerWatch}
			},
			wantErr: "at least one path",
		},
		{
			name: "unknown trigger type",
			mutate: func(t *TaskConfig) {
				t.Trigger = TriggerConfig{Type: "hourly"}
			},
			wantErr: "unknown trigger type",
		},
		{
			name: "missing trigger type",
			mutate: func(t *TaskConfig) {
				t.Trigger = TriggerConfig{}
			},
			wantErr: "trigger.type: required",
		},
		{
			name: "both command and prompt",
			mutate: func(t *TaskConfig) {
				t.Action = ActionConfig{Command: "echo hi", Prompt: "do stuff"}
			},
			wantErr: "cannot have both command and prompt",
		},
		{
			name: "neither command nor prompt",
			mutate: func(t *TaskConfig) {
				t.Action = ActionConfig{}
			},
			wantErr: "requires either command or prompt",
		},
		{
			name: "provider without prompt",
			mutate: func(t *TaskConfig) {
				t.Action = ActionConfig{Command: "echo hi", Provider: "claude"}
			},
			wantErr: "provider requires prompt",
		},
		{
			name: "model without prompt",
			mutate: func(t *TaskConfig) {
				t.Action = ActionConfig{Command: "echo hi", Model: "gpt-5"}
			},
			wantErr: "model requires prompt",
		},
		{
			name: "unknown provider",
			mutate: func(t *TaskConfig) {
				t.Action = ActionConfig{Prompt: "do stuff", Provider: "openai"}
			},
			wantErr: "unknown provider",
		},
		{
			name: "negative timeout",
			mutate: func(t *TaskConfig) {
				t.Action.Timeout = -1
			},
			wantErr: "timeout: must be non-negative",
		},
		{
			name: "negative max failures",
			mutate: func(t *TaskConfig) {
				t.Notify.MaxConsecutiveFailures = intPtr(-1)
			},
			wantErr: "max_consecutive_failures: must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(&task)
			err := task.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestActionDefaults(t *testing.T) {
	a := ActionConfig{Prompt: "summarize inbox"}
	assert.Equal(t, "claude", a.ProviderName())
	assert.Equal(t, 300, a.TimeoutSeconds())
	assert.True(t, a.IsPrompt())

	a.Provider = "gemini"
	a.Timeout = 60
	assert.Equal(t, "gemini", a.ProviderName())
	assert.Equal(t, 60, a.TimeoutSeconds())
}

func TestNotifyDefaults(t *testing.T) {
	n := NotifyConfig{}
	assert.False(t, n.OnSuccess)
	assert.True(t, n.NotifyOnFailure())
	assert.Equal(t, DefaultMaxConsecutiveFailures, n.FailureLimit())

	n.OnFailure = boolPtr(false)
	n.MaxConsecutiveFailures = intPtr(0)
	assert.False(t, n.NotifyOnFailure())
	assert.Equal(t, 0, n.FailureLimit())
}

func TestTaskEnabledDefault(t *testing.T) {
	task := validTask()
	assert.True(t, task.IsEnabled())

	task.Enabled = boolPtr(false)
	assert.False(t, task.IsEnabled())
}

func TestClassificationCountsAsFailure(t *testing.T) {
	assert.False(t, ClassSuccess.CountsAsFailure())
	assert.True(t, ClassFailure.CountsAsFailure())
	assert.True(t, ClassTimeout.CountsAsFailure())
	assert.False(t, ClassSkipped.CountsAsFailure())
}

func TestActionLabel(t *testing.T) {
	task := validTask()
	assert.Equal(t, "script", task.ActionLabel())

	task.Action = ActionConfig{Prompt: "do stuff"}
	assert.Equal(t, "claude", task.ActionLabel())

	task.Action.Provider = "codex"
	assert.Equal(t, "codex", task.ActionLabel())
}
