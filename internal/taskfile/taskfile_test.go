package taskfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pietz/trigr/internal/models"
)

func sampleTask(name string) *models.TaskConfig {
	hour, minute := 9, 30
	return &models.TaskConfig{
		Name: name,
		Trigger: models.TriggerConfig{
			Type: models.TriggerCron,
			Cron: &models.CronSchedule{Hour: &hour, Minute: &minute},
		},
		Action: models.ActionConfig{
			Command: "echo hi",
			Env:     map[string]string{"LANG": "C"},
		},
		Notify: models.NotifyConfig{OnSuccess: true, Title: "Morning"},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "morning.yaml")
	require.NoError(t, Save(path, sampleTask("morning")))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "morning", got.Name)
	assert.Equal(t, models.TriggerCron, got.Trigger.Type)
	require.NotNil(t, got.Trigger.Cron.Hour)
	assert.Equal(t, 9, *got.Trigger.Cron.Hour)
	assert.Equal(t, "echo hi", got.Action.Command)
	assert.Equal(t, "C", got.Action.Env["LANG"])
	assert.True(t, got.Notify.OnSuccess)
	assert.Equal(t, "Morning", got.Notify.Title)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "task: [unclosed"},
		{"missing trigger", "name: x\naction:\n  command: echo hi\n"},
		{"missing action", "name: x\ntrigger:\n  type: interval\n  interval_seconds: 60\n"},
		{"unknown trigger type", "name: x\ntrigger:\n  type: hourly\naction:\n  command: echo hi\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadAllSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(filepath.Join(dir, "zeta.yaml"), sampleTask("zeta")))
	require.NoError(t, Save(filepath.Join(dir, "alpha.yaml"), sampleTask("alpha")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0755))

	tasks, err := LoadAll(dir, nil)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "alpha", tasks[0].Name)
	assert.Equal(t, "zeta", tasks[1].Name)
}

func TestLoadAllSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(filepath.Join(dir, "good.yaml"), sampleTask("good")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("{{{"), 0644))

	var warned []string
	tasks, err := LoadAll(dir, func(path string, err error) {
		warned = append(warned, filepath.Base(path))
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "good", tasks[0].Name)
	assert.Equal(t, []string{"bad.yaml"}, warned)
}

func TestLoadAllMissingDir(t *testing.T) {
	tasks, err := LoadAll(filepath.Join(t.TempDir(), "absent"), nil)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
