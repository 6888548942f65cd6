package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHomeOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv("TRIGR_HOME", root)

	home, err := ResolveHome()
	require.NoError(t, err)
	assert.Equal(t, root, home.Root)
	assert.Equal(t, filepath.Join(root, "tasks"), home.TasksDir)
	assert.Equal(t, filepath.Join(root, "history.db"), home.DBPath)
	assert.Equal(t, filepath.Join(root, "tasks", "backup.yaml"), home.TaskPath("backup"))
	assert.Equal(t, filepath.Join(root, "locks", "backup.lock"), home.LockPath("backup"))
}

func TestResolveHomeDefault(t *testing.T) {
	t.Setenv("TRIGR_HOME", "")
	userHome, err := os.UserHomeDir()
	require.NoError(t, err)

	home, err := ResolveHome()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(userHome, ".config", "trigr"), home.Root)
}

func TestEnsureInitCreatesLayoutAndSnapshot(t *testing.T) {
	t.Setenv("TRIGR_HOME", t.TempDir())
	home, err := ResolveHome()
	require.NoError(t, err)

	require.NoError(t, home.EnsureInit())
	for _, dir := range []string{home.TasksDir, home.LogsDir, home.LocksDir, home.OutputsDir} {
		assert.DirExists(t, dir)
	}
	assert.FileExists(t, home.EnvPath)

	// Idempotent: a second init must not rewrite the snapshot.
	before, err := os.ReadFile(home.EnvPath)
	require.NoError(t, err)
	require.NoError(t, home.EnsureInit())
	after, err := os.ReadFile(home.EnvPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEnvSnapshotWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env")
	snap := NewEnvSnapshot(map[string]string{
		"PATH":  "/usr/bin:/bin",
		"SHELL": "/bin/zsh",
		"LANG":  "en_US.UTF-8",
	})
	require.NoError(t, snap.Write(path))

	loaded, err := LoadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin:/bin", loaded.Get("PATH"))
	assert.Equal(t, "/bin/zsh", loaded.Get("SHELL"))
	assert.Equal(t, []string{"LANG", "PATH", "SHELL"}, loaded.Keys())
}

func TestEnvSnapshotWriteSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env")
	snap := NewEnvSnapshot(map[string]string{"ZED": "1", "ALPHA": "2"})
	require.NoError(t, snap.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ALPHA=2\nZED=1\n", string(data))
}

func TestLoadEnvMissingFile(t *testing.T) {
	snap, err := LoadEnv(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, snap.Keys())
}

func TestLoadEnvValuesWithEquals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env")
	require.NoError(t, os.WriteFile(path, []byte("LANG=a=b=c\n\n=skipped\n"), 0644))

	snap, err := LoadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "a=b=c", snap.Get("LANG"))
	assert.Equal(t, []string{"LANG"}, snap.Keys())
}

func TestVarsStripsBinaryPath(t *testing.T) {
	snap := NewEnvSnapshot(map[string]string{
		"PATH":        "/bin",
		BinaryPathKey: "/usr/local/bin/trigr",
	})

	vars := snap.Vars()
	assert.Equal(t, "/bin", vars["PATH"])
	assert.NotContains(t, vars, BinaryPathKey)
	assert.Equal(t, "/usr/local/bin/trigr", snap.BinaryPath())
}

func TestCaptureEnvKeepsOnlyKnownKeys(t *testing.T) {
	t.Setenv("PATH", "/custom/bin")
	t.Setenv("TRIGR_SECRET", "nope")

	snap := CaptureEnv()
	assert.Equal(t, "/custom/bin", snap.Get("PATH"))
	assert.Empty(t, snap.Get("TRIGR_SECRET"))
	assert.NotEmpty(t, snap.BinaryPath())
}
