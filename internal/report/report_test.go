package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pietz/trigr/internal/models"
)

func record(class models.Classification) *models.RunRecord {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return &models.RunRecord{
		TaskName:       "nightly-backup",
		StartedAt:      start,
		FinishedAt:     start.Add(3 * time.Second),
		Classification: class,
		Stdout:         "synced 42 files",
	}
}

func TestWriteProducesMarkdownAndHTML(t *testing.T) {
	dir := t.TempDir()
	htmlPath, err := Write(dir, record(models.ClassSuccess))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nightly-backup.html"), htmlPath)

	md, err := os.ReadFile(filepath.Join(dir, "nightly-backup.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# nightly-backup")
	assert.Contains(t, string(md), "**success**")
	assert.Contains(t, string(md), "synced 42 files")

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<!DOCTYPE html>")
	assert.Contains(t, string(html), "<h1")
	assert.Contains(t, string(html), "synced 42 files")
}

func TestWriteIncludesStderrSection(t *testing.T) {
	rec := record(models.ClassFailure)
	rec.ExitCode = 2
	rec.Stderr = "disk full"

	dir := t.TempDir()
	_, err := Write(dir, rec)
	require.NoError(t, err)

	md, err := os.ReadFile(filepath.Join(dir, "nightly-backup.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "## Errors")
	assert.Contains(t, string(md), "disk full")
	assert.Contains(t, string(md), "Exit code: 2")
}

func TestWriteNoOutput(t *testing.T) {
	rec := record(models.ClassSuccess)
	rec.Stdout = ""

	dir := t.TempDir()
	_, err := Write(dir, rec)
	require.NoError(t, err)

	md, err := os.ReadFile(filepath.Join(dir, "nightly-backup.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "(no output)")
}

func TestWriteOverwritesPreviousReport(t *testing.T) {
	dir := t.TempDir()
	_, err := Write(dir, record(models.ClassSuccess))
	require.NoError(t, err)

	rec := record(models.ClassFailure)
	rec.Stdout = "second run"
	_, err = Write(dir, rec)
	require.NoError(t, err)

	md, err := os.ReadFile(filepath.Join(dir, "nightly-backup.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "second run")
	assert.NotContains(t, string(md), "synced 42 files")
}

func TestWriteCreatesOutputsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "outputs")
	_, err := Write(dir, record(models.ClassSuccess))
	require.NoError(t, err)
	assert.DirExists(t, dir)
}
