// Package taskfile loads and saves task configurations as YAML files under
// the trigr tasks directory. One file per task, named after the task.
package taskfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pietz/trigr/internal/models"
)

// Loaded pairs a parsed task with the file it came from.
type Loaded struct {
	Task *models.TaskConfig
	Path string
}

// Parse decodes and validates a task configuration from YAML bytes.
func Parse(data []byte) (*models.TaskConfig, error) {
	var task models.TaskConfig
	if err := yaml.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return &task, nil
}

// Load reads and validates a task configuration from a file.
func Load(path string) (*models.TaskConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	return Parse(data)
}

// Save writes a task configuration to the given path as YAML.
func Save(path string, task *models.TaskConfig) error {
	data, err := yaml.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task %s: %w", task.Name, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	return nil
}

// LoadAll loads every valid task file in dir, sorted by task name. Files
// that fail to parse or validate are reported through warn and skipped so
// one broken file does not hide the rest.
func LoadAll(dir string, warn func(path string, err error)) ([]*models.TaskConfig, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tasks directory: %w", err)
	}

	var tasks []*models.TaskConfig
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		task, err := Load(path)
		if err != nil {
			if warn != nil {
				warn(path, err)
			}
			continue
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	return tasks, nil
}
