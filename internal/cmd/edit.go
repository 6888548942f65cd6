package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/pietz/trigr/internal/launchd"
	"github.com/pietz/trigr/internal/taskfile"
)

// NewEditCommand creates the edit command: open the task file in $EDITOR,
// re-validate on save, and regenerate the descriptor. Invalid edits are
// discarded so the registered task never breaks.
func NewEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <name>",
		Short: "Edit a task in $EDITOR, re-validating and recompiling on save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			name := args[0]

			loaded, err := env.loadTask(name)
			if err != nil {
				return err
			}

			before, err := os.ReadFile(loaded.Path)
			if err != nil {
				return fmt.Errorf("read task file: %w", err)
			}

			editor := os.Getenv("EDITOR")
			if editor == "" {
				editor = "nano"
			}

			tmp, err := os.CreateTemp("", "trigr-edit-*.yaml")
			if err != nil {
				return fmt.Errorf("create temp file: %w", err)
			}
			tmpPath := tmp.Name()
			defer os.Remove(tmpPath)
			if _, err := tmp.Write(before); err != nil {
				tmp.Close()
				return fmt.Errorf("write temp file: %w", err)
			}
			tmp.Close()

			edit := exec.Command(editor, tmpPath)
			edit.Stdin = os.Stdin
			edit.Stdout = os.Stdout
			edit.Stderr = os.Stderr
			if err := edit.Run(); err != nil {
				return fmt.Errorf("run editor: %w", err)
			}

			after, err := os.ReadFile(tmpPath)
			if err != nil {
				return fmt.Errorf("read edited file: %w", err)
			}
			if bytes.Equal(before, after) {
				env.out.Warn("No changes made.")
				return nil
			}

			task, err := taskfile.Parse(after)
			if err != nil {
				env.out.Warn("Changes discarded.")
				return fmt.Errorf("invalid config: %w", err)
			}
			if task.Name != name {
				env.out.Warn("Changes discarded.")
				return fmt.Errorf("task name is immutable: %q cannot become %q", name, task.Name)
			}

			wasLoaded := env.ctl.IsLoaded(name)
			if wasLoaded {
				env.ctl.Unload(name)
			}

			if err := os.WriteFile(loaded.Path, after, 0644); err != nil {
				return fmt.Errorf("write task file: %w", err)
			}
			snap, err := env.loadSnapshot()
			if err != nil {
				return err
			}
			if _, err := launchd.WritePlist(task, snap, env.home.LogsDir); err != nil {
				return err
			}

			if wasLoaded {
				env.ctl.Load(name)
			}
			env.out.Success("Updated task %q", name)
			return nil
		},
	}
}
