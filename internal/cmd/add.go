package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pietz/trigr/internal/config"
	"github.com/pietz/trigr/internal/launchd"
	"github.com/pietz/trigr/internal/taskfile"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize trigr: create directories, capture environment, init database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			// Re-capture the environment even when already initialized.
			snap := config.CaptureEnv()
			if err := snap.Write(env.home.EnvPath); err != nil {
				return err
			}
			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			env.out.Success("Initialized trigr at %s", env.home.Root)
			return nil
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Register a task from a YAML file, compile its descriptor, and load it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			task, err := taskfile.Load(args[0])
			if err != nil {
				return err
			}

			dest := env.home.TaskPath(task.Name)
			if _, err := os.Stat(dest); err == nil {
				return fmt.Errorf("task %q already exists, use 'trigr remove' first", task.Name)
			}
			if err := taskfile.Save(dest, task); err != nil {
				return err
			}

			snap, err := env.loadSnapshot()
			if err != nil {
				return err
			}
			plistPath, err := launchd.WritePlist(task, snap, env.home.LogsDir)
			if err != nil {
				// Roll the task file back so a failed add leaves nothing behind.
				os.Remove(dest)
				return err
			}

			if task.IsEnabled() {
				env.ctl.Load(task.Name)
				env.out.Success("Added and loaded task %q", task.Name)
			} else {
				env.out.Warn("Added task %q (disabled)", task.Name)
			}
			env.out.Info("  Task:  %s", dest)
			env.out.Info("  Plist: %s", plistPath)
			return nil
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Unload and remove a task (descriptor, task file, and failure state)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			name := args[0]

			path := env.home.TaskPath(name)
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("task %q not found", name)
			}

			env.ctl.Unload(name)
			if err := launchd.RemovePlist(name); err != nil {
				return err
			}
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove task file: %w", err)
			}

			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.DeleteFailureState(context.Background(), name); err != nil {
				return err
			}

			env.out.Success("Removed task %q", name)
			return nil
		},
	}
}
