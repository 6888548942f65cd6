package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pietz/trigr/internal/config"
	"github.com/pietz/trigr/internal/launchd"
	"github.com/pietz/trigr/internal/taskfile"
	"github.com/pietz/trigr/internal/tracker"
)

// NewEnableCommand creates the enable command. Enabling is the explicit
// re-enable path for auto-disabled tasks: it clears the failure state and
// reinstalls the descriptor.
func NewEnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Load a task into launchd and clear its failure state",
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

			snap, err := env.loadSnapshot()
			if err != nil {
				return err
			}
			// Regenerate in case the descriptor was removed by auto-disable.
			if _, err := launchd.WritePlist(loaded.Task, snap, env.home.LogsDir); err != nil {
				return err
			}

			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := tracker.New(st).Enable(context.Background(), name); err != nil {
				return err
			}

			if !env.ctl.Load(name) {
				return fmt.Errorf("failed to enable task %q", name)
			}
			env.out.Success("Enabled task %q", name)
			return nil
		},
	}
}

// NewDisableCommand creates the disable command.
func NewDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Unload a task from launchd",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			name := args[0]
			if !env.ctl.Unload(name) {
				return fmt.Errorf("failed to disable task %q", name)
			}
			env.out.Success("Disabled task %q", name)
			return nil
		},
	}
}

// NewRefreshCommand creates the refresh command: re-capture the environment
// and recompile every descriptor. A task whose watch path has vanished
// since registration fails the refresh loudly rather than silently never
// firing again.
func NewRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-capture environment, recompile and reload all descriptors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			snap := config.CaptureEnv()
			if err := snap.Write(env.home.EnvPath); err != nil {
				return err
			}

			tasks, err := taskfile.LoadAll(env.home.TasksDir, func(path string, err error) {
				env.out.Warn("Skipping %s: %v", path, err)
			})
			if err != nil {
				return err
			}

			var failed []string
			count := 0
			for _, task := range tasks {
				wasLoaded := env.ctl.IsLoaded(task.Name)
				env.ctl.Unload(task.Name)
				if _, err := launchd.WritePlist(task, snap, env.home.LogsDir); err != nil {
					env.out.Error("Task %q: %v", task.Name, err)
					failed = append(failed, task.Name)
					continue
				}
				if wasLoaded {
					env.ctl.Load(task.Name)
				}
				count++
			}

			env.out.Success("Refreshed %d tasks", count)
			if len(failed) > 0 {
				return fmt.Errorf("failed to refresh %d task(s): %v", len(failed), failed)
			}
			return nil
		},
	}
}
