package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pietz/trigr/internal/launchd"
	"github.com/pietz/trigr/internal/models"
	"github.com/pietz/trigr/internal/runlock"
	"github.com/pietz/trigr/internal/taskfile"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tasks with status and last run info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			tasks, err := taskfile.LoadAll(env.home.TasksDir, func(path string, err error) {
				env.out.Warn("Skipping %s: %v", path, err)
			})
			if err != nil {
				return err
			}

			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := context.Background()

			if asJSON {
				type lastRun struct {
					Classification string    `json:"classification"`
					ExitCode       int       `json:"exit_code"`
					FinishedAt     time.Time `json:"finished_at"`
				}
				type entry struct {
					Name        string   `json:"name"`
					Description string   `json:"description,omitempty"`
					Trigger     string   `json:"trigger"`
					Action      string   `json:"action"`
					Enabled     bool     `json:"enabled"`
					Loaded      bool     `json:"loaded"`
					Disabled    bool     `json:"auto_disabled"`
					LastRun     *lastRun `json:"last_run"`
				}
				out := make([]entry, 0, len(tasks))
				for _, task := range tasks {
					e := entry{
						Name:        task.Name,
						Description: task.Description,
						Trigger:     string(task.Trigger.Type),
						Action:      task.ActionLabel(),
						Enabled:     task.IsEnabled(),
						Loaded:      env.ctl.IsLoaded(task.Name),
					}
					if state, err := st.FailureState(ctx, task.Name); err == nil {
						e.Disabled = state.Disabled
					}
					if rec, err := st.LastOutput(ctx, task.Name); err == nil {
						e.LastRun = &lastRun{
							Classification: string(rec.Classification),
							ExitCode:       rec.ExitCode,
							FinishedAt:     rec.FinishedAt,
						}
					}
					out = append(out, e)
				}
				return printJSON(out)
			}

			if len(tasks) == 0 {
				env.out.Warn("No tasks registered.")
				return nil
			}

			rows := [][]string{{"NAME", "TRIGGER", "ACTION", "STATUS", "LAST RUN"}}
			for _, task := range tasks {
				status := env.out.Yellow("unloaded")
				if env.ctl.IsLoaded(task.Name) {
					status = env.out.Green("loaded")
				}
				if state, err := st.FailureState(ctx, task.Name); err == nil && state.Disabled {
					status = env.out.Red("auto-disabled")
				}

				last := "never"
				if rec, err := st.LastOutput(ctx, task.Name); err == nil {
					label := string(rec.Classification)
					if rec.Classification == models.ClassSuccess {
						label = env.out.Green(label)
					} else if rec.Classification.CountsAsFailure() {
						label = env.out.Red(label)
					}
					last = fmt.Sprintf("%s @ %s", label, rec.FinishedAt.Local().Format("2006-01-02 15:04:05"))
				}

				rows = append(rows, []string{
					env.out.Cyan(task.Name),
					string(task.Trigger.Type),
					task.ActionLabel(),
					status,
					last,
				})
			}
			env.out.Table(rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show full task configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			loaded, err := env.loadTask(args[0])
			if err != nil {
				return err
			}
			task := loaded.Task

			if asJSON {
				return printJSON(map[string]any{
					"name":        task.Name,
					"description": task.Description,
					"trigger":     task.Trigger,
					"action":      task.Action,
					"notify":      task.Notify,
					"enabled":     task.IsEnabled(),
				})
			}

			plistPath, err := launchd.PlistPath(task.Name)
			if err != nil {
				return err
			}

			env.out.Info("%s", env.out.Cyan(task.Name))
			if task.Description != "" {
				env.out.Info("  %s", task.Description)
			}
			env.out.Info("  Trigger: %s", task.Trigger.Type)
			env.out.Info("  Action:  %s", task.ActionLabel())
			env.out.Info("  Timeout: %ds", task.Action.TimeoutSeconds())
			env.out.Info("  Loaded:  %t", env.ctl.IsLoaded(task.Name))
			env.out.Info("  Plist:   %s", plistPath)
			env.out.Info("  Task:    %s", loaded.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// NewStatusCommand creates the status command, which probes run-lock files
// to report tasks with a run currently in flight.
func NewStatusCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show currently-running tasks by probing lock files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			type running struct {
				Name         string    `json:"name"`
				RunningSince time.Time `json:"running_since"`
			}
			var inFlight []running

			entries, err := os.ReadDir(env.home.LocksDir)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("read locks directory: %w", err)
			}
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lock") {
					continue
				}
				path := filepath.Join(env.home.LocksDir, entry.Name())
				held, err := runlock.Held(path)
				if err != nil || !held {
					continue
				}
				info, err := entry.Info()
				if err != nil {
					continue
				}
				inFlight = append(inFlight, running{
					Name:         strings.TrimSuffix(entry.Name(), ".lock"),
					RunningSince: info.ModTime(),
				})
			}

			if asJSON {
				if inFlight == nil {
					inFlight = []running{}
				}
				return printJSON(inFlight)
			}

			if len(inFlight) == 0 {
				env.out.Dim("No tasks currently running.")
				return nil
			}
			rows := [][]string{{"TASK", "RUNNING SINCE"}}
			for _, r := range inFlight {
				rows = append(rows, []string{
					env.out.Cyan(r.Name),
					r.RunningSince.Local().Format("2006-01-02 15:04:05"),
				})
			}
			env.out.Table(rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
