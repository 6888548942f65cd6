package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pietz/trigr/internal/launchd"
	"github.com/pietz/trigr/internal/models"
	"github.com/pietz/trigr/internal/taskfile"
)

// NewCreateCommand creates the create command, which builds a task from
// flags without a pre-written task file.
func NewCreateCommand() *cobra.Command {
	var (
		trigger         string
		minute          int
		hour            int
		day             int
		weekday         int
		month           int
		cronExpr        string
		intervalSeconds int
		watchPaths      []string

		command    string
		prompt     string
		provider   string
		model      string
		workingDir string
		timeout    int

		notifySuccess bool
		notifyFailure bool
		notifyTitle   string
		maxFailures   int

		description string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a task inline from flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			name := args[0]

			task := &models.TaskConfig{
				Name:        name,
				Description: description,
				Trigger: models.TriggerConfig{
					Type:            models.TriggerType(trigger),
					IntervalSeconds: intervalSeconds,
					WatchPaths:      watchPaths,
				},
				Action: models.ActionConfig{
					Command:    command,
					Prompt:     prompt,
					Provider:   provider,
					Model:      model,
					WorkingDir: workingDir,
					Timeout:    timeout,
				},
				Notify: models.NotifyConfig{
					OnSuccess: notifySuccess,
					OnFailure: &notifyFailure,
					Title:     notifyTitle,
				},
			}
			if maxFailures != models.DefaultMaxConsecutiveFailures {
				task.Notify.MaxConsecutiveFailures = &maxFailures
			}
			if task.Trigger.Type == models.TriggerCron {
				sched := &models.CronSchedule{Expr: cronExpr}
				for _, f := range []struct {
					flag string
					dst  **int
					val  int
				}{
					{"minute", &sched.Minute, minute},
					{"hour", &sched.Hour, hour},
					{"day", &sched.Day, day},
					{"weekday", &sched.Weekday, weekday},
					{"month", &sched.Month, month},
				} {
					if cmd.Flags().Changed(f.flag) {
						v := f.val
						*f.dst = &v
					}
				}
				task.Trigger.Cron = sched
			}

			if err := task.Validate(); err != nil {
				return err
			}

			dest := env.home.TaskPath(name)
			if _, err := os.Stat(dest); err == nil {
				return fmt.Errorf("task %q already exists, use 'trigr remove' first", name)
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
				os.Remove(dest)
				return err
			}

			env.ctl.Load(name)
			env.out.Success("Created and loaded task %q", name)
			env.out.Info("  Task:  %s", dest)
			env.out.Info("  Plist: %s", plistPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&trigger, "trigger", "", "Trigger type: cron, interval, or watch")
	cmd.Flags().IntVar(&minute, "minute", 0, "Cron minute (0-59)")
	cmd.Flags().IntVar(&hour, "hour", 0, "Cron hour (0-23)")
	cmd.Flags().IntVar(&day, "day", 0, "Cron day of month (1-31)")
	cmd.Flags().IntVar(&weekday, "weekday", 0, "Cron weekday (0=Sunday)")
	cmd.Flags().IntVar(&month, "month", 0, "Cron month (1-12)")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Five-field cron expression (alternative to discrete fields)")
	cmd.Flags().IntVar(&intervalSeconds, "interval-seconds", 0, "Interval in seconds")
	cmd.Flags().StringSliceVar(&watchPaths, "watch-path", nil, "Path to watch (repeatable)")
	cmd.Flags().StringVar(&command, "command", "", "Shell command to run")
	cmd.Flags().StringVar(&prompt, "prompt", "", "LLM prompt to run")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider: claude, codex, or gemini")
	cmd.Flags().StringVar(&model, "model", "", "Override the provider's default model")
	cmd.Flags().StringVar(&workingDir, "working-dir", "", "Working directory for the action")
	cmd.Flags().IntVar(&timeout, "timeout", models.DefaultTimeoutSeconds, "Timeout in seconds")
	cmd.Flags().BoolVar(&notifySuccess, "notify-on-success", false, "Notify on success")
	cmd.Flags().BoolVar(&notifyFailure, "notify-on-failure", true, "Notify on failure")
	cmd.Flags().StringVar(&notifyTitle, "notify-title", "", "Custom notification title")
	cmd.Flags().IntVar(&maxFailures, "max-failures", models.DefaultMaxConsecutiveFailures,
		"Auto-disable after N consecutive failures (0=never)")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	_ = cmd.MarkFlagRequired("trigger")

	return cmd
}
