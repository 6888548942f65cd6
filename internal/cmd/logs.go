package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pietz/trigr/internal/models"
	"github.com/pietz/trigr/internal/store"
)

// runJSON is the JSON shape for run records in logs/output.
type runJSON struct {
	ID             string    `json:"id"`
	TaskName       string    `json:"task_name"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Classification string    `json:"classification"`
	ExitCode       int       `json:"exit_code"`
	DurationMS     int64     `json:"duration_ms"`
	Stdout         string    `json:"stdout,omitempty"`
	Stderr         string    `json:"stderr,omitempty"`
}

func toRunJSON(rec *models.RunRecord, includeOutput bool) runJSON {
	r := runJSON{
		ID:             rec.ID,
		TaskName:       rec.TaskName,
		StartedAt:      rec.StartedAt,
		FinishedAt:     rec.FinishedAt,
		Classification: string(rec.Classification),
		ExitCode:       rec.ExitCode,
		DurationMS:     rec.Duration().Milliseconds(),
	}
	if includeOutput {
		r.Stdout = rec.Stdout
		r.Stderr = rec.Stderr
	}
	return r
}

// NewLogsCommand creates the logs command.
func NewLogsCommand() *cobra.Command {
	var (
		limit  int
		offset int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "logs [name]",
		Short: "Show run history (all tasks when no name is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.Query(context.Background(), name, limit, offset)
			if err != nil {
				return err
			}

			if asJSON {
				out := make([]runJSON, 0, len(records))
				for _, rec := range records {
					out = append(out, toRunJSON(rec, false))
				}
				return printJSON(out)
			}

			if len(records) == 0 {
				env.out.Warn("No runs recorded.")
				return nil
			}

			rows := [][]string{{"TASK", "STARTED", "DURATION", "RESULT"}}
			for _, rec := range records {
				result := string(rec.Classification)
				switch {
				case rec.Classification == models.ClassSuccess:
					result = env.out.Green(result)
				case rec.Classification.CountsAsFailure():
					result = env.out.Red(fmt.Sprintf("%s (exit %d)", result, rec.ExitCode))
				}
				rows = append(rows, []string{
					env.out.Cyan(rec.TaskName),
					rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
					rec.Duration().Round(100 * time.Millisecond).String(),
					result,
				})
			}
			env.out.Table(rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip the newest N entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// NewOutputCommand creates the output command.
func NewOutputCommand() *cobra.Command {
	var (
		asJSON     bool
		showStderr bool
	)

	cmd := &cobra.Command{
		Use:   "output <name>",
		Short: "Show the last run's output for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}

			st, err := env.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.LastOutput(context.Background(), args[0])
			if errors.Is(err, store.ErrNoRuns) {
				return fmt.Errorf("no runs recorded for %q", args[0])
			}
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(toRunJSON(rec, true))
			}

			text := rec.Stdout
			if showStderr {
				text = rec.Stderr
			}
			if text == "" {
				env.out.Dim("(empty)")
				return nil
			}
			fmt.Print(text)
			if text[len(text)-1] != '\n' {
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&showStderr, "stderr", false, "Show stderr instead of stdout")
	return cmd
}
