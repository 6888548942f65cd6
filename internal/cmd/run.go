package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pietz/trigr/internal/logging"
	"github.com/pietz/trigr/internal/notify"
	"github.com/pietz/trigr/internal/runner"
)

// exitCodeError carries an action's exit code to the process exit without
// printing a duplicate error message.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string { return "" }

// ExitCode extracts a run's exit code from an error returned by the run
// command, or -1 when the error is not an exit-code carrier.
func ExitCode(err error) int {
	if e, ok := err.(*exitCodeError); ok {
		return e.code
	}
	return -1
}

// NewRunCommand creates the run command: the entry point launchd invokes
// for every firing. It exits with the action's exit code so launchd's
// failure accounting tracks the underlying action.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Execute a task immediately (the launchd entry point)",
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

			sup := runner.New(env.home, st, env.ctl, notify.New(), logging.Open(env.home.LogsDir))
			rec, err := sup.Execute(cmd.Context(), args[0])
			if err != nil {
				// Infrastructure failure: surface as a nonzero exit.
				return err
			}
			if rec.ExitCode != 0 {
				cmd.SilenceErrors = true
				code := rec.ExitCode
				if code < 0 {
					// Signal-killed actions report -1, which is not a
					// valid process exit status.
					code = 1
				}
				return &exitCodeError{code: code}
			}
			return nil
		},
	}
}
