package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pietz/trigr/internal/taskfile"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a task file without registering it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			task, err := taskfile.Load(args[0])
			if err != nil {
				return fmt.Errorf("invalid: %w", err)
			}
			env.out.Success("Valid: task %q", task.Name)
			return nil
		},
	}
}
