// Package cmd wires the trigr CLI. Every subcommand maps onto one or more
// core operations: compilation into launchd descriptors, the run
// supervisor, and the history store.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pietz/trigr/internal/config"
	"github.com/pietz/trigr/internal/display"
	"github.com/pietz/trigr/internal/launchd"
	"github.com/pietz/trigr/internal/store"
	"github.com/pietz/trigr/internal/taskfile"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewRootCommand creates the root cobra command for trigr.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigr",
		Short: "Compile task specs into launchd schedules",
		Long: `trigr turns declarative task files into launchd agents and supervises
each run launchd triggers: per-task locking, timeouts, run history, and
consecutive-failure auto-disable.

Tasks live as YAML files under ~/.config/trigr/tasks (override with
TRIGR_HOME). launchd does the actual scheduling; trigr never runs its own
timer loop.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewAddCommand())
	cmd.AddCommand(NewCreateCommand())
	cmd.AddCommand(NewRemoveCommand())
	cmd.AddCommand(NewEnableCommand())
	cmd.AddCommand(NewDisableCommand())
	cmd.AddCommand(NewListCommand())
	cmd.AddCommand(NewShowCommand())
	cmd.AddCommand(NewStatusCommand())
	cmd.AddCommand(NewLogsCommand())
	cmd.AddCommand(NewOutputCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewEditCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewRefreshCommand())
	cmd.AddCommand(NewCleanCommand())

	return cmd
}

// cliEnv bundles the resolved home, terminal printer, and launchctl
// controller every command needs.
type cliEnv struct {
	home *config.Home
	out  *display.Printer
	ctl  *launchd.Controller
}

// setup resolves the trigr home, auto-initializing it on first use.
func setup() (*cliEnv, error) {
	home, err := config.ResolveHome()
	if err != nil {
		return nil, err
	}
	if err := home.EnsureInit(); err != nil {
		return nil, err
	}
	return &cliEnv{
		home: home,
		out:  display.NewPrinter(os.Stdout),
		ctl:  launchd.NewController(),
	}, nil
}

// openStore opens the history database under the resolved home.
func (e *cliEnv) openStore() (*store.Store, error) {
	return store.Open(e.home.DBPath)
}

// loadTask loads a registered task by name.
func (e *cliEnv) loadTask(name string) (*taskfile.Loaded, error) {
	path := e.home.TaskPath(name)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("task %q not found", name)
	}
	task, err := taskfile.Load(path)
	if err != nil {
		return nil, err
	}
	return &taskfile.Loaded{Task: task, Path: path}, nil
}

// loadSnapshot reads the captured environment.
func (e *cliEnv) loadSnapshot() (*config.EnvSnapshot, error) {
	return config.LoadEnv(e.home.EnvPath)
}
