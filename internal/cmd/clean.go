package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewCleanCommand creates the clean command: purge old run records (failure
// state is kept) and truncate stale action log files.
func NewCleanCommand() *cobra.Command {
	var olderThanDays int

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Purge old run history and truncate stale log files",
		Args:  cobra.NoArgs,
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

			cutoff := time.Duration(olderThanDays) * 24 * time.Hour
			deleted, err := st.Purge(context.Background(), cutoff)
			if err != nil {
				return err
			}

			truncated := 0
			entries, err := os.ReadDir(env.home.LogsDir)
			if err == nil {
				stale := time.Now().Add(-cutoff)
				for _, entry := range entries {
					if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
						continue
					}
					info, err := entry.Info()
					if err != nil || !info.ModTime().Before(stale) {
						continue
					}
					path := filepath.Join(env.home.LogsDir, entry.Name())
					if err := os.Truncate(path, 0); err == nil {
						truncated++
					}
				}
			}

			env.out.Success("Deleted %d runs, truncated %d log files.", deleted, truncated)
			return nil
		},
	}

	cmd.Flags().IntVar(&olderThanDays, "older-than", 30, "Delete runs older than N days")
	return cmd
}
