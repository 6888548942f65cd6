package main

import (
	"fmt"
	"os"

	"github.com/pietz/trigr/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand()
	rootCmd.SilenceErrors = true

	if err := rootCmd.Execute(); err != nil {
		if code := cmd.ExitCode(err); code > 0 {
			os.Exit(code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
