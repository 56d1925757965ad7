// Package main provides the entry point for the gitsong CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gitsong/cmd/gitsong/commands"
	"github.com/Sumatoshi-tech/gitsong/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gitsong",
		Short: "Gitsong - commit-history metrics and sonification",
		Long: `Gitsong walks a repository's commit history, measures its language
composition at every commit and encodes the evolution as audio frames.

Commands:
  analyze   Walk a repository and persist the analysis session
  plot      Render a persisted session as an HTML chart`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewPlotCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "gitsong %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
