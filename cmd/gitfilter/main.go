// Package main provides the entry point for the gitfilter CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-gitfilter/gitfilter/cmd/gitfilter/commands"
	"github.com/go-gitfilter/gitfilter/pkg/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "gitfilter",
		Short: "gitfilter streams a git fast-export dump through filter rules into fast-import",
		Long: `gitfilter reads a git fast-export stream, applies path/email/ref filter
rules while keeping every object in its original order, and writes a
git fast-import stream.

Commands:
  run          Run the filter pipeline over a fast-export stream
  rules        Validate a rules document
  mcp-serve    Serve the pipeline as an MCP tool over stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "gitfilter %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
