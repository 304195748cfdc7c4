package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/go-gitfilter/gitfilter/internal/rules"
)

// NewRulesCommand builds the `gitfilter rules` subcommand tree.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rules documents",
	}

	cmd.AddCommand(newRulesValidateCommand())

	return cmd
}

func newRulesValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a rules document against the rules schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0]) //nolint:gosec // operator-specified rules path
			if err != nil {
				return fmt.Errorf("read rules document: %w", err)
			}

			if _, err := rules.Parse(raw); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			fmt.Fprintf(os.Stdout, "%s %s is valid\n", color.GreenString("ok"), args[0])

			return nil
		},
	}
}
