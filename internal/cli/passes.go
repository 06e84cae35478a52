package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/irx/internal/transforms"
)

// PassesResult lists the registered passes.
type PassesResult struct {
	Passes []string `json:"passes"`
}

// NewPassesCommand creates the passes command.
func NewPassesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "passes",
		Short:         "List registered passes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format: rootOpts.Format,
				Writer: cmd.OutOrStdout(),
			}
			names := transforms.Names()
			if formatter.Format == "json" {
				return formatter.Success(PassesResult{Passes: names})
			}
			for _, name := range names {
				fmt.Fprintln(formatter.Writer, name)
			}
			return nil
		},
	}
}
