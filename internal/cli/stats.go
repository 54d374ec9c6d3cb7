package cli

import (
	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var tier int

	cmd := &cobra.Command{
		Use:   "stats <thread-id>",
		Short: "Show ledger statistics for a thread",
		Long: `Show event count, file size, and first/last event times for one
thread, resolved at the given tier.

Example:
  aurora stats member-2f6b... --tier 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()

			st, err := svcs.engine.Stats(cmd.Context(), args[0], tier)
			if err != nil {
				return WrapExitError(ExitFailure, "stats", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(st)
		},
	}

	cmd.Flags().IntVar(&tier, "tier", 1, "access tier to resolve the policy at")
	return cmd
}
