package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPurgeCommand creates the purge command.
func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "purge <thread-id>",
		Short: "Delete a thread's entire ledger partition",
		Long: `Remove every event for a thread. This is the only destructive
operation on the ledger and exists for data-erasure requests; it requires
--yes.

Example:
  aurora purge member-2f6b... --yes`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return WrapExitError(ExitCommandError, "refusing to purge without --yes", nil)
			}
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()

			if err := svcs.store.Purge(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitFailure, "purge", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(fmt.Sprintf("purged thread %s", args[0]))
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the deletion")
	return cmd
}
