package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CrimsonX77/RedVerse/internal/policy"
)

// NewPolicyCommand creates the policy command group.
func NewPolicyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and validate the tier policy table",
	}

	show := &cobra.Command{
		Use:           "show",
		Short:         "Print the effective tier ladder",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()
			out := &OutputFormatter{Format: rootOpts.Format, Writer: c.OutOrStdout()}
			return out.Success(svcs.tiers.All())
		},
	}

	validate := &cobra.Command{
		Use:           "validate <override-file>",
		Short:         "Validate a CUE tier-policy override file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: c.OutOrStdout()}
			if _, err := policy.LoadOverrides(args[0]); err != nil {
				_ = out.Error(err.Error())
				return WrapExitError(ExitFailure, "invalid policy override", err)
			}
			return out.Success(fmt.Sprintf("%s is a valid tier policy override", args[0]))
		},
	}

	cmd.AddCommand(show, validate)
	return cmd
}
