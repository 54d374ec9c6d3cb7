package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/CrimsonX77/RedVerse/internal/session"
)

// NewMemberCommand creates the member command group.
func NewMemberCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage the member registry",
	}

	add := &cobra.Command{
		Use:           "add [member-id]",
		Short:         "Enroll a member and mint its permanent thread",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()

			memberID := ""
			if len(args) == 1 {
				memberID = args[0]
			}
			tier, _ := c.Flags().GetInt("tier")
			role := session.RoleStandard
			if isAdmin, _ := c.Flags().GetBool("admin"); isAdmin {
				role = session.RoleAdmin
			}
			m, err := svcs.registry.Enroll(c.Context(), memberID, tier, role)
			if err != nil {
				return WrapExitError(ExitFailure, "enroll member", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: c.OutOrStdout()}
			return out.Success(m)
		},
	}
	add.Flags().Int("tier", 1, "initial access tier")
	add.Flags().Bool("admin", false, "register with the admin role")

	show := &cobra.Command{
		Use:           "show <member-id>",
		Short:         "Show a member's registry row",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()
			m, err := svcs.registry.Lookup(c.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "lookup member", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: c.OutOrStdout()}
			return out.Success(m)
		},
	}

	setTier := &cobra.Command{
		Use:           "set-tier <member-id> <tier>",
		Short:         "Change a member's access tier",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()

			tier, err := strconv.Atoi(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "tier must be an integer", err)
			}
			m, err := svcs.registry.SetTier(c.Context(), args[0], tier)
			if err != nil {
				return WrapExitError(ExitFailure, "set tier", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: c.OutOrStdout()}
			return out.Success(m)
		},
	}

	list := &cobra.Command{
		Use:           "list",
		Short:         "List every registered member",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()
			members, err := svcs.registry.All(c.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "list members", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: c.OutOrStdout()}
			return out.Success(members)
		},
	}

	cmd.AddCommand(add, show, setTier, list)
	return cmd
}
