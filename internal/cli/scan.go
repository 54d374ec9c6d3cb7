package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/CrimsonX77/RedVerse/internal/session"
)

// adminCapability resolves the --as member and re-verifies its admin role
// against the registry.
func adminCapability(ctx context.Context, svcs *services, asMember string) (session.AdminContext, error) {
	sc, err := svcs.resolver.Resolve(ctx, session.Claims{MemberID: asMember})
	if err != nil {
		return session.AdminContext{}, WrapExitError(ExitFailure, "resolve admin member", err)
	}
	ac, err := svcs.resolver.ReverifyAdmin(ctx, sc)
	if err != nil {
		return session.AdminContext{}, WrapExitError(ExitFailure, "admin capability", err)
	}
	return ac, nil
}

// NewScanCommand creates the scan command group for oversight reads.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	var asMember string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Admin oversight reads over the full archive",
		Long: `Read-only oversight queries. Every subcommand requires --as
naming a member whose registered role is admin; the role is re-checked
against the registry on each run.`,
	}
	cmd.PersistentFlags().StringVar(&asMember, "as", "", "admin member id (required)")
	_ = cmd.MarkPersistentFlagRequired("as")

	newOut := func(c *cobra.Command) *OutputFormatter {
		return &OutputFormatter{Format: rootOpts.Format, Writer: c.OutOrStdout()}
	}

	timeline := &cobra.Command{
		Use:           "timeline <member-id>",
		Short:         "Full ledger timeline for a member, newest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()
			ac, err := adminCapability(c.Context(), svcs, asMember)
			if err != nil {
				return err
			}
			limit, _ := c.Flags().GetInt("limit")
			events, err := svcs.admin.Timeline(c.Context(), ac, args[0], limit)
			if err != nil {
				return WrapExitError(ExitFailure, "timeline", err)
			}
			return newOut(c).Success(events)
		},
	}
	timeline.Flags().Int("limit", 0, "max events (0 = all)")

	summary := &cobra.Command{
		Use:           "summary",
		Short:         "Ledger statistics for every member",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()
			ac, err := adminCapability(c.Context(), svcs, asMember)
			if err != nil {
				return err
			}
			summaries, err := svcs.admin.AllMembersSummary(c.Context(), ac)
			if err != nil {
				return WrapExitError(ExitFailure, "summary", err)
			}
			return newOut(c).Success(summaries)
		},
	}

	search := &cobra.Command{
		Use:           "search <query>",
		Short:         "Search event content across all members",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()
			ac, err := adminCapability(c.Context(), svcs, asMember)
			if err != nil {
				return err
			}
			matches, err := svcs.admin.SearchContent(c.Context(), ac, args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "search", err)
			}
			return newOut(c).Success(matches)
		},
	}

	heatmap := &cobra.Command{
		Use:           "heatmap",
		Short:         "System-wide emotion distribution",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()
			ac, err := adminCapability(c.Context(), svcs, asMember)
			if err != nil {
				return err
			}
			days, _ := c.Flags().GetInt("days")
			hm, err := svcs.admin.EmotionHeatmap(c.Context(), ac, days)
			if err != nil {
				return WrapExitError(ExitFailure, "heatmap", err)
			}
			return newOut(c).Success(hm)
		},
	}
	heatmap.Flags().Int("days", 30, "day window to analyze")

	patterns := &cobra.Command{
		Use:           "patterns",
		Short:         "Flag members whose usage warrants review",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()
			ac, err := adminCapability(c.Context(), svcs, asMember)
			if err != nil {
				return err
			}
			flags, err := svcs.admin.SuspiciousPatterns(c.Context(), ac)
			if err != nil {
				return WrapExitError(ExitFailure, "patterns", err)
			}
			return newOut(c).Success(flags)
		},
	}

	observe := &cobra.Command{
		Use:           "observe <member-id> <note>",
		Short:         "Append an admin observation to a member's ledger",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, args []string) error {
			svcs, err := buildServices(rootOpts)
			if err != nil {
				return err
			}
			defer svcs.Close()
			ac, err := adminCapability(c.Context(), svcs, asMember)
			if err != nil {
				return err
			}
			ev, err := svcs.admin.AddObservation(c.Context(), ac, args[0], args[1])
			if err != nil {
				return WrapExitError(ExitFailure, "observe", err)
			}
			return newOut(c).Success(ev)
		},
	}

	cmd.AddCommand(timeline, summary, search, heatmap, patterns, observe)
	return cmd
}
