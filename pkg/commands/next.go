package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewNextCommand creates the next command.
func NewNextCommand(log logrus.FieldLogger, global *GlobalOptions) *cobra.Command {
	var (
		pre     string
		withTag bool
	)

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print the next version without releasing",
		Long: `Print the version the next release would get. Nothing is printed when no
release is needed. Useful in scripts:

  VERSION=$(autorel next)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, global, nil)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("pre") {
				cfg.PrereleaseChannel = pre
			}

			cfg.DryRun = true

			orch, err := newOrchestrator(log, global, cfg)
			if err != nil {
				return err
			}

			plan, err := orch.Plan(cmd.Context())
			if err != nil {
				return err
			}

			if plan.NoRelease {
				return nil
			}

			out := plan.NextVersion()
			if withTag {
				out = plan.NextTag
			}

			fmt.Fprintln(cmd.OutOrStdout(), out)

			return nil
		},
	}

	cmd.Flags().StringVarP(&pre, "pre", "p", "", "Prerelease channel (overrides the branch configuration)")
	cmd.Flags().BoolVar(&withTag, "tag", false, "Print the tag (with \"v\" prefix) instead of the version")

	return cmd
}
