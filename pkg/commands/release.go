package commands

import (
	"context"
	"fmt"

	"github.com/ethpandaops/autorel/pkg/config"
	"github.com/ethpandaops/autorel/pkg/exec"
	"github.com/ethpandaops/autorel/pkg/git"
	"github.com/ethpandaops/autorel/pkg/npm"
	"github.com/ethpandaops/autorel/pkg/orchestrator"
	"github.com/ethpandaops/autorel/pkg/release"
	"github.com/ethpandaops/autorel/pkg/ui"
	"github.com/ethpandaops/autorel/pkg/version"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewReleaseCommand creates the release command.
func NewReleaseCommand(log logrus.FieldLogger, global *GlobalOptions) *cobra.Command {
	flags := &releaseFlags{}

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Tag, release and publish the next version",
		Long: `Analyse conventional commits since the last release, compute the next
semantic version and release it.

The release runs these steps, undoing completed ones if a later step fails:
  1. Create and push the git tag
  2. Create a GitHub release with the generated changelog (unless --skip-release)
  3. Update package.json and publish to npm (with --publish)
  4. Run the --run script with NEXT_VERSION and NEXT_TAG set

Examples:
  autorel release --dry-run
  autorel release --pre beta
  autorel release --use-version 2.0.0 --skip-release
  autorel release --publish --run 'echo "released $NEXT_TAG"'

Note: GitHub releases require the GitHub CLI (gh) and a token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, global, flags)
			if err != nil {
				return err
			}

			return runRelease(cmd.Context(), log, global, cfg)
		},
	}

	flags.bind(cmd)

	return cmd
}

func newOrchestrator(log logrus.FieldLogger, global *GlobalOptions, cfg *config.Config) (*orchestrator.Orchestrator, error) {
	repo, err := git.Open(log, global.Dir)
	if err != nil {
		return nil, err
	}

	deps := orchestrator.Dependencies{
		Repo:     repo,
		Releases: release.NewHost(log, cfg.GitHubToken),
		Scripts:  exec.NewScriptRunner(log, exec.WithDir(global.Dir)),
	}

	if cfg.Publish {
		deps.Registry = npm.NewRegistry(log, global.Dir, global.Verbose)
	}

	return orchestrator.NewOrchestrator(log, orchestrator.OptionsFromConfig(cfg), deps), nil
}

func runRelease(ctx context.Context, log logrus.FieldLogger, global *GlobalOptions, cfg *config.Config) error {
	ui.PrintBanner(version.GetVersion())

	orch, err := newOrchestrator(log, global, cfg)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		ui.Warning("Running in dry-run mode. No changes will be made.")
	}

	plan, err := planRelease(ctx, orch)
	if err != nil {
		return err
	}

	printPlan(plan)

	if plan.NoRelease {
		ui.Success("No release is needed. Have a nice day (^_^)/")

		return nil
	}

	if cfg.DryRun {
		ui.Section("Changelog")
		fmt.Fprintln(ui.Output, plan.Changelog)

		return nil
	}

	ui.Section(fmt.Sprintf("Releasing %s", plan.NextTag))

	report, err := orch.Execute(ctx, plan)
	printReport(report)

	if err != nil {
		ui.Error(fmt.Sprintf("Release failed: %v", err))

		return err
	}

	ui.Success(fmt.Sprintf("Released %s", plan.NextTag))

	return nil
}

func planRelease(ctx context.Context, orch *orchestrator.Orchestrator) (*orchestrator.Plan, error) {
	var plan *orchestrator.Plan

	err := ui.WithSpinner("Analysing commits", func() error {
		p, err := orch.Plan(ctx)
		plan = p

		return err
	})

	return plan, err
}

func printPlan(plan *orchestrator.Plan) {
	ui.Blank()

	if plan.Channel != "" {
		ui.Info(fmt.Sprintf("Using prerelease channel: %s", pterm.Bold.Sprint(plan.Channel)))
	} else {
		ui.Info("This is a production release.")
	}

	from := plan.FromTag
	if from == "" {
		from = "(beginning of history)"
	}

	ui.Detail("Since", from)
	ui.Detail("Commits", fmt.Sprintf("%d (%d conventional)", plan.CommitCount, len(plan.Commits)))
	ui.Detail("Release type", ui.ReleaseType(plan.ReleaseType))

	if plan.NextTag != "" {
		ui.Detail("Next version", pterm.Bold.Sprint(plan.NextTag))
	}

	ui.Blank()
}

func printReport(report *orchestrator.Report) {
	entries := report.Entries()
	if len(entries) == 0 {
		return
	}

	rows := make([][]string, 0, len(entries))

	for _, e := range entries {
		rows = append(rows, []string{e.Step, e.Detail, statusLabel(e.Status), e.Error})
	}

	ui.Blank()
	ui.Table([]string{"Step", "Detail", "Status", "Error"}, rows)
	fmt.Fprintln(ui.Output, ui.MutedStyle.Sprint(report.FormatSummaryLine()))

	if report.RollbackFailed() > 0 {
		ui.Warning("Some rollbacks failed. Clean up the steps marked rollback_failed manually.")
	}
}

func statusLabel(status string) string {
	switch status {
	case orchestrator.StatusDone:
		return ui.SuccessStyle.Sprint(status)
	case orchestrator.StatusRolledBack:
		return ui.WarningStyle.Sprint(status)
	default:
		return ui.ErrorStyle.Sprint(status)
	}
}
