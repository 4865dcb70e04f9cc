// Package commands implements the autorel CLI.
package commands

import (
	"path/filepath"

	"github.com/ethpandaops/autorel/pkg/config"
	"github.com/spf13/cobra"
)

// GlobalOptions are the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Dir        string
	Verbose    bool
}

// ResolvePath returns path relative to the repository directory. Absolute
// paths are returned unchanged.
func (g *GlobalOptions) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || g.Dir == "" {
		return path
	}

	return filepath.Join(g.Dir, path)
}

// releaseFlags are command line overrides for the release configuration.
type releaseFlags struct {
	dryRun      bool
	pre         string
	useVersion  string
	skipRelease bool
	publish     bool
	preRun      string
	run         string
	githubToken string
}

func (f *releaseFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "d", false, "Compute the next version and changelog without making changes")
	cmd.Flags().StringVarP(&f.pre, "pre", "p", "", "Prerelease channel (overrides the branch configuration)")
	cmd.Flags().StringVarP(&f.useVersion, "use-version", "t", "", "Release this version instead of computing one (no \"v\" prefix)")
	cmd.Flags().BoolVar(&f.skipRelease, "skip-release", false, "Do not create a GitHub release")
	cmd.Flags().BoolVar(&f.publish, "publish", false, "Update package.json and publish to npm")
	cmd.Flags().StringVar(&f.preRun, "pre-run", "", "Bash script to run before releasing")
	cmd.Flags().StringVarP(&f.run, "run", "r", "", "Bash script to run after the release is created")
	cmd.Flags().StringVar(&f.githubToken, "github-token", "", "GitHub token (defaults to $GITHUB_TOKEN)")
}

// apply overlays the flags the user actually set onto cfg.
func (f *releaseFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("dry-run") {
		cfg.DryRun = f.dryRun
	}

	if flags.Changed("pre") {
		cfg.PrereleaseChannel = f.pre
	}

	if flags.Changed("use-version") {
		cfg.UseVersion = f.useVersion
	}

	if flags.Changed("skip-release") {
		cfg.SkipRelease = f.skipRelease
	}

	if flags.Changed("publish") {
		cfg.Publish = f.publish
	}

	if flags.Changed("pre-run") {
		cfg.PreRun = f.preRun
	}

	if flags.Changed("run") {
		cfg.Run = f.run
	}

	if flags.Changed("github-token") {
		cfg.GitHubToken = f.githubToken
	}
}

// loadConfig loads, overrides and validates the release configuration.
func loadConfig(cmd *cobra.Command, global *GlobalOptions, flags *releaseFlags) (*config.Config, error) {
	cfg, err := config.Load(global.ConfigPath)
	if err != nil {
		return nil, err
	}

	if flags != nil {
		flags.apply(cmd, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
