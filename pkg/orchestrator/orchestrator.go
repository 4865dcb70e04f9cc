// Package orchestrator runs the release pipeline: it plans the next version
// from tags and commits, then tags, releases and publishes it inside a
// transaction that is rolled back when any step fails.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethpandaops/autorel/pkg/changelog"
	"github.com/ethpandaops/autorel/pkg/commits"
	"github.com/ethpandaops/autorel/pkg/config"
	"github.com/ethpandaops/autorel/pkg/npm"
	"github.com/ethpandaops/autorel/pkg/release"
	"github.com/ethpandaops/autorel/pkg/semver"
	"github.com/ethpandaops/autorel/pkg/transaction"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Script environment variables.
const (
	EnvNextVersion = "NEXT_VERSION"
	EnvNextTag     = "NEXT_TAG"
)

// Step names used in reports and rollback notifications.
const (
	StepTag       = "git tag"
	StepRelease   = "github release"
	StepManifest  = "package.json version"
	StepPublish   = "npm publish"
	StepRunScript = "run script"
	StepPreRun    = "pre-run script"
)

// baselineTag stands in for missing tags when computing the next version.
const baselineTag = "v0.0.0"

var (
	// ErrTokenRequired is returned when a GitHub release is requested without a token.
	ErrTokenRequired = errors.New("GitHub token is required to publish a release: set GITHUB_TOKEN or pass --github-token")

	// ErrTagExists is returned when the next tag is already present.
	ErrTagExists = errors.New("tag already exists")

	// ErrNoRegistry is returned when publishing is enabled without a registry.
	ErrNoRegistry = errors.New("publishing is enabled but no npm registry is configured")
)

// Repository is the git repository being released.
type Repository interface {
	Fetch(ctx context.Context) error
	RecentTags(ctx context.Context) ([]string, error)
	CommitsSince(ctx context.Context, tag string) ([]commits.Commit, error)
	CurrentBranch(ctx context.Context) (string, error)
	RemoteRepo(ctx context.Context) (owner, name string, err error)
	CreateAndPushTag(ctx context.Context, tag string) error
	DeleteTag(ctx context.Context, tag string) error
}

// Registry publishes the package to npm.
type Registry interface {
	ReadManifest() (*npm.Manifest, error)
	SetVersion(version string) (string, error)
	Publish(ctx context.Context, distTag string) error
	Unpublish(ctx context.Context, spec string) error
}

// ScriptRunner runs user scripts with extra environment variables.
type ScriptRunner interface {
	Run(ctx context.Context, script string, env map[string]string) error
}

// Dependencies are the external systems a release touches. Registry may be
// nil when publishing is disabled.
type Dependencies struct {
	Repo     Repository
	Releases release.Host
	Registry Registry
	Scripts  ScriptRunner
}

// Options control a release.
type Options struct {
	DryRun              bool
	PrereleaseChannel   string
	UseVersion          string
	SkipRelease         bool
	Publish             bool
	PreRun              string
	Run                 string
	GitHubToken         string
	BreakingChangeTitle string
	CommitTypes         []commits.CommitType
	Branches            []config.Branch
}

// OptionsFromConfig builds options from a loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DryRun:              cfg.DryRun,
		PrereleaseChannel:   cfg.PrereleaseChannel,
		UseVersion:          cfg.UseVersion,
		SkipRelease:         cfg.SkipRelease,
		Publish:             cfg.Publish,
		PreRun:              cfg.PreRun,
		Run:                 cfg.Run,
		GitHubToken:         cfg.GitHubToken,
		BreakingChangeTitle: cfg.BreakingChangeTitle,
		CommitTypes:         cfg.CommitTypes,
		Branches:            cfg.Branches,
	}
}

// Plan is the outcome of analysing the repository.
type Plan struct {
	Branch            string
	Channel           string
	Tags              []string
	HighestTag        string
	HighestStableTag  string
	HighestChannelTag string
	// FromTag is the tag commits are collected after; empty means all history.
	FromTag     string
	CommitCount int
	Commits     []commits.ConventionalCommit
	ReleaseType semver.ReleaseType
	// NoRelease is set when no commit warrants a release and no version is pinned.
	NoRelease bool
	NextTag   string
	Changelog string
}

// NextVersion returns NextTag without its "v" prefix.
func (p *Plan) NextVersion() string {
	return strings.TrimPrefix(p.NextTag, "v")
}

// IsPrerelease reports whether the next tag is on a prerelease channel.
func (p *Plan) IsPrerelease() bool {
	v, err := semver.FromTag(p.NextTag)

	return err == nil && v.IsPrerelease()
}

// Result is a completed release run.
type Result struct {
	Plan   *Plan
	Report *Report
}

// Version returns the released version, or "" when nothing was released.
func (r *Result) Version() string {
	if r == nil || r.Plan == nil || r.Plan.NoRelease {
		return ""
	}

	return r.Plan.NextVersion()
}

// Orchestrator runs releases.
type Orchestrator struct {
	log        logrus.FieldLogger
	opts       Options
	deps       Dependencies
	parser     *commits.Parser
	classifier *commits.Classifier
}

// NewOrchestrator creates a new Orchestrator instance.
func NewOrchestrator(log logrus.FieldLogger, opts Options, deps Dependencies) *Orchestrator {
	return &Orchestrator{
		log:        log.WithField("component", "orchestrator"),
		opts:       opts,
		deps:       deps,
		parser:     commits.NewParser(log),
		classifier: commits.NewClassifier(opts.CommitTypes),
	}
}

// Release plans and, unless there is nothing to release, executes a release.
func (o *Orchestrator) Release(ctx context.Context) (*Result, error) {
	plan, err := o.Plan(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Plan: plan, Report: NewReport()}

	if plan.NoRelease {
		result.Report.Finalize()

		return result, nil
	}

	report, err := o.Execute(ctx, plan)
	result.Report = report

	return result, err
}

// Plan analyses tags and commits and computes the next tag. It changes
// nothing except fetching from the remote.
func (o *Orchestrator) Plan(ctx context.Context) (*Plan, error) {
	if err := config.ValidateUseVersion(o.opts.UseVersion); err != nil {
		return nil, err
	}

	if err := config.ValidateChannel(o.opts.PrereleaseChannel); err != nil {
		return nil, err
	}

	if o.opts.DryRun {
		o.log.Info("running in dry-run mode, no changes will be made")
	}

	plan := &Plan{}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := o.deps.Repo.Fetch(gctx); err != nil {
			return err
		}

		tags, err := o.deps.Repo.RecentTags(gctx)
		if err != nil {
			return err
		}

		plan.Tags = tags

		return nil
	})

	if o.opts.PrereleaseChannel == "" {
		g.Go(func() error {
			branch, err := o.deps.Repo.CurrentBranch(gctx)
			if err != nil {
				return fmt.Errorf("could not get the current branch: %w", err)
			}

			plan.Branch = branch

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	channel, err := o.resolveChannel(plan.Branch)
	if err != nil {
		return nil, err
	}

	plan.Channel = channel

	if channel != "" {
		o.log.WithField("channel", channel).Info("using prerelease channel")
	} else {
		o.log.Info("this is a production release")
	}

	if o.opts.UseVersion != "" {
		o.log.WithField("version", o.opts.UseVersion).Info("using pinned version")
	}

	latest, hasLatest := semver.HighestTag(plan.Tags)
	stable, hasStable := semver.HighestStableTag(plan.Tags)

	var (
		channelVer *semver.SemVer
		from       semver.SemVer
		hasFrom    bool
	)

	if hasLatest {
		plan.HighestTag = existingTag(plan.Tags, latest)
	}

	if hasStable {
		plan.HighestStableTag = existingTag(plan.Tags, stable)
		from, hasFrom = stable, true
	}

	if channel != "" {
		if v, ok := semver.HighestChannelTag(plan.Tags, channel); ok {
			channelVer = &v
			plan.HighestChannelTag = existingTag(plan.Tags, v)

			if !hasStable || semver.Less(stable, v) {
				from, hasFrom = v, true
			}
		}
	}

	if hasFrom {
		plan.FromTag = existingTag(plan.Tags, from)
	}

	o.log.WithFields(logrus.Fields{
		"highest":        plan.HighestTag,
		"highest_stable": plan.HighestStableTag,
		"highest_ch":     plan.HighestChannelTag,
		"from":           plan.FromTag,
	}).Debug("resolved tags")

	raw, err := o.deps.Repo.CommitsSince(ctx, plan.FromTag)
	if err != nil {
		return nil, err
	}

	plan.CommitCount = len(raw)
	plan.Commits = o.parser.ParseAll(raw)
	plan.ReleaseType = commits.DetermineReleaseType(plan.Commits, o.classifier)

	o.log.WithFields(logrus.Fields{
		"commits":      plan.CommitCount,
		"conventional": len(plan.Commits),
		"release_type": plan.ReleaseType.String(),
	}).Info("analysed commits")

	switch {
	case o.opts.UseVersion != "":
		if plan.ReleaseType == semver.None {
			o.log.Info("no release is needed, but a pinned version was given so releasing anyway")
		}

		plan.NextTag = "v" + o.opts.UseVersion
	case plan.ReleaseType == semver.None:
		plan.NoRelease = true

		o.log.Info("no release is needed")

		return plan, nil
	default:
		next, err := o.nextVersion(plan, latest, stable, channelVer)
		if err != nil {
			return nil, err
		}

		plan.NextTag = next
	}

	if existing := existingTag(plan.Tags, semver.MustFromTag(plan.NextTag)); existing != "" {
		return nil, fmt.Errorf("%w: %s", ErrTagExists, existing)
	}

	plan.Changelog = changelog.Generate(plan.Commits, o.classifier, o.opts.BreakingChangeTitle)

	o.log.WithField("tag", plan.NextTag).Info("computed next version")
	o.log.WithField("changelog", plan.Changelog).Debug("generated changelog")

	return plan, nil
}

func (o *Orchestrator) nextVersion(plan *Plan, latest, stable semver.SemVer, channelVer *semver.SemVer) (string, error) {
	if plan.HighestTag == "" {
		latest = semver.MustFromTag(baselineTag)
	}

	if plan.HighestStableTag == "" {
		stable = semver.MustFromTag(baselineTag)
	}

	next, err := semver.Increment(semver.IncrementInput{
		LatestVer:         latest,
		LatestStableVer:   stable,
		ReleaseType:       plan.ReleaseType,
		PrereleaseChannel: plan.Channel,
		LatestChannelVer:  channelVer,
	})
	if err != nil {
		return "", fmt.Errorf("failed to compute next version: %w", err)
	}

	return semver.ToTag(next)
}

func (o *Orchestrator) resolveChannel(branch string) (string, error) {
	cfg := config.Config{
		PrereleaseChannel: o.opts.PrereleaseChannel,
		Branches:          o.opts.Branches,
	}

	return cfg.ResolveChannel(branch)
}

// existingTag returns the tag in tags that names v. An exact rendering wins
// over an equal-comparing one. Empty means no tag matches.
func existingTag(tags []string, v semver.SemVer) string {
	want, _ := semver.ToTag(v)

	var equal string

	for _, tag := range tags {
		if tag == want {
			return tag
		}

		parsed, err := semver.FromTag(tag)
		if err != nil {
			continue
		}

		if equal == "" && semver.Compare(parsed, v) == 0 {
			equal = tag
		}
	}

	return equal
}

// Execute carries out plan. The returned report is never nil.
func (o *Orchestrator) Execute(ctx context.Context, plan *Plan) (*Report, error) {
	report := NewReport()
	defer report.Finalize()

	if plan.NoRelease {
		return report, nil
	}

	if o.opts.DryRun {
		o.log.WithField("tag", plan.NextTag).Info("dry run, stopping before any changes")

		return report, nil
	}

	owner, repo, err := o.preflight(ctx)
	if err != nil {
		return report, err
	}

	env := map[string]string{
		EnvNextVersion: plan.NextVersion(),
		EnvNextTag:     plan.NextTag,
	}

	if o.opts.PreRun != "" {
		o.log.Info("running pre-release script")

		start := time.Now()

		if err := o.deps.Scripts.Run(ctx, o.opts.PreRun, env); err != nil {
			report.AddFailed(StepPreRun, err)

			return report, fmt.Errorf("pre-release script failed: %w", err)
		}

		report.AddDone(StepPreRun, "", time.Since(start))
	}

	tx := transaction.New(o.rollbackObserver(report))

	err = tx.Run(ctx, func(ctx context.Context, register transaction.Register) error {
		return o.releaseSteps(ctx, plan, owner, repo, env, report, register)
	})
	if err != nil {
		return report, err
	}

	o.log.WithField("tag", plan.NextTag).Info("release complete")

	return report, nil
}

// preflight checks everything that can be checked before any side effects.
func (o *Orchestrator) preflight(ctx context.Context) (owner, repo string, err error) {
	if o.opts.Publish && o.deps.Registry == nil {
		return "", "", ErrNoRegistry
	}

	if o.opts.SkipRelease {
		return "", "", nil
	}

	if o.opts.GitHubToken == "" {
		return "", "", ErrTokenRequired
	}

	if err := o.deps.Releases.CheckPrerequisites(ctx); err != nil {
		return "", "", err
	}

	owner, repo, err = o.deps.Repo.RemoteRepo(ctx)
	if err != nil {
		return "", "", err
	}

	return owner, repo, nil
}

func (o *Orchestrator) releaseSteps(
	ctx context.Context,
	plan *Plan,
	owner, repo string,
	env map[string]string,
	report *Report,
	register transaction.Register,
) error {
	tag := plan.NextTag

	start := time.Now()

	if err := o.deps.Repo.CreateAndPushTag(ctx, tag); err != nil {
		report.AddFailed(StepTag, err)

		return err
	}

	report.AddDone(StepTag, tag, time.Since(start))
	register(StepTag, func(ctx context.Context) error {
		o.log.WithField("tag", tag).Info("rolling back git tag")

		return o.deps.Repo.DeleteTag(ctx, tag)
	})

	if !o.opts.SkipRelease {
		start = time.Now()

		rel, err := o.deps.Releases.CreateRelease(ctx, release.Params{
			Owner:      owner,
			Repo:       repo,
			Tag:        tag,
			Name:       tag,
			Body:       plan.Changelog,
			Prerelease: plan.IsPrerelease(),
		})
		if err != nil {
			report.AddFailed(StepRelease, err)

			return err
		}

		report.AddDone(StepRelease, rel.URL, time.Since(start))
		register(StepRelease, func(ctx context.Context) error {
			o.log.WithField("id", rel.ID).Info("rolling back GitHub release")

			return o.deps.Releases.DeleteRelease(ctx, owner, repo, rel.ID)
		})
	}

	if o.opts.Publish {
		if err := o.publish(ctx, plan, report, register); err != nil {
			return err
		}
	}

	if o.opts.Run != "" {
		o.log.Info("running release script")

		start = time.Now()

		if err := o.deps.Scripts.Run(ctx, o.opts.Run, env); err != nil {
			report.AddFailed(StepRunScript, err)

			return fmt.Errorf("release script failed: %w", err)
		}

		report.AddDone(StepRunScript, "", time.Since(start))
	}

	return nil
}

func (o *Orchestrator) publish(ctx context.Context, plan *Plan, report *Report, register transaction.Register) error {
	manifest, err := o.deps.Registry.ReadManifest()
	if err != nil {
		report.AddFailed(StepManifest, err)

		return err
	}

	if manifest.Name == "" {
		err := fmt.Errorf("%s has no name field", npm.ManifestFile)
		report.AddFailed(StepManifest, err)

		return err
	}

	start := time.Now()

	old, err := o.deps.Registry.SetVersion(plan.NextVersion())
	if err != nil {
		report.AddFailed(StepManifest, err)

		return err
	}

	report.AddDone(StepManifest, old+" -> "+plan.NextVersion(), time.Since(start))
	register(StepManifest, func(context.Context) error {
		o.log.WithField("version", old).Info("rolling back package.json")

		_, err := o.deps.Registry.SetVersion(old)

		return err
	})

	distTag := plan.Channel
	if distTag == "" {
		distTag = npm.DefaultDistTag
	}

	spec := manifest.Name + "@" + plan.NextVersion()
	start = time.Now()

	if err := o.deps.Registry.Publish(ctx, distTag); err != nil {
		report.AddFailed(StepPublish, err)

		return err
	}

	report.AddDone(StepPublish, spec, time.Since(start))
	register(StepPublish, func(ctx context.Context) error {
		o.log.WithField("spec", spec).Info("rolling back npm publish")

		return o.deps.Registry.Unpublish(ctx, spec)
	})

	return nil
}

func (o *Orchestrator) rollbackObserver(report *Report) transaction.Observer {
	return transaction.Observer{
		OnRollbackStarted: func(cause error) {
			o.log.WithError(cause).Warn("release failed, rolling back")
		},
		OnRollbackActionStarted: func(name string) {
			report.MarkRolledBack(name)
		},
		OnRollbackActionFailed: func(name string, err error) {
			report.MarkRollbackFailed(name, err)
			o.log.WithError(err).WithField("step", name).Error("rollback failed")
		},
	}
}
