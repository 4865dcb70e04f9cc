// Package git reads release history from a git repository and creates or
// removes release tags on its origin remote.
//
// Reads go through go-git. Writes shell out to the git CLI so that the user's
// credential helpers and SSH configuration are honoured when pushing.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/ethpandaops/autorel/pkg/commits"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/sirupsen/logrus"
)

// DefaultRemote is the remote tags are pushed to.
const DefaultRemote = "origin"

// ErrUnknownRemoteURL is returned when the origin URL is not a GitHub URL.
var ErrUnknownRemoteURL = errors.New("the git remote URL does not match a GitHub repository")

var githubURLPattern = regexp.MustCompile(`^(?:git@github\.com:|ssh://git@github\.com/|https://(?:[^@/]+@)?github\.com/)([^/]+)/(.+?)(?:\.git)?/?$`)

// Repository is a git working copy.
type Repository struct {
	log    logrus.FieldLogger
	path   string
	remote string
	repo   *gogit.Repository
	getenv func(string) string
}

// Open opens the repository containing path.
func Open(log logrus.FieldLogger, path string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", path, err)
	}

	return &Repository{
		log:    log.WithField("package", "git"),
		path:   path,
		remote: DefaultRemote,
		repo:   repo,
		getenv: os.Getenv,
	}, nil
}

// Fetch fetches tags and refs from the remote.
func (r *Repository) Fetch(ctx context.Context) error {
	if _, err := r.run(ctx, "fetch", "--tags", "--quiet", r.remote); err != nil {
		return fmt.Errorf("git fetch failed: %w", err)
	}

	return nil
}

// RecentTags returns every tag name in the repository, in no particular order.
func (r *Repository) RecentTags(_ context.Context) ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer iter.Close()

	tags := make([]string, 0)

	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return tags, nil
}

// CommitsSince returns the commits reachable from HEAD but not from tag,
// newest first. An empty tag returns the full history.
func (r *Repository) CommitsSince(_ context.Context, tag string) ([]commits.Commit, error) {
	head, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []commits.Commit{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	exclude := make(map[plumbing.Hash]struct{})

	if tag != "" {
		tagCommit, tagErr := r.resolveTag(tag)
		if tagErr != nil {
			return nil, tagErr
		}

		if walkErr := r.walk(tagCommit, func(c *object.Commit) error {
			exclude[c.Hash] = struct{}{}

			return nil
		}); walkErr != nil {
			return nil, walkErr
		}
	}

	out := make([]commits.Commit, 0)

	err = r.walk(head.Hash(), func(c *object.Commit) error {
		if _, skip := exclude[c.Hash]; skip {
			return nil
		}

		out = append(out, commits.Commit{
			Hash:    shortHash(c.Hash),
			Message: strings.TrimSpace(c.Message),
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// CurrentBranch returns the checked out branch. A detached HEAD falls back
// to GITHUB_REF_NAME and then to "HEAD".
func (r *Repository) CurrentBranch(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}

	if ref := r.getenv("GITHUB_REF_NAME"); ref != "" {
		return ref, nil
	}

	return "HEAD", nil
}

// RemoteRepo returns the GitHub owner and repository name, from
// GITHUB_REPOSITORY when set, otherwise from the remote URL.
func (r *Repository) RemoteRepo(_ context.Context) (owner, name string, err error) {
	if env := r.getenv("GITHUB_REPOSITORY"); env != "" {
		parts := strings.SplitN(env, "/", 2)
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return parts[0], parts[1], nil
		}
	}

	remote, err := r.repo.Remote(r.remote)
	if err != nil {
		return "", "", fmt.Errorf("failed to get remote %s: %w", r.remote, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", fmt.Errorf("%w: remote %s has no URL", ErrUnknownRemoteURL, r.remote)
	}

	return ParseGitHubURL(urls[0])
}

// ParseGitHubURL extracts owner and repository from a GitHub remote URL.
func ParseGitHubURL(url string) (owner, name string, err error) {
	m := githubURLPattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownRemoteURL, url)
	}

	return m[1], m[2], nil
}

// CreateAndPushTag creates a lightweight tag on HEAD and pushes it. The local
// tag is removed again if the push fails.
func (r *Repository) CreateAndPushTag(ctx context.Context, tag string) error {
	if _, err := r.run(ctx, "tag", tag); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", tag, err)
	}

	if _, err := r.run(ctx, "push", r.remote, "refs/tags/"+tag); err != nil {
		if _, delErr := r.run(ctx, "tag", "-d", tag); delErr != nil {
			r.log.WithError(delErr).WithField("tag", tag).Warn("failed to remove local tag after push failure")
		}

		return fmt.Errorf("failed to push tag %s: %w", tag, err)
	}

	r.log.WithField("tag", tag).Debug("created and pushed tag")

	return nil
}

// DeleteTag deletes tag locally and on the remote. Tags that are already
// gone count as deleted.
func (r *Repository) DeleteTag(ctx context.Context, tag string) error {
	if _, err := r.repo.Tag(tag); err == nil {
		if _, runErr := r.run(ctx, "tag", "-d", tag); runErr != nil {
			return fmt.Errorf("failed to delete local tag %s: %w", tag, runErr)
		}
	} else if !errors.Is(err, gogit.ErrTagNotFound) {
		return fmt.Errorf("failed to look up tag %s: %w", tag, err)
	}

	if _, err := r.run(ctx, "push", r.remote, ":refs/tags/"+tag); err != nil {
		if isMissingRemoteRef(err) {
			r.log.WithField("tag", tag).Debug("remote tag already absent")

			return nil
		}

		return fmt.Errorf("failed to delete remote tag %s: %w", tag, err)
	}

	return nil
}

func isMissingRemoteRef(err error) bool {
	msg := err.Error()

	return strings.Contains(msg, "remote ref does not exist") ||
		strings.Contains(msg, "unable to delete")
}

func (r *Repository) resolveTag(tag string) (plumbing.Hash, error) {
	ref, err := r.repo.Tag(tag)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve tag %s: %w", tag, err)
	}

	// Annotated tags point at a tag object rather than a commit.
	if obj, tagErr := r.repo.TagObject(ref.Hash()); tagErr == nil {
		c, commitErr := obj.Commit()
		if commitErr != nil {
			return plumbing.ZeroHash, fmt.Errorf("tag %s does not point at a commit: %w", tag, commitErr)
		}

		return c.Hash, nil
	} else if !errors.Is(tagErr, plumbing.ErrObjectNotFound) {
		return plumbing.ZeroHash, fmt.Errorf("failed to read tag %s: %w", tag, tagErr)
	}

	return ref.Hash(), nil
}

func (r *Repository) walk(from plumbing.Hash, fn func(*object.Commit) error) error {
	iter, err := r.repo.Log(&gogit.LogOptions{From: from})
	if err != nil {
		return fmt.Errorf("failed to read log from %s: %w", shortHash(from), err)
	}
	defer iter.Close()

	if err := iter.ForEach(fn); err != nil && !errors.Is(err, storer.ErrStop) {
		return fmt.Errorf("failed to walk commits: %w", err)
	}

	return nil
}

// run executes a git command in the repository and returns trimmed stdout.
func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.WithField("args", args).Debug("running git command")

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stripansi.Strip(stderr.String()))
		if errMsg == "" {
			errMsg = err.Error()
		}

		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), errMsg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

func shortHash(h plumbing.Hash) string {
	return h.String()[:7]
}
