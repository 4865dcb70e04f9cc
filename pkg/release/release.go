// Package release publishes GitHub releases for pushed tags.
// It uses the GitHub CLI (gh) for all GitHub interactions.
package release

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Params describes a release to create.
type Params struct {
	Owner      string
	Repo       string
	Tag        string
	Name       string
	Body       string
	Prerelease bool
	Draft      bool
}

// Release is a created GitHub release.
type Release struct {
	ID      int64  `json:"id"`
	TagName string `json:"tag_name"`
	URL     string `json:"html_url"`
}

// Host creates and removes releases on GitHub.
type Host interface {
	// CheckPrerequisites verifies gh CLI is installed and a token is available
	CheckPrerequisites(ctx context.Context) error

	// CreateRelease creates a release for an existing tag
	CreateRelease(ctx context.Context, params Params) (*Release, error)

	// DeleteRelease deletes a release by ID. A missing release is not an error.
	DeleteRelease(ctx context.Context, owner, repo string, id int64) error
}

// NewHost creates a gh backed release host. An empty token leaves gh to use
// its own authentication.
func NewHost(log logrus.FieldLogger, token string) Host {
	s := &service{
		log:   log.WithField("package", "release"),
		token: token,
	}
	s.run = s.runGH

	return s
}

type ghRunner func(ctx context.Context, args ...string) (string, error)

type service struct {
	log   logrus.FieldLogger
	token string
	run   ghRunner
}
