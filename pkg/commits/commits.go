// Package commits parses conventional commit messages and reduces them to
// the release type they imply.
package commits

import (
	"strings"

	"github.com/ethpandaops/autorel/pkg/semver"
	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
	"github.com/sirupsen/logrus"
)

// Commit is a raw commit as read from the tag source.
type Commit struct {
	Hash    string
	Message string
}

// ConventionalCommit is a commit whose message follows the conventional
// commits format.
type ConventionalCommit struct {
	Hash        string
	Type        string
	Scope       string
	Description string
	Body        string
	Footers     map[string][]string
	Breaking    bool
}

// CommitType maps a commit type to its changelog title and release type.
type CommitType struct {
	Type    string             `yaml:"type"`
	Title   string             `yaml:"title"`
	Release semver.ReleaseType `yaml:"release"`
}

// Parser turns raw commits into conventional commits.
type Parser struct {
	log     logrus.FieldLogger
	machine conventionalcommits.Machine
}

// NewParser creates a parser accepting any commit type.
func NewParser(log logrus.FieldLogger) *Parser {
	return &Parser{
		log: log.WithField("package", "commits"),
		machine: parser.NewMachine(
			parser.WithTypes(conventionalcommits.TypesFreeForm),
			parser.WithBestEffort(),
		),
	}
}

// Parse parses a single commit. The second return value is false when the
// message is not a conventional commit.
func (p *Parser) Parse(c Commit) (ConventionalCommit, bool) {
	// In best effort mode a valid header is enough; problems further down
	// the message come back as err alongside a usable result.
	msg, err := p.machine.Parse([]byte(strings.TrimSpace(c.Message)))
	if msg == nil || !msg.Ok() {
		p.log.WithField("hash", c.Hash).Debug("skipping non-conventional commit")

		return ConventionalCommit{}, false
	}

	if err != nil {
		p.log.WithError(err).WithField("hash", c.Hash).Debug("commit parsed partially")
	}

	cc, ok := msg.(*conventionalcommits.ConventionalCommit)
	if !ok {
		return ConventionalCommit{}, false
	}

	out := ConventionalCommit{
		Hash:        c.Hash,
		Type:        cc.Type,
		Description: cc.Description,
		Footers:     cc.Footers,
		Breaking:    cc.IsBreakingChange(),
	}

	if cc.Scope != nil {
		out.Scope = *cc.Scope
	}

	if cc.Body != nil {
		out.Body = strings.TrimSpace(*cc.Body)
	}

	return out, true
}

// ParseAll parses commits, dropping the ones that are not conventional.
func (p *Parser) ParseAll(raw []Commit) []ConventionalCommit {
	parsed := make([]ConventionalCommit, 0, len(raw))

	for _, c := range raw {
		if cc, ok := p.Parse(c); ok {
			parsed = append(parsed, cc)
		}
	}

	return parsed
}

// Classifier assigns release types to commits using configured commit types.
type Classifier struct {
	types map[string]CommitType
}

// NewClassifier indexes types by name. Later duplicates win.
func NewClassifier(types []CommitType) *Classifier {
	idx := make(map[string]CommitType, len(types))
	for _, t := range types {
		idx[t.Type] = t
	}

	return &Classifier{types: idx}
}

// ReleaseType returns major for breaking commits, otherwise the configured
// release type for the commit's type. Unknown types yield none.
func (c *Classifier) ReleaseType(cc ConventionalCommit) semver.ReleaseType {
	if cc.Breaking {
		return semver.Major
	}

	return c.types[cc.Type].Release
}

// Title returns the changelog title for a commit type, falling back to the
// type itself.
func (c *Classifier) Title(commitType string) string {
	if t, ok := c.types[commitType]; ok && t.Title != "" {
		return t.Title
	}

	return commitType
}

// DetermineReleaseType returns the highest release type among commits.
func DetermineReleaseType(parsed []ConventionalCommit, c *Classifier) semver.ReleaseType {
	types := make([]semver.ReleaseType, 0, len(parsed))
	for _, cc := range parsed {
		types = append(types, c.ReleaseType(cc))
	}

	return semver.MaxReleaseType(types...)
}

// Group groups commits by type, keeping types in order of first appearance.
func Group(parsed []ConventionalCommit) ([]string, map[string][]ConventionalCommit) {
	order := make([]string, 0)
	groups := make(map[string][]ConventionalCommit)

	for _, cc := range parsed {
		if _, seen := groups[cc.Type]; !seen {
			order = append(order, cc.Type)
		}

		groups[cc.Type] = append(groups[cc.Type], cc)
	}

	return order, groups
}

// Breaking returns the breaking commits.
func Breaking(parsed []ConventionalCommit) []ConventionalCommit {
	out := make([]ConventionalCommit, 0)

	for _, cc := range parsed {
		if cc.Breaking {
			out = append(out, cc)
		}
	}

	return out
}
