// Package changelog renders release notes from conventional commits.
package changelog

import (
	"fmt"
	"strings"

	"github.com/ethpandaops/autorel/pkg/commits"
)

// DefaultBreakingTitle is used when no breaking change title is configured.
const DefaultBreakingTitle = "Breaking Changes"

// Generate renders a markdown changelog. Breaking changes come first, then
// one section per commit type in order of first appearance.
func Generate(parsed []commits.ConventionalCommit, classifier *commits.Classifier, breakingTitle string) string {
	if breakingTitle == "" {
		breakingTitle = DefaultBreakingTitle
	}

	sections := make([]string, 0)

	if breaking := commits.Breaking(parsed); len(breaking) > 0 {
		sections = append(sections, section(breakingTitle, breaking))
	}

	order, groups := commits.Group(parsed)
	for _, commitType := range order {
		sections = append(sections, section(classifier.Title(commitType), groups[commitType]))
	}

	return strings.Join(sections, "\n\n")
}

func section(title string, entries []commits.ConventionalCommit) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n", title)

	for _, cc := range entries {
		fmt.Fprintf(&b, "\n- %s (%s)", cc.Description, cc.Hash)
	}

	return b.String()
}
