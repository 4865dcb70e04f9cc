package changelog

import (
	"testing"

	"github.com/ethpandaops/autorel/pkg/commits"
	"github.com/ethpandaops/autorel/pkg/semver"
	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	classifier := commits.NewClassifier([]commits.CommitType{
		{Type: "feat", Title: "Features", Release: semver.Minor},
		{Type: "fix", Title: "Bug Fixes", Release: semver.Patch},
	})

	tests := []struct {
		name     string
		commits  []commits.ConventionalCommit
		title    string
		expected string
	}{
		{
			name:     "empty",
			expected: "",
		},
		{
			name: "grouped by type",
			commits: []commits.ConventionalCommit{
				{Hash: "a1", Type: "feat", Description: "add alpha"},
				{Hash: "b2", Type: "fix", Description: "fix beta"},
				{Hash: "c3", Type: "feat", Description: "add gamma"},
			},
			expected: "## Features\n\n- add alpha (a1)\n- add gamma (c3)\n\n## Bug Fixes\n\n- fix beta (b2)",
		},
		{
			name: "breaking first",
			commits: []commits.ConventionalCommit{
				{Hash: "a1", Type: "fix", Description: "small fix"},
				{Hash: "b2", Type: "chore", Description: "drop v1 api", Breaking: true},
			},
			title:    "Breaking",
			expected: "## Breaking\n\n- drop v1 api (b2)\n\n## Bug Fixes\n\n- small fix (a1)\n\n## chore\n\n- drop v1 api (b2)",
		},
		{
			name: "default breaking title",
			commits: []commits.ConventionalCommit{
				{Hash: "b2", Type: "feat", Description: "new api", Breaking: true},
			},
			expected: "## Breaking Changes\n\n- new api (b2)\n\n## Features\n\n- new api (b2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.commits, classifier, tt.title))
		})
	}
}
