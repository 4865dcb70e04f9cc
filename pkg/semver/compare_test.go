package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{name: "build ordering", a: "v1.1.1-alpha.1", b: "v1.1.1-alpha.2", expected: -1},
		{name: "equal prereleases", a: "v1.0.0-alpha.2", b: "v1.0.0-alpha.2", expected: 0},
		{name: "higher build", a: "v1.0.0-alpha.2", b: "v1.0.0-alpha.1", expected: 1},
		{name: "channel ordering", a: "v1.0.0-alpha.2", b: "v1.0.0-beta.1", expected: -1},
		{name: "channel beats build", a: "v1.0.0-gamma.1", b: "v1.0.0-alpha.8", expected: 1},
		{name: "missing build on higher channel", a: "v1.0.0-alpha.2", b: "v1.0.0-beta", expected: -1},
		{name: "patch ordering", a: "v1.0.1", b: "v1.0.0", expected: 1},
		{name: "missing build equals build one", a: "v1.0.1-alpha", b: "v1.0.1-alpha.1", expected: 0},
		{name: "stable beats prerelease", a: "v1.0.0", b: "v1.0.0-rc", expected: 1},
		{name: "prerelease of higher root beats stable", a: "v1.0.0", b: "v1.0.1-alpha.1", expected: -1},
		{name: "major dominates", a: "v2.0.0-alpha.1", b: "v1.9.9", expected: 1},
		{name: "build zero below missing build", a: "v1.0.0-rc.0", b: "v1.0.0-rc", expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compare(MustFromTag(tt.a), MustFromTag(tt.b)))
			assert.Equal(t, -tt.expected, Compare(MustFromTag(tt.b), MustFromTag(tt.a)))
		})
	}
}

func TestCompareStableBeatsPrerelease(t *testing.T) {
	assert.Equal(t, 1, Compare(New(1, 0, 0), SemVer{Major: 1, Channel: "rc"}))
}

func TestCompareTotalOrder(t *testing.T) {
	versions := generateVersions()

	for _, a := range versions {
		assert.Equal(t, 0, Compare(a, a), "reflexive %s", a)

		for _, b := range versions {
			ab := Compare(a, b)
			assert.Equal(t, -ab, Compare(b, a), "antisymmetric %s %s", a, b)

			h := Highest(a, b)
			assert.True(t, h.Equal(a) || h.Equal(b), "highest(%s, %s) = %s", a, b, h)

			if ab > 0 {
				assert.Equal(t, a.Normalize(), h)
			}

			for _, c := range versions {
				if ab <= 0 && Compare(b, c) <= 0 {
					assert.LessOrEqual(t, Compare(a, c), 0, "transitive %s %s %s", a, b, c)
				}
			}
		}
	}
}

func TestHighest(t *testing.T) {
	tests := []struct {
		name     string
		a, b     SemVer
		expected SemVer
	}{
		{
			name:     "equal",
			a:        NewPrerelease(1, 1, 1, "beta", 1),
			b:        NewPrerelease(1, 1, 1, "beta", 1),
			expected: NewPrerelease(1, 1, 1, "beta", 1),
		},
		{
			name:     "minor wins",
			a:        NewPrerelease(1, 0, 0, "alpha", 2),
			b:        NewPrerelease(1, 1, 0, "alpha", 2),
			expected: NewPrerelease(1, 1, 0, "alpha", 2),
		},
		{
			name:     "channel wins",
			a:        NewPrerelease(1, 1, 1, "alpha", 1),
			b:        NewPrerelease(1, 1, 1, "beta", 1),
			expected: NewPrerelease(1, 1, 1, "beta", 1),
		},
		{
			name:     "stable over prerelease rhs",
			a:        New(1, 1, 1),
			b:        SemVer{Major: 1, Minor: 1, Patch: 1, Channel: "alpha"},
			expected: New(1, 1, 1),
		},
		{
			name:     "stable over prerelease lhs",
			a:        SemVer{Major: 1, Minor: 1, Patch: 1, Channel: "alpha"},
			b:        New(1, 1, 1),
			expected: New(1, 1, 1),
		},
		{
			name:     "normalizes missing build",
			a:        SemVer{Major: 1, Minor: 1, Patch: 1, Channel: "alpha"},
			b:        SemVer{Major: 1, Minor: 1, Patch: 0},
			expected: NewPrerelease(1, 1, 1, "alpha", 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Highest(tt.a, tt.b))
		})
	}
}

func TestRoot(t *testing.T) {
	assert.Equal(t, New(1, 2, 3), MustFromTag("v1.2.3-alpha.4").Root())
	assert.Equal(t, New(1, 2, 3), MustFromTag("v1.2.3").Root())
}
