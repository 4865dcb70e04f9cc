package semver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected SemVer
	}{
		{name: "stable", input: "v1.2.3", expected: New(1, 2, 3)},
		{name: "zeros", input: "v0.0.0", expected: New(0, 0, 0)},
		{name: "channel with build", input: "v1.0.0-alpha.2", expected: NewPrerelease(1, 0, 0, "alpha", 2)},
		{name: "channel without build", input: "v1.0.0-rc", expected: SemVer{Major: 1, Channel: "rc"}},
		{name: "hyphenated channel", input: "v2.1.0-pre-release.10", expected: NewPrerelease(2, 1, 0, "pre-release", 10)},
		{name: "build zero", input: "v1.0.0-rc.0", expected: NewPrerelease(1, 0, 0, "rc", 0)},
		{name: "metadata discarded", input: "v1.2.3+build.5", expected: New(1, 2, 3)},
		{name: "metadata after prerelease", input: "v1.2.3-beta.4+sha-abc123", expected: NewPrerelease(1, 2, 3, "beta", 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := FromTag(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestFromTagInvalid(t *testing.T) {
	inputs := []string{
		"",
		"1.2.3",
		"v1.2",
		"v1.2.3.4",
		"v1.2.x",
		"v01.2.3",
		"v1.02.3",
		"v1.2.3-",
		"v1.2.3-alpha.",
		"v1.2.3-alpha.beta",
		"v1.2.3-alpha.01",
		"v1.2.3-alpha.1.2",
		"v1.2.3-al_pha",
		"v1.2.3+",
		"v1.2.3+meta..x",
		"invalid",
		"not-a-version",
		"v99999999999999999999.0.0",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := FromTag(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, input, pe.Tag)
			assert.False(t, IsValidTag(input))
		})
	}
}

func TestToTag(t *testing.T) {
	tests := []struct {
		name     string
		input    SemVer
		expected string
	}{
		{name: "stable", input: New(1, 2, 3), expected: "v1.2.3"},
		{name: "prerelease", input: NewPrerelease(1, 0, 0, "beta", 3), expected: "v1.0.0-beta.3"},
		{name: "prerelease without build", input: SemVer{Major: 1, Channel: "beta"}, expected: "v1.0.0-beta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := ToTag(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tag)
		})
	}
}

func TestToTagInvalid(t *testing.T) {
	build := uint64(2)

	tests := []struct {
		name  string
		input SemVer
	}{
		{name: "build without channel", input: SemVer{Major: 1, Build: &build}},
		{name: "dot in channel", input: SemVer{Major: 1, Channel: "a.b"}},
		{name: "space in channel", input: SemVer{Major: 1, Channel: "a b"}},
		{name: "plus in channel", input: SemVer{Major: 1, Channel: "rc+1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToTag(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSemVer)
			assert.Equal(t, "<invalid>", tt.input.String())
		})
	}
}

func TestTagRoundTrip(t *testing.T) {
	for _, v := range generateVersions() {
		normalized := v.Normalize()

		tag, err := ToTag(normalized)
		require.NoError(t, err)

		parsed, err := FromTag(tag)
		require.NoError(t, err)
		assert.Equal(t, normalized, parsed, tag)
	}
}

func TestFromTagKeepsMissingBuild(t *testing.T) {
	bare := MustFromTag("v1.0.1-alpha")
	numbered := MustFromTag("v1.0.1-alpha.1")

	assert.Nil(t, bare.Build)
	assert.NotEqual(t, bare, numbered)
	assert.Equal(t, 0, Compare(bare, numbered))
	assert.Equal(t, "v1.0.1-alpha", MustToTag(bare))
	assert.Equal(t, "v1.0.1-alpha.1", MustToTag(bare.Normalize()))
}

// generateVersions builds a small grid of stable and prerelease versions.
func generateVersions() []SemVer {
	var out []SemVer

	for _, major := range []uint64{0, 1, 2} {
		for _, minor := range []uint64{0, 3} {
			for _, patch := range []uint64{0, 1} {
				out = append(out, New(major, minor, patch))
				out = append(out, SemVer{Major: major, Minor: minor, Patch: patch, Channel: "rc"})

				for _, channel := range []string{"alpha", "beta", "next-2"} {
					for _, build := range []uint64{0, 1, 7} {
						out = append(out, NewPrerelease(major, minor, patch, channel, build))
					}
				}
			}
		}
	}

	return out
}

func TestIsValidChannel(t *testing.T) {
	assert.True(t, IsValidChannel("beta"))
	assert.True(t, IsValidChannel("rc-2"))
	assert.False(t, IsValidChannel(""))
	assert.False(t, IsValidChannel("rc.1"))
	assert.False(t, IsValidChannel("rc+meta"))
}
