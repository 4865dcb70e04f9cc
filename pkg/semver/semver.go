// Package semver models channel-aware semantic versions: parsing and
// formatting tags, ordering versions across stable and prerelease channels,
// and computing the next version for a release.
package semver

// SemVer is a structured version. A version without a channel is stable.
// Build is only meaningful on prereleases; a nil Build on a prerelease is
// treated as build 1 for ordering and formatting of normalized values.
type SemVer struct {
	Major   uint64
	Minor   uint64
	Patch   uint64
	Channel string
	Build   *uint64
}

// New returns a stable version.
func New(major, minor, patch uint64) SemVer {
	return SemVer{Major: major, Minor: minor, Patch: patch}
}

// NewPrerelease returns a prerelease version with an explicit build number.
func NewPrerelease(major, minor, patch uint64, channel string, build uint64) SemVer {
	return SemVer{Major: major, Minor: minor, Patch: patch, Channel: channel, Build: &build}
}

// IsPrerelease reports whether the version carries a channel.
func (v SemVer) IsPrerelease() bool {
	return v.Channel != ""
}

// NormalizedBuild returns the build number used for ordering. Stable versions
// have no build and report 0.
func (v SemVer) NormalizedBuild() uint64 {
	if !v.IsPrerelease() {
		return 0
	}

	if v.Build == nil {
		return 1
	}

	return *v.Build
}

// Normalize returns a copy where prereleases always carry a build number and
// stable versions never do.
func (v SemVer) Normalize() SemVer {
	out := v.Root()

	if v.IsPrerelease() {
		b := v.NormalizedBuild()
		out.Channel = v.Channel
		out.Build = &b
	}

	return out
}

// Root returns the major.minor.patch triple without channel or build.
func (v SemVer) Root() SemVer {
	return SemVer{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

// WithChannel returns a copy on the given channel with build set to build.
func (v SemVer) WithChannel(channel string, build uint64) SemVer {
	out := v.Root()
	out.Channel = channel
	out.Build = &build

	return out
}

// Equal reports whether a and b are identical after normalization.
func (v SemVer) Equal(other SemVer) bool {
	return Compare(v, other) == 0
}

// String returns the tag form, or a placeholder when the version cannot be
// formatted.
func (v SemVer) String() string {
	tag, err := ToTag(v)
	if err != nil {
		return "<invalid>"
	}

	return tag
}
