package semver

import (
	"fmt"
	"math"
)

// IncrementPatch bumps the patch number. A present build number is reset to 1.
func IncrementPatch(v SemVer) SemVer {
	out := v
	out.Patch++
	out.Build = resetBuild(v.Build)

	return out
}

// IncrementMinor bumps the minor number and resets patch.
func IncrementMinor(v SemVer) SemVer {
	out := v
	out.Minor++
	out.Patch = 0
	out.Build = resetBuild(v.Build)

	return out
}

// IncrementMajor bumps the major number and resets minor and patch.
func IncrementMajor(v SemVer) SemVer {
	out := v
	out.Major++
	out.Minor = 0
	out.Patch = 0
	out.Build = resetBuild(v.Build)

	return out
}

// IncrementByType applies the bump for rt. None returns v unchanged.
func IncrementByType(v SemVer, rt ReleaseType) SemVer {
	switch rt {
	case Major:
		return IncrementMajor(v)
	case Minor:
		return IncrementMinor(v)
	case Patch:
		return IncrementPatch(v)
	default:
		return v
	}
}

func resetBuild(b *uint64) *uint64 {
	if b == nil {
		return nil
	}

	one := uint64(1)

	return &one
}

// IncrementInput holds the versions the next version is derived from.
type IncrementInput struct {
	// LatestVer is the highest tag of any channel.
	LatestVer SemVer
	// LatestStableVer is the highest tag without a channel.
	LatestStableVer SemVer
	ReleaseType     ReleaseType
	// PrereleaseChannel is the target channel; empty for a stable release.
	PrereleaseChannel string
	// LatestChannelVer is the highest tag on PrereleaseChannel, if any.
	LatestChannelVer *SemVer
}

// Increment computes the next version.
//
// The next root is the stable version bumped by the release type, or the
// root of LatestVer when that is higher. Stable releases return that root.
// Prereleases start a new line at <root>-<channel>.1 when it is ahead of
// the channel's latest version, otherwise the channel's build is continued.
func Increment(in IncrementInput) (SemVer, error) {
	if err := in.validate(); err != nil {
		return SemVer{}, err
	}

	if err := checkBump(in.LatestStableVer, in.ReleaseType); err != nil {
		return SemVer{}, err
	}

	bumped := IncrementByType(in.LatestStableVer, in.ReleaseType)
	nextRoot := Highest(bumped, in.LatestVer.Root())

	if in.PrereleaseChannel == "" {
		return nextRoot, nil
	}

	candidate := nextRoot.WithChannel(in.PrereleaseChannel, 1)

	if in.LatestChannelVer == nil || Compare(candidate, *in.LatestChannelVer) > 0 {
		return candidate, nil
	}

	last := *in.LatestChannelVer
	if last.NormalizedBuild() == math.MaxUint64 {
		return SemVer{}, fmt.Errorf("%w: build of %s", ErrVersionOverflow, last)
	}

	return last.WithChannel(last.Channel, last.NormalizedBuild()+1), nil
}

func checkBump(v SemVer, rt ReleaseType) error {
	var field uint64

	switch rt {
	case Major:
		field = v.Major
	case Minor:
		field = v.Minor
	case Patch:
		field = v.Patch
	default:
		return nil
	}

	if field == math.MaxUint64 {
		return fmt.Errorf("%w: cannot apply %s bump to %s", ErrVersionOverflow, rt, v)
	}

	return nil
}

func (in IncrementInput) validate() error {
	if in.ReleaseType == None {
		return ErrNoReleaseNeeded
	}

	if Compare(in.LatestVer, in.LatestStableVer) < 0 {
		return fmt.Errorf("%w: latest %s, stable %s", ErrOutOfOrder, in.LatestVer, in.LatestStableVer)
	}

	if in.LatestStableVer.IsPrerelease() {
		return fmt.Errorf("%w: got %s", ErrStableVersionInvalid, in.LatestStableVer)
	}

	if in.PrereleaseChannel == "" || in.LatestChannelVer == nil {
		return nil
	}

	if in.LatestChannelVer.Channel != in.PrereleaseChannel {
		return fmt.Errorf("%w: expected channel %q, got %s",
			ErrChannelMismatch, in.PrereleaseChannel, *in.LatestChannelVer)
	}

	if Compare(*in.LatestChannelVer, in.LatestVer) > 0 {
		return fmt.Errorf("%w: channel %s, latest %s", ErrChannelVersionTooLarge, *in.LatestChannelVer, in.LatestVer)
	}

	return nil
}
