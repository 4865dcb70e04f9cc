package semver

import "cmp"

// Compare returns -1, 0 or 1 ordering a against b by major, minor, patch,
// then stable above prerelease, then channel name, then build number.
// Missing prerelease builds compare as 1.
func Compare(a, b SemVer) int {
	if c := cmp.Compare(a.Major, b.Major); c != 0 {
		return c
	}

	if c := cmp.Compare(a.Minor, b.Minor); c != 0 {
		return c
	}

	if c := cmp.Compare(a.Patch, b.Patch); c != 0 {
		return c
	}

	switch {
	case !a.IsPrerelease() && !b.IsPrerelease():
		return 0
	case !a.IsPrerelease():
		return 1
	case !b.IsPrerelease():
		return -1
	}

	if c := cmp.Compare(a.Channel, b.Channel); c != 0 {
		return c
	}

	return cmp.Compare(a.NormalizedBuild(), b.NormalizedBuild())
}

// Less reports whether a sorts before b.
func Less(a, b SemVer) bool {
	return Compare(a, b) < 0
}

// Highest returns the normalized greater of a and b. On a tie it returns b.
func Highest(a, b SemVer) SemVer {
	if Compare(a, b) > 0 {
		return a.Normalize()
	}

	return b.Normalize()
}
