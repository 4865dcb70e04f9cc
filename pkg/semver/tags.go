package semver

// HighestTag returns the highest parseable version among tags.
func HighestTag(tags []string) (SemVer, bool) {
	return highestMatching(tags, func(SemVer) bool { return true })
}

// HighestStableTag returns the highest version among tags that has no channel.
func HighestStableTag(tags []string) (SemVer, bool) {
	return highestMatching(tags, func(v SemVer) bool { return !v.IsPrerelease() })
}

// HighestChannelTag returns the highest version among tags on channel.
func HighestChannelTag(tags []string, channel string) (SemVer, bool) {
	return highestMatching(tags, func(v SemVer) bool { return v.Channel == channel })
}

func highestMatching(tags []string, keep func(SemVer) bool) (SemVer, bool) {
	var (
		best  SemVer
		found bool
	)

	for _, tag := range tags {
		v, err := FromTag(tag)
		if err != nil || !keep(v) {
			continue
		}

		if !found {
			best, found = v.Normalize(), true

			continue
		}

		best = Highest(best, v)
	}

	return best, found
}
