package semver

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is returned (wrapped in a *ParseError) when a tag is malformed.
	ErrParse = errors.New("invalid version tag")

	// ErrInvalidSemVer is returned when a structured version cannot be formatted.
	ErrInvalidSemVer = errors.New("invalid semver")

	// ErrVersionOverflow is returned when a bump would exceed the largest
	// representable version number.
	ErrVersionOverflow = fmt.Errorf("%w: version number overflow", ErrInvalidSemVer)

	// ErrNoReleaseNeeded signals that the release type is none.
	ErrNoReleaseNeeded = errors.New(`release type is set to "none"`)

	// ErrOutOfOrder is returned when the latest version is behind the latest stable version.
	ErrOutOfOrder = errors.New("the latest version cannot be less than the last stable/production version " +
		"(following SemVer); use --use-version to specify the version you want")

	// ErrStableVersionInvalid is returned when the latest stable version has a channel.
	ErrStableVersionInvalid = errors.New("the stable version cannot be a prerelease")

	// ErrChannelMismatch is returned when the latest channel version is on another channel.
	ErrChannelMismatch = errors.New("the last channel version must be a prerelease of the same channel")

	// ErrChannelVersionTooLarge is returned when the latest channel version is ahead of the latest version.
	ErrChannelVersionTooLarge = errors.New("the latest channel version cannot be greater than the latest version")
)

// ParseError describes a tag that failed to parse.
type ParseError struct {
	Tag    string
	Pos    int
	Reason string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: %s at offset %d", ErrParse, e.Tag, e.Reason, e.Pos)
}

// Unwrap allows errors.Is(err, ErrParse).
func (e *ParseError) Unwrap() error {
	return ErrParse
}
