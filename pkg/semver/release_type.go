package semver

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReleaseType is the magnitude of a version bump. The zero value is None.
type ReleaseType int

const (
	None ReleaseType = iota
	Patch
	Minor
	Major
)

var releaseTypeNames = map[ReleaseType]string{
	None:  "none",
	Patch: "patch",
	Minor: "minor",
	Major: "major",
}

// String returns the lowercase name of the release type.
func (r ReleaseType) String() string {
	if name, ok := releaseTypeNames[r]; ok {
		return name
	}

	return fmt.Sprintf("ReleaseType(%d)", int(r))
}

// ParseReleaseType parses "none", "patch", "minor" or "major".
func ParseReleaseType(s string) (ReleaseType, error) {
	needle := strings.ToLower(strings.TrimSpace(s))

	for rt, name := range releaseTypeNames {
		if name == needle {
			return rt, nil
		}
	}

	return None, fmt.Errorf("invalid release type %q (must be none, patch, minor or major)", s)
}

// MarshalYAML implements yaml.Marshaler.
func (r ReleaseType) MarshalYAML() (any, error) {
	return r.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *ReleaseType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := ParseReleaseType(s)
	if err != nil {
		return err
	}

	*r = parsed

	return nil
}

// MaxReleaseType returns the highest release type. No input yields None.
func MaxReleaseType(types ...ReleaseType) ReleaseType {
	highest := None

	for _, rt := range types {
		if rt > highest {
			highest = rt
		}
	}

	return highest
}
