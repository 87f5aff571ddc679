package nextversion

import (
	"fmt"
	"strings"
)

// ReleaseType is the magnitude of a release. The zero value is Unknown and the
// constants are ordered so that a greater value means a larger bump.
type ReleaseType int

const (
	Unknown ReleaseType = iota
	None
	Patch
	Minor
	Major
)

var releaseTypeNames = map[ReleaseType]string{
	Unknown: "unknown",
	None:    "none",
	Patch:   "patch",
	Minor:   "minor",
	Major:   "major",
}

func (t ReleaseType) String() string {
	if name, ok := releaseTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ReleaseType(%d)", int(t))
}

// ParseReleaseType converts a case-insensitive name such as "minor" to a ReleaseType.
func ParseReleaseType(s string) (ReleaseType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range releaseTypeNames {
		if n == name {
			return t, nil
		}
	}
	return Unknown, fmt.Errorf("unknown release type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t ReleaseType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ReleaseType) UnmarshalText(text []byte) error {
	parsed, err := ParseReleaseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
