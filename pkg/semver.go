package nextversion

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// semverPattern is the SemVer 2.0.0 grammar with an optional leading "v".
var semverPattern = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
	`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
	`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`)

// SemanticVersion is an immutable SemVer 2.0.0 value. Two versions are equal
// when every field is equal, so the type can be compared with == and used as a map key.
type SemanticVersion struct {
	Major      int
	Minor      int
	Patch      int
	PreRelease string // dot separated identifiers without the leading "-"
	Build      string // dot separated identifiers without the leading "+"
}

// Parse reads a version such as "1.2.3-alpha.1+build.5" or "v1.2.3".
// It reports false for anything outside the SemVer grammar.
func Parse(text string) (SemanticVersion, bool) {
	m := semverPattern.FindStringSubmatch(text)
	if m == nil {
		return SemanticVersion{}, false
	}
	var v SemanticVersion
	var err error
	if v.Major, err = strconv.Atoi(m[1]); err != nil {
		return SemanticVersion{}, false
	}
	if v.Minor, err = strconv.Atoi(m[2]); err != nil {
		return SemanticVersion{}, false
	}
	if v.Patch, err = strconv.Atoi(m[3]); err != nil {
		return SemanticVersion{}, false
	}
	v.PreRelease = m[4]
	v.Build = m[5]
	return v, true
}

// MustParse is like Parse but panics on invalid input. It is meant for literals.
func MustParse(text string) SemanticVersion {
	v, ok := Parse(text)
	if !ok {
		panic(fmt.Sprintf("nextversion: invalid semantic version %q", text))
	}
	return v
}

// String formats the version as MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD].
func (v SemanticVersion) String() string {
	var b strings.Builder
	b.WriteString(v.Core())
	if v.PreRelease != "" {
		b.WriteByte('-')
		b.WriteString(v.PreRelease)
	}
	if v.Build != "" {
		b.WriteByte('+')
		b.WriteString(v.Build)
	}
	return b.String()
}

// Core returns MAJOR.MINOR.PATCH.
func (v SemanticVersion) Core() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Tag returns the version with the given tag prefix, e.g. "v1.2.3".
func (v SemanticVersion) Tag(prefix string) string {
	return prefix + v.String()
}

// IsPreRelease reports whether the version carries a prerelease label.
func (v SemanticVersion) IsPreRelease() bool {
	return v.PreRelease != ""
}

// ReleaseType classifies the version by shape: x.0.0 is Major, x.y.0 is Minor
// and everything else is Patch.
func (v SemanticVersion) ReleaseType() ReleaseType {
	switch {
	case v.Minor == 0 && v.Patch == 0:
		return Major
	case v.Patch == 0:
		return Minor
	default:
		return Patch
	}
}

// WithoutPreRelease drops the prerelease and keeps the build metadata.
func (v SemanticVersion) WithoutPreRelease() SemanticVersion {
	v.PreRelease = ""
	return v
}

// Compare orders two versions by the numeric triple, then the prerelease,
// then the build metadata. A missing prerelease sorts above any prerelease.
func Compare(a, b SemanticVersion) int {
	if c := compareInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := compareInt(a.Patch, b.Patch); c != 0 {
		return c
	}
	if c := compareIdentifiers(a.PreRelease, b.PreRelease); c != 0 {
		return c
	}
	// Build metadata takes part in ordering so that distinct tags sort stably.
	return compareIdentifiers(a.Build, b.Build)
}

// Compare returns -1, 0 or +1 as v sorts below, equal to or above o.
func (v SemanticVersion) Compare(o SemanticVersion) int {
	return Compare(v, o)
}

// LessThan reports whether v sorts strictly below o.
func (v SemanticVersion) LessThan(o SemanticVersion) bool {
	return Compare(v, o) < 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareIdentifiers compares dot separated identifier lists. The empty list
// is greatest, numeric pairs compare numerically and a strict prefix is lower.
func compareIdentifiers(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}
	left := strings.Split(a, ".")
	right := strings.Split(b, ".")
	for i := range left {
		if i >= len(right) {
			return 1
		}
		if c := compareIdentifier(left[i], right[i]); c != 0 {
			return c
		}
	}
	if len(left) < len(right) {
		return -1
	}
	return 0
}

// compareIdentifier orders all-digit identifiers numerically and below any
// other identifier. Digit strings that differ only in leading zeros, which
// build metadata allows, fall back to byte order so that distinct values never
// compare equal.
func compareIdentifier(a, b string) int {
	aNum, bNum := isNumeric(a), isNumeric(b)
	switch {
	case aNum && bNum:
		ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if c := compareInt(len(ta), len(tb)); c != 0 {
			return c
		}
		if c := strings.Compare(ta, tb); c != 0 {
			return c
		}
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(a, b)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// SortDescending sorts versions from highest to lowest in place.
func SortDescending(versions []SemanticVersion) {
	slices.SortStableFunc(versions, func(a, b SemanticVersion) int {
		return Compare(b, a)
	})
}

// ParseTags keeps the tags that start with prefix and parse as versions, and
// returns them sorted from highest to lowest. Other tags are ignored.
func ParseTags(tags []string, prefix string) []SemanticVersion {
	versions := make([]SemanticVersion, 0, len(tags))
	seen := make(map[SemanticVersion]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if !strings.HasPrefix(tag, prefix) {
			continue
		}
		v, ok := Parse(strings.TrimPrefix(tag, prefix))
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		versions = append(versions, v)
	}
	SortDescending(versions)
	return versions
}
