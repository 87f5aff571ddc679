package nextversion

import (
	"strconv"
	"strings"
)

// Bump increments the field selected by t. None and Unknown bump the patch.
// A prerelease whose shape already covers the requested bump is finalized
// instead of incremented, e.g. 1.0.0-alpha.1 bumped as major is 1.0.0.
// Build metadata is kept in every case.
func Bump(v SemanticVersion, t ReleaseType) SemanticVersion {
	switch t {
	case Major:
		return BumpMajor(v)
	case Minor:
		return BumpMinor(v)
	default:
		return BumpPatch(v)
	}
}

// BumpMajor returns the next major version, or finalizes a prerelease of an
// x.0.0 version.
func BumpMajor(v SemanticVersion) SemanticVersion {
	if v.IsPreRelease() && v.ReleaseType() == Major {
		return v.WithoutPreRelease()
	}
	v.Major++
	v.Minor = 0
	v.Patch = 0
	v.PreRelease = ""
	return v
}

// BumpMinor returns the next minor version, or finalizes a prerelease of an
// x.y.0 version.
func BumpMinor(v SemanticVersion) SemanticVersion {
	if v.IsPreRelease() && v.ReleaseType() >= Minor {
		return v.WithoutPreRelease()
	}
	v.Minor++
	v.Patch = 0
	v.PreRelease = ""
	return v
}

// BumpPatch returns the next patch version, or finalizes any prerelease.
func BumpPatch(v SemanticVersion) SemanticVersion {
	if v.IsPreRelease() {
		return v.WithoutPreRelease()
	}
	v.Patch++
	return v
}

// BumpPreRelease advances the prerelease counter for id. When the version has
// no prerelease, or its first identifier is not id, a new "{id}.1" prerelease
// is started ("1" for an empty id). Otherwise the last numeric identifier is
// incremented, and ".1" is appended when there is none.
func BumpPreRelease(v SemanticVersion, id string) SemanticVersion {
	if v.PreRelease == "" {
		return startPreRelease(v, id)
	}
	parts := strings.Split(v.PreRelease, ".")
	if parts[0] != id {
		return startPreRelease(v, id)
	}
	bumped := false
	for i := len(parts) - 1; i >= 0; i-- {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			continue
		}
		parts[i] = strconv.Itoa(n + 1)
		bumped = true
		break
	}
	if !bumped {
		parts = append(parts, "1")
	}
	v.PreRelease = strings.Join(parts, ".")
	return v
}

func startPreRelease(v SemanticVersion, id string) SemanticVersion {
	if id == "" {
		v.PreRelease = "1"
	} else {
		v.PreRelease = id + ".1"
	}
	return v
}
