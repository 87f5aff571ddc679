package nextversion

import (
	"fmt"
	"regexp"
)

// ReleaseStream is the release policy attached to a branch.
type ReleaseStream struct {
	// ID names the stream. For prerelease streams it is also the prerelease label.
	ID                string
	BranchName        string
	BranchNamePattern string
	IsPrimary         bool
	IsPreRelease      bool
}

// DefaultReleaseStreams returns the built-in stream catalog.
func DefaultReleaseStreams() []ReleaseStream {
	return []ReleaseStream{
		{ID: "release", BranchName: "release", IsPrimary: true},
		{ID: "main", BranchName: "main", IsPrimary: true},
		{ID: "alpha", BranchName: "alpha", IsPreRelease: true},
		{ID: "beta", BranchName: "beta", IsPreRelease: true},
		{ID: "rc", BranchName: "rc", IsPreRelease: true},
		{ID: "major", BranchNamePattern: `^v([1-9][0-9]*)$`},
		{ID: "minor", BranchNamePattern: `^v([1-9][0-9]*).([1-9][0-9]*)$`},
		{ID: "patch", BranchNamePattern: `^v([1-9][0-9]*).([1-9][0-9]*).([1-9][0-9]*)$`},
	}
}

// streamIDPattern is a single SemVer prerelease identifier, so the id can
// label prerelease versions.
var streamIDPattern = regexp.MustCompile(`^(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)$`)

type compiledStream struct {
	stream  ReleaseStream
	pattern *regexp.Regexp
}

// StreamResolver maps branch names to release streams.
type StreamResolver struct {
	streams []compiledStream
}

// NewStreamResolver compiles the patterns of streams. An empty list selects
// the default catalog.
func NewStreamResolver(streams []ReleaseStream) (*StreamResolver, error) {
	if len(streams) == 0 {
		streams = DefaultReleaseStreams()
	}
	r := &StreamResolver{streams: make([]compiledStream, 0, len(streams))}
	for _, s := range streams {
		if s.ID == "" {
			return nil, fmt.Errorf("release stream for branch %q has no id", s.BranchName+s.BranchNamePattern)
		}
		if !streamIDPattern.MatchString(s.ID) {
			return nil, fmt.Errorf("release stream id %q is not a valid prerelease identifier", s.ID)
		}
		if s.BranchName == "" && s.BranchNamePattern == "" {
			return nil, fmt.Errorf("release stream %q needs a branch name or pattern", s.ID)
		}
		cs := compiledStream{stream: s}
		if s.BranchNamePattern != "" {
			re, err := regexp.Compile(s.BranchNamePattern)
			if err != nil {
				return nil, fmt.Errorf("release stream %q: invalid branch pattern: %w", s.ID, err)
			}
			cs.pattern = re
		}
		r.streams = append(r.streams, cs)
	}
	return r, nil
}

// Resolve returns the stream for branch. Exact branch names are checked before
// patterns; patterns are tried in declaration order. It reports false when the
// branch is not managed.
func (r *StreamResolver) Resolve(branch string) (ReleaseStream, bool) {
	for _, cs := range r.streams {
		if cs.stream.BranchName != "" && cs.stream.BranchName == branch {
			return cs.stream, true
		}
	}
	for _, cs := range r.streams {
		if cs.pattern != nil && cs.pattern.MatchString(branch) {
			return cs.stream, true
		}
	}
	return ReleaseStream{}, false
}
