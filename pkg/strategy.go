package nextversion

import (
	"context"
	"fmt"
)

// Aggregate returns the largest release implied by commits. Commits of an
// unrecognized type are ignored unless every commit is unrecognized, in which
// case the result is Unknown. No commits means None.
func Aggregate(commits []ConventionalCommit) ReleaseType {
	if len(commits) == 0 {
		return None
	}
	result := Unknown
	for _, c := range commits {
		if c.Release > result {
			result = c.Release
		}
	}
	return result
}

// Strategy decides the release type for a set of commits.
type Strategy struct {
	Parser *Parser
	// ZeroMajorRelease replaces Major while the baseline is below 1.0.0.
	ZeroMajorRelease ReleaseType
}

// NewStrategy returns a Strategy using parser and the default version zero
// policy of downgrading breaking changes to Minor.
func NewStrategy(parser *Parser) *Strategy {
	if parser == nil {
		parser = NewParser(nil)
	}
	return &Strategy{Parser: parser, ZeroMajorRelease: Minor}
}

// Decide aggregates commits and applies version zero damping. A nil baseline
// means nothing has been released yet.
func (s *Strategy) Decide(commits []ConventionalCommit, baseline *SemanticVersion) ReleaseType {
	release := Aggregate(commits)
	if release == Major && (baseline == nil || baseline.Major == 0) {
		return s.ZeroMajorRelease
	}
	return release
}

// Get reads the commits made since baseline, or all commits when baseline is
// nil, and decides the release type for them.
func (s *Strategy) Get(ctx context.Context, vc VersionControl, baseline *SemanticVersion, tagPrefix string) (ReleaseType, error) {
	since := ""
	if baseline != nil {
		since = baseline.Tag(tagPrefix)
	}
	messages, err := vc.CommitMessages(ctx, since)
	if err != nil {
		return Unknown, fmt.Errorf("reading commits since %q: %w", since, err)
	}
	return s.Decide(s.Parser.ParseAll(messages), baseline), nil
}
