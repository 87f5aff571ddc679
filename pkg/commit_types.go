package nextversion

import "strings"

// CommitType describes one Conventional Commit type and the release it implies.
type CommitType struct {
	ID             string
	AlternativeIDs []string
	Name           string
	Description    string
	Release        ReleaseType
	Priority       int
}

// CommitTypes is an ordered catalog of commit types.
type CommitTypes []CommitType

// DefaultCommitTypes returns the built-in catalog. Priority follows declaration order.
func DefaultCommitTypes() CommitTypes {
	types := CommitTypes{
		{ID: "major", Name: "Major Improvements", Description: "A major release", Release: Major},
		{ID: "breaking", Name: "Breaking Changes", Description: "A breaking change", Release: Major},
		{ID: "minor", Name: "Minor Improvements", Description: "A minor release", Release: Minor},
		{ID: "feat", AlternativeIDs: []string{"feature"}, Name: "New Features", Description: "A new feature", Release: Minor},
		{ID: "patch", Name: "Patch Improvements", Description: "A patch release", Release: Patch},
		{ID: "fix", AlternativeIDs: []string{"bug"}, Name: "Bug Fixes", Description: "A bug fix", Release: Patch},
		{ID: "perf", Name: "Performance Improvements", Description: "A code change that improves performance", Release: Patch},
		{ID: "build", Name: "Build Improvements", Description: "Changes that affect the build system", Release: Patch},
		{ID: "deps", Name: "Dependency Improvements", Description: "Changes to dependencies", Release: Patch},
		{ID: "docs", Name: "Documentation Improvements", Description: "Changes affecting the documentation", Release: Patch},
		{ID: "revert", Name: "Reversions", Description: "Reverting of previous changes", Release: Patch},
		{ID: "style", AlternativeIDs: []string{"styles"}, Name: "Style Improvements", Description: "Changes that do not affect the meaning of the code (white-space, formatting, etc)", Release: None},
		{ID: "refactor", Name: "Refactors", Description: "A code change that neither fixes a bug nor adds a feature", Release: None},
		{ID: "test", Name: "Test Improvements", Description: "Adding, removing or revising tests", Release: None},
		{ID: "ci", Name: "Continuous Integration Improvements", Description: "Changes to the CI pipeline", Release: None},
		{ID: "chore", Name: "Chores", Description: "Other changes that don't affect the meaning of the code", Release: None},
	}
	for i := range types {
		types[i].Priority = i
	}
	return types
}

// Lookup finds a type by id, falling back to alternative ids. Both comparisons
// ignore case. An id match anywhere in the catalog wins over an alternative id match.
func (c CommitTypes) Lookup(id string) (CommitType, bool) {
	for _, t := range c {
		if strings.EqualFold(t.ID, id) {
			return t, true
		}
	}
	for _, t := range c {
		for _, alt := range t.AlternativeIDs {
			if strings.EqualFold(alt, id) {
				return t, true
			}
		}
	}
	return CommitType{}, false
}
