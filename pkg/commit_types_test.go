package nextversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCommitTypes(t *testing.T) {
	types := DefaultCommitTypes()
	require.Len(t, types, 16)

	ids := make([]string, len(types))
	for i, ct := range types {
		ids[i] = ct.ID
		assert.Equal(t, i, ct.Priority, ct.ID)
		assert.NotEmpty(t, ct.Name, ct.ID)
	}
	assert.Equal(t, []string{
		"major", "breaking", "minor", "feat", "patch", "fix", "perf", "build",
		"deps", "docs", "revert", "style", "refactor", "test", "ci", "chore",
	}, ids)
}

func TestCommitTypesLookup(t *testing.T) {
	types := DefaultCommitTypes()
	tests := []struct {
		id       string
		expected string
		release  ReleaseType
	}{
		{"feat", "feat", Minor},
		{"FEAT", "feat", Minor},
		{"feature", "feat", Minor},
		{"Bug", "fix", Patch},
		{"styles", "style", None},
		{"breaking", "breaking", Major},
		{"docs", "docs", Patch},
		{"chore", "chore", None},
	}
	for _, tt := range tests {
		ct, ok := types.Lookup(tt.id)
		require.True(t, ok, tt.id)
		assert.Equal(t, tt.expected, ct.ID, tt.id)
		assert.Equal(t, tt.release, ct.Release, tt.id)
	}

	_, ok := types.Lookup("hmmmm")
	assert.False(t, ok)
}

func TestCommitTypesLookupPrefersID(t *testing.T) {
	types := CommitTypes{
		{ID: "first", AlternativeIDs: []string{"shared"}, Release: Patch},
		{ID: "shared", Release: Major},
	}
	ct, ok := types.Lookup("shared")
	require.True(t, ok)
	assert.Equal(t, Major, ct.Release)
}
