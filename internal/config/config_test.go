package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nextversion "github.com/bcomnes/nextversion/pkg"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, path, err := Load(LoadOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)

	streams, err := cfg.ReleaseStreams()
	require.NoError(t, err)
	s, ok := streams.Resolve("beta")
	require.True(t, ok)
	assert.True(t, s.IsPreRelease)

	types, err := cfg.Types()
	require.NoError(t, err)
	assert.Equal(t, nextversion.DefaultCommitTypes(), types)
}

func TestLoadFile(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	writeConfig(t, dir, `
tag_prefix: release-
zero_major_release: patch
registry:
  kind: goproxy
  feed: https://proxy.example.com
streams:
  - id: trunk
    branch: trunk
    primary: true
  - id: next
    pattern: ^next/.+$
    prerelease: true
commit_types:
  - id: feat
    release: minor
  - id: fix
    aliases: [bugfix]
    release: patch
`)

	cfg, path, err := Load(LoadOptions{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".nextversion.yaml"), path)
	assert.Equal(t, "release-", cfg.TagPrefix)
	assert.Equal(t, RegistryGoProxy, cfg.Registry.Kind)
	assert.Equal(t, "https://proxy.example.com", cfg.Registry.Feed)

	streams, err := cfg.ReleaseStreams()
	require.NoError(t, err)
	_, ok := streams.Resolve("main")
	assert.False(t, ok, "configured streams replace the defaults")
	s, ok := streams.Resolve("next/widgets")
	require.True(t, ok)
	assert.Equal(t, "next", s.ID)

	types, err := cfg.Types()
	require.NoError(t, err)
	require.Len(t, types, 2)
	bug, ok := types.Lookup("BugFix")
	require.True(t, ok)
	assert.Equal(t, nextversion.Patch, bug.Release)
	assert.Equal(t, 1, bug.Priority)

	strategy, err := cfg.Strategy()
	require.NoError(t, err)
	assert.Equal(t, nextversion.Patch, strategy.ZeroMajorRelease)
}

func TestLoadPrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	writeConfig(t, dir, "tag_prefix: file-\nregistry:\n  token: from-file\n")
	t.Setenv("NEXTVERSION_TAG_PREFIX", "env-")
	t.Setenv("NEXTVERSION_REGISTRY_FEED", "https://feed.example.com/index.json")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("tag-prefix", "v", "")
	flags.String("token", "", "")
	flags.String("output", "text", "")
	require.NoError(t, flags.Parse([]string{"--output", "json"}))

	cfg, _, err := Load(LoadOptions{Dir: dir, Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "env-", cfg.TagPrefix, "unset flags do not override the environment")
	assert.Equal(t, "from-file", cfg.Registry.Token)
	assert.Equal(t, "https://feed.example.com/index.json", cfg.Registry.Feed)
	assert.Equal(t, "json", cfg.Output)

	require.NoError(t, flags.Parse([]string{"--tag-prefix", "flag-"}))
	cfg, _, err = Load(LoadOptions{Dir: dir, Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "flag-", cfg.TagPrefix)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: yaml\n"), 0o644))

	cfg, resolved, err := Load(LoadOptions{ConfigFilePath: path})
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "yaml", cfg.Output)

	_, _, err = Load(LoadOptions{ConfigFilePath: filepath.Join(dir, "missing.yaml")})
	assert.ErrorContains(t, err, "config file not found")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"damped release", func(c *Config) { c.ZeroMajorRelease = "huge" }, "zero_major_release"},
		{"registry", func(c *Config) { c.Registry.Kind = "npm" }, `unknown registry kind "npm"`},
		{"output", func(c *Config) { c.Output = "xml" }, `unknown output format "xml"`},
		{"stream pattern", func(c *Config) {
			c.Streams = []StreamConfig{{ID: "bad", Pattern: "("}}
		}, "invalid branch pattern"},
		{"stream id", func(c *Config) {
			c.Streams = []StreamConfig{{ID: "feature/x", Branch: "next", PreRelease: true}}
		}, "not a valid prerelease identifier"},
		{"commit type release", func(c *Config) {
			c.CommitTypes = []CommitType{{ID: "feat", Release: "sometimes"}}
		}, `commit type "feat"`},
		{"commit type id", func(c *Config) {
			c.CommitTypes = []CommitType{{Release: "minor"}}
		}, "missing id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
