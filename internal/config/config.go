// Package config loads nextversion settings from defaults, a .nextversion.yaml
// file, NEXTVERSION_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	nextversion "github.com/bcomnes/nextversion/pkg"
)

const (
	// AppName is the application name.
	AppName = "nextversion"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = ".nextversion"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "yaml"
	// EnvPrefix prefixes every environment variable the config reads.
	EnvPrefix = "NEXTVERSION"
)

// Registry kinds understood by the package-version command.
const (
	RegistryNuGet   = "nuget"
	RegistryGoProxy = "goproxy"
)

// Config is the merged nextversion configuration.
type Config struct {
	TagPrefix        string         `json:"tag_prefix" mapstructure:"tag_prefix"`
	ZeroMajorRelease string         `json:"zero_major_release" mapstructure:"zero_major_release"`
	LogLevel         string         `json:"log_level" mapstructure:"log_level"`
	Output           string         `json:"output" mapstructure:"output"`
	Registry         RegistryConfig `json:"registry" mapstructure:"registry"`
	Streams          []StreamConfig `json:"streams" mapstructure:"streams"`
	CommitTypes      []CommitType   `json:"commit_types" mapstructure:"commit_types"`
}

// RegistryConfig selects the package feed.
type RegistryConfig struct {
	Kind  string `json:"kind" mapstructure:"kind"`
	Feed  string `json:"feed" mapstructure:"feed"`
	Token string `json:"token" mapstructure:"token"`
}

// StreamConfig declares one release stream. Setting any stream replaces the
// built-in catalog.
type StreamConfig struct {
	ID         string `json:"id" mapstructure:"id"`
	Branch     string `json:"branch" mapstructure:"branch"`
	Pattern    string `json:"pattern" mapstructure:"pattern"`
	Primary    bool   `json:"primary" mapstructure:"primary"`
	PreRelease bool   `json:"prerelease" mapstructure:"prerelease"`
}

// CommitType declares one commit type. Setting any type replaces the built-in
// catalog; priority follows list order.
type CommitType struct {
	ID          string   `json:"id" mapstructure:"id"`
	Aliases     []string `json:"aliases" mapstructure:"aliases"`
	Name        string   `json:"name" mapstructure:"name"`
	Description string   `json:"description" mapstructure:"description"`
	Release     string   `json:"release" mapstructure:"release"`
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigFilePath, when set, is the only config file read and must exist.
	ConfigFilePath string
	// Dir is searched for .nextversion.yaml before the working directory.
	Dir string
	// Flags are bound over file and environment values. Flags the user did
	// not set do not override them.
	Flags *pflag.FlagSet
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"tag-prefix":         "tag_prefix",
	"zero-major-release": "zero_major_release",
	"log-level":          "log_level",
	"output":             "output",
	"registry":           "registry.kind",
	"feed":               "registry.feed",
	"token":              "registry.token",
}

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() *Config {
	return &Config{
		TagPrefix:        nextversion.DefaultTagPrefix,
		ZeroMajorRelease: nextversion.Minor.String(),
		LogLevel:         "warn",
		Output:           "text",
		Registry:         RegistryConfig{Kind: RegistryNuGet},
	}
}

// Load merges every configuration source and validates the result. It
// returns the path of the config file read, or "" when none was found.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("tag_prefix", defaults.TagPrefix)
	v.SetDefault("zero_major_release", defaults.ZeroMajorRelease)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("output", defaults.Output)
	v.SetDefault("registry.kind", defaults.Registry.Kind)
	v.SetDefault("registry.feed", defaults.Registry.Feed)
	v.SetDefault("registry.token", defaults.Registry.Token)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for flag, key := range flagKeys {
			if f := opts.Flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, "", fmt.Errorf("failed to bind flag %s: %w", flag, err)
				}
			}
		}
	}

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		for _, dir := range []string{opts.Dir, "."} {
			if dir == "" {
				continue
			}
			candidate := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
			if fileExists(candidate) {
				resolvedPath = candidate
				break
			}
		}
	}
	if resolvedPath != "" {
		v.SetConfigFile(resolvedPath)
		v.SetConfigType(ConfigFileExt)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config %s: %w", resolvedPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", displayPath(resolvedPath), err)
	}
	return &cfg, resolvedPath, nil
}

// Validate checks the values Load cannot type check.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.DampedRelease(); err != nil {
		errs = append(errs, err)
	}
	switch c.Registry.Kind {
	case RegistryNuGet, RegistryGoProxy:
	default:
		errs = append(errs, fmt.Errorf("unknown registry kind %q", c.Registry.Kind))
	}
	switch c.Output {
	case "text", "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q", c.Output))
	}
	if _, err := c.ReleaseStreams(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Types(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// DampedRelease is the release type a breaking change becomes below 1.0.0.
func (c *Config) DampedRelease() (nextversion.ReleaseType, error) {
	t, err := nextversion.ParseReleaseType(c.ZeroMajorRelease)
	if err != nil {
		return nextversion.Unknown, fmt.Errorf("zero_major_release: %w", err)
	}
	return t, nil
}

// ReleaseStreams builds the stream resolver, using the built-in catalog when
// no streams are configured.
func (c *Config) ReleaseStreams() (*nextversion.StreamResolver, error) {
	var streams []nextversion.ReleaseStream
	for _, s := range c.Streams {
		streams = append(streams, nextversion.ReleaseStream{
			ID:                s.ID,
			BranchName:        s.Branch,
			BranchNamePattern: s.Pattern,
			IsPrimary:         s.Primary,
			IsPreRelease:      s.PreRelease,
		})
	}
	return nextversion.NewStreamResolver(streams)
}

// Types returns the configured commit type catalog, or the built-in one.
func (c *Config) Types() (nextversion.CommitTypes, error) {
	if len(c.CommitTypes) == 0 {
		return nextversion.DefaultCommitTypes(), nil
	}
	types := make(nextversion.CommitTypes, 0, len(c.CommitTypes))
	for i, t := range c.CommitTypes {
		if t.ID == "" {
			return nil, fmt.Errorf("commit_types[%d]: missing id", i)
		}
		release, err := nextversion.ParseReleaseType(t.Release)
		if err != nil {
			return nil, fmt.Errorf("commit type %q: %w", t.ID, err)
		}
		types = append(types, nextversion.CommitType{
			ID:             t.ID,
			AlternativeIDs: t.Aliases,
			Name:           t.Name,
			Description:    t.Description,
			Release:        release,
			Priority:       i,
		})
	}
	return types, nil
}

// Strategy builds the release type strategy for the configured catalog.
func (c *Config) Strategy() (*nextversion.Strategy, error) {
	types, err := c.Types()
	if err != nil {
		return nil, err
	}
	damped, err := c.DampedRelease()
	if err != nil {
		return nil, err
	}
	strategy := nextversion.NewStrategy(nextversion.NewParser(types))
	strategy.ZeroMajorRelease = damped
	return strategy, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
