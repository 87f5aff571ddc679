package main

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bcomnes/nextversion/internal/config"
	"github.com/bcomnes/nextversion/internal/git"
	"github.com/bcomnes/nextversion/internal/registry"
	nextversion "github.com/bcomnes/nextversion/pkg"
)

// options holds the flags that are not merged through the config layer.
type options struct {
	configFile string
	dir        string
	branch     string
	tag        bool
	stampFiles []string
	dry        bool
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "nextversion",
		Short: "Compute the next semantic version from git history",
		Long: `nextversion computes the next semantic version of a repository, or of a
package published from it, from its release tags and Conventional Commits.

The branch selects a release stream: primary branches produce releases,
prerelease branches produce versions such as 1.3.0-beta.2, and branches
without a stream are left unversioned. The version is printed on stdout.

Examples:
  nextversion version
  nextversion version --branch beta --output json
  nextversion package-version --package Example.Package --dir src/Example.Package
  nextversion package-version --registry goproxy --tag --stamp-file package.json`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: .nextversion.yaml in --dir or the working directory)")
	flags.StringVar(&opts.dir, "dir", ".", "directory to version")
	flags.StringVar(&opts.branch, "branch", "", "branch to version (default: the current branch)")
	flags.BoolVar(&opts.tag, "tag", false, "tag HEAD with a newly resolved version")
	flags.StringArrayVar(&opts.stampFiles, "stamp-file", nil, "file to write the version into; may be repeated")
	flags.BoolVar(&opts.dry, "dry", false, "report stamps and tags without modifying files or the repository")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.StringP("output", "o", "text", "output format: text, json or yaml")
	flags.String("tag-prefix", nextversion.DefaultTagPrefix, "prefix of release tags")
	flags.String("zero-major-release", nextversion.Minor.String(), "release type breaking changes get below 1.0.0")

	root.AddCommand(newVersionCommand(opts), newPackageVersionCommand(opts))
	return root
}

func newVersionCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Compute the next version of the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "", false)
		},
	}
}

func newPackageVersionCommand(opts *options) *cobra.Command {
	var pkg string
	cmd := &cobra.Command{
		Use:   "package-version",
		Short: "Compute the next version of a published package",
		Long: `Compute the next version of a package published to a registry.

Only published versions tagged on the branch count as releases. When nothing
under --dir changed since the latest of them, that version is reported as
unchanged. With --registry goproxy the package defaults to the module path
declared in --dir/go.mod.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, pkg, true)
		},
	}
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "published package name")
	cmd.Flags().String("registry", config.RegistryNuGet, "registry kind: nuget or goproxy")
	cmd.Flags().String("feed", "", "registry feed URL (default: the public feed)")
	cmd.Flags().String("token", "", "registry access token")
	return cmd
}

// report is what the json and yaml outputs print.
type report struct {
	nextversion.BuildOutputs `yaml:",inline"`

	Tag    string                    `json:"tag,omitempty" yaml:"tag,omitempty"`
	Stamps []nextversion.StampReport `json:"stamps,omitempty" yaml:"stamps,omitempty"`

	// version is nil when no version applies; BuildOutputs then carries 0.0.0.
	version *nextversion.SemanticVersion
}

func run(cmd *cobra.Command, opts *options, pkg string, packageMode bool) error {
	ctx := cmd.Context()

	cfg, cfgPath, err := config.Load(config.LoadOptions{
		ConfigFilePath: opts.configFile,
		Dir:            opts.dir,
		Flags:          cmd.Flags(),
	})
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	if cfgPath != "" {
		logger.Debug("Loaded config", "path", cfgPath)
	}

	if err := git.Available(); err != nil {
		return err
	}
	repo, err := git.Open(ctx, opts.dir)
	if err != nil {
		return err
	}
	streams, err := cfg.ReleaseStreams()
	if err != nil {
		return err
	}
	strategy, err := cfg.Strategy()
	if err != nil {
		return err
	}
	resolverOpts := []nextversion.Option{
		nextversion.WithStreams(streams),
		nextversion.WithStrategy(strategy),
		nextversion.WithTagPrefix(cfg.TagPrefix),
		nextversion.WithLogger(logger),
	}

	var res nextversion.Result
	if packageMode {
		if pkg == "" && cfg.Registry.Kind == config.RegistryGoProxy {
			if pkg, err = nextversion.ModulePath(opts.dir); err != nil {
				return err
			}
		}
		resolverOpts = append(resolverOpts, nextversion.WithRegistry(newRegistry(cfg, logger)))
		resolver, err := nextversion.NewResolver(repo, resolverOpts...)
		if err != nil {
			return err
		}
		res, err = resolver.ResolvePackage(ctx, nextversion.Request{Package: pkg, Directory: opts.dir, Branch: opts.branch})
		if err != nil {
			return err
		}
	} else {
		resolver, err := nextversion.NewResolver(repo, resolverOpts...)
		if err != nil {
			return err
		}
		res, err = resolver.ResolveRepository(ctx, nextversion.Request{Directory: opts.dir, Branch: opts.branch})
		if err != nil {
			return err
		}
	}
	logger.Info("Resolved", "outcome", res.Outcome, "branch", res.Branch, "release", res.ReleaseType)

	out := report{BuildOutputs: nextversion.NewBuildOutputs(res), version: res.Version}
	if res.Version != nil && len(opts.stampFiles) > 0 {
		stamps, err := nextversion.StampFiles(opts.stampFiles, *res.Version, opts.dry)
		if err != nil {
			return err
		}
		for _, s := range stamps {
			if !s.Stamped {
				logger.Warn("No version declaration found", "file", s.File)
			}
		}
		out.Stamps = stamps
	}
	if opts.tag {
		tag, err := tagHead(cmd, repo, res, cfg.TagPrefix, opts.dry, logger)
		if err != nil {
			return err
		}
		out.Tag = tag
	}

	return writeOutput(cmd.OutOrStdout(), cfg.Output, out)
}

// tagHead tags HEAD with a newly resolved version and returns the tag name,
// or "" when there is nothing to tag.
func tagHead(cmd *cobra.Command, repo *git.Repo, res nextversion.Result, prefix string, dry bool, logger *log.Logger) (string, error) {
	if res.Outcome != nextversion.OutcomeResolved || res.Version == nil {
		logger.Info("Nothing to tag", "outcome", res.Outcome)
		return "", nil
	}
	name := res.Version.Tag(prefix)
	headTags, err := repo.TagsPointingAt(cmd.Context(), "HEAD")
	if err != nil {
		return "", err
	}
	if slices.Contains(headTags, name) {
		logger.Info("HEAD is already tagged", "tag", name)
		return name, nil
	}
	if dry {
		logger.Info("Would create tag", "tag", name)
		return name, nil
	}
	if err := repo.CreateTag(cmd.Context(), name); err != nil {
		return "", fmt.Errorf("failed to tag HEAD: %w", err)
	}
	logger.Info("Created tag", "tag", name)
	return name, nil
}

func newRegistry(cfg *config.Config, logger *log.Logger) nextversion.Registry {
	if cfg.Registry.Kind == config.RegistryGoProxy {
		return registry.NewGoProxy(cfg.Registry.Feed, nil)
	}
	return registry.NewNuGet(cfg.Registry.Feed, cfg.Registry.Token, nil, logger)
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("invalid log level %q", level), err)
	}
	return log.NewWithOptions(w, log.Options{Prefix: "nextversion", Level: lvl}), nil
}
