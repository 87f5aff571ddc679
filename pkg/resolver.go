package nextversion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var (
	ErrPackageRequired   = errors.New("package name is required")
	ErrPackageNotAllowed = errors.New("package name must be empty when versioning a repository")
	ErrDirectoryRequired = errors.New("directory is required")
	ErrDirectoryNotFound = errors.New("directory does not exist")
	ErrRegistryRequired  = errors.New("a package registry is required")
	ErrCollisionLimit    = errors.New("could not find a free version")
)

// DefaultTagPrefix is the prefix of version tags.
const DefaultTagPrefix = "v"

// Outcome says how a resolution ended.
type Outcome int

const (
	// OutcomeResolved means a new version was computed.
	OutcomeResolved Outcome = iota
	// OutcomeUnchanged means nothing changed since the last published
	// version, which is returned as is (and may be absent).
	OutcomeUnchanged
	// OutcomeUnmanaged means the branch does not belong to any release stream.
	OutcomeUnmanaged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeUnmanaged:
		return "unmanaged"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Request selects what to version.
type Request struct {
	// Package is the published package name. It must be empty for ResolveRepository.
	Package string
	// Directory holds the package sources. ResolveRepository defaults it to the working directory.
	Directory string
	// Branch defaults to the current branch.
	Branch string
}

// Result is the outcome of a resolution. Version is nil when no version applies.
type Result struct {
	Outcome     Outcome
	Version     *SemanticVersion
	Branch      string
	Stream      *ReleaseStream
	ReleaseType ReleaseType
}

// Resolver computes the next version of a repository or of a package inside it.
type Resolver struct {
	vc        VersionControl
	registry  Registry
	streams   *StreamResolver
	strategy  *Strategy
	tagPrefix string
	logger    *log.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRegistry sets the registry queried for published package versions.
func WithRegistry(r Registry) Option {
	return func(res *Resolver) { res.registry = r }
}

// WithStreams replaces the default stream catalog.
func WithStreams(s *StreamResolver) Option {
	return func(res *Resolver) { res.streams = s }
}

// WithStrategy replaces the default release type strategy.
func WithStrategy(s *Strategy) Option {
	return func(res *Resolver) { res.strategy = s }
}

// WithTagPrefix sets the prefix stripped from and added to version tags.
func WithTagPrefix(prefix string) Option {
	return func(res *Resolver) { res.tagPrefix = prefix }
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(res *Resolver) { res.logger = l }
}

// NewResolver returns a Resolver reading history from vc. Unset options fall
// back to the default stream catalog, the default commit types and the "v"
// tag prefix.
func NewResolver(vc VersionControl, opts ...Option) (*Resolver, error) {
	r := &Resolver{vc: vc, tagPrefix: DefaultTagPrefix}
	for _, opt := range opts {
		opt(r)
	}
	if r.streams == nil {
		streams, err := NewStreamResolver(nil)
		if err != nil {
			return nil, err
		}
		r.streams = streams
	}
	if r.strategy == nil {
		r.strategy = NewStrategy(nil)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r, nil
}

// ResolvePackage computes the next version of a published package.
//
// Only published versions tagged on the branch count as releases. When no file
// below the package directory changed since the latest of them, that version is
// returned unchanged. Otherwise the commits since that release decide the bump.
func (r *Resolver) ResolvePackage(ctx context.Context, req Request) (Result, error) {
	if req.Package == "" {
		return Result{}, ErrPackageRequired
	}
	if err := checkDirectory(req.Directory); err != nil {
		return Result{}, err
	}
	if r.registry == nil {
		return Result{}, ErrRegistryRequired
	}
	logger := r.logger.With("package", req.Package)

	res, stream, err := r.resolveStream(ctx, req.Branch, logger)
	if err != nil || stream == nil {
		return res, err
	}

	branchVersions, err := r.branchVersions(ctx, res.Branch)
	if err != nil {
		return res, err
	}
	published, err := r.registry.PublishedVersions(ctx, req.Package, true)
	if err != nil {
		return res, fmt.Errorf("reading published versions of %s: %w", req.Package, err)
	}
	if len(published) == 0 {
		logger.Warn("No published version")
	}
	latestPublished := latestPublishedOnBranch(branchVersions, published)
	since := ""
	if latestPublished == nil {
		logger.Warn("No published version on branch", "branch", res.Branch)
	} else {
		since = latestPublished.Tag(r.tagPrefix)
		logger.Debug("Last published version on branch", "version", latestPublished.String())
	}

	changed, err := r.vc.ChangedFiles(ctx, req.Directory, since)
	if err != nil {
		return res, fmt.Errorf("listing changed files: %w", err)
	}
	if len(changed) == 0 {
		logger.Info("No changes since the last published version")
		res.Outcome = OutcomeUnchanged
		res.Version = latestPublished
		return res, nil
	}
	logger.Debug("Files changed since the last published version", "count", len(changed))

	return r.resolveNext(ctx, res, *stream, branchVersions, latestPublished, logger)
}

// ResolveRepository computes the next version of the repository as a whole.
// The commit range starts at the latest non prerelease version on the branch.
func (r *Resolver) ResolveRepository(ctx context.Context, req Request) (Result, error) {
	if req.Package != "" {
		return Result{}, ErrPackageNotAllowed
	}
	if req.Directory != "" {
		if err := checkDirectory(req.Directory); err != nil {
			return Result{}, err
		}
	}
	res, stream, err := r.resolveStream(ctx, req.Branch, r.logger)
	if err != nil || stream == nil {
		return res, err
	}
	branchVersions, err := r.branchVersions(ctx, res.Branch)
	if err != nil {
		return res, err
	}
	var baseline *SemanticVersion
	for _, v := range branchVersions {
		if !v.IsPreRelease() {
			baseline = &v
			break
		}
	}
	if baseline != nil {
		r.logger.Debug("Last version on branch", "version", baseline.String())
	}
	return r.resolveNext(ctx, res, *stream, branchVersions, baseline, r.logger)
}

func checkDirectory(dir string) error {
	if dir == "" {
		return ErrDirectoryRequired
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}
	return nil
}

func (r *Resolver) resolveStream(ctx context.Context, branch string, logger *log.Logger) (Result, *ReleaseStream, error) {
	if branch == "" {
		current, err := r.vc.CurrentBranch(ctx)
		if err != nil {
			return Result{}, nil, fmt.Errorf("reading current branch: %w", err)
		}
		branch = current
	}
	res := Result{Branch: branch}
	stream, ok := r.streams.Resolve(branch)
	if !ok {
		logger.Info("Branch is not a release stream", "branch", branch)
		res.Outcome = OutcomeUnmanaged
		return res, nil, nil
	}
	res.Stream = &stream
	return res, &stream, nil
}

func (r *Resolver) branchVersions(ctx context.Context, branch string) ([]SemanticVersion, error) {
	tags, err := r.vc.TagsOnBranch(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("reading tags on %s: %w", branch, err)
	}
	return ParseTags(tags, r.tagPrefix), nil
}

func latestPublishedOnBranch(branchVersions, published []SemanticVersion) *SemanticVersion {
	set := make(map[SemanticVersion]bool, len(published))
	for _, v := range published {
		set[v] = true
	}
	// branchVersions is sorted highest first.
	for _, v := range branchVersions {
		if set[v] {
			return &v
		}
	}
	return nil
}

func (r *Resolver) resolveNext(ctx context.Context, res Result, stream ReleaseStream, branchVersions []SemanticVersion, baseline *SemanticVersion, logger *log.Logger) (Result, error) {
	releaseType, err := r.strategy.Get(ctx, r.vc, baseline, r.tagPrefix)
	if err != nil {
		return res, err
	}
	logger.Debug("Release type", "type", releaseType)
	res.ReleaseType = releaseType

	repoTags, err := r.vc.Tags(ctx)
	if err != nil {
		return res, fmt.Errorf("reading repository tags: %w", err)
	}
	headTags, err := r.vc.TagsPointingAt(ctx, res.Branch)
	if err != nil {
		return res, fmt.Errorf("reading tags at %s: %w", res.Branch, err)
	}

	in := Input{
		BranchVersions:     branchVersions,
		RepositoryVersions: ParseTags(repoTags, r.tagPrefix),
		HeadVersions:       ParseTags(headTags, r.tagPrefix),
		ReleaseType:        releaseType,
		Stream:             stream,
	}
	next, err := NextVersion(in)
	if err != nil {
		return res, err
	}
	res.Outcome = OutcomeResolved
	res.Version = &next
	return res, nil
}

// Input is the state NextVersion works on.
type Input struct {
	// BranchVersions are the versions tagged on the branch, highest first.
	BranchVersions []SemanticVersion
	// RepositoryVersions are all the versions tagged anywhere in the repository.
	RepositoryVersions []SemanticVersion
	// HeadVersions are the versions tagged on the tip of the branch.
	HeadVersions []SemanticVersion
	ReleaseType  ReleaseType
	Stream       ReleaseStream
}

// NextVersion bumps the highest branch version by in.ReleaseType, skipping
// versions already tagged elsewhere in the repository. A version tagged on the
// branch tip is reused rather than skipped. Prerelease streams then get a
// prerelease counter under the stream id.
func NextVersion(in Input) (SemanticVersion, error) {
	var version SemanticVersion
	if len(in.BranchVersions) > 0 {
		version = in.BranchVersions[0]
	}
	latestReleaseType := version.ReleaseType()
	if version.IsPreRelease() {
		version = SemanticVersion{Major: version.Major, Minor: version.Minor, Patch: version.Patch}
	}
	if in.ReleaseType > latestReleaseType {
		version = Bump(version, in.ReleaseType)
	}

	repo := versionSet(in.RepositoryVersions)
	head := versionSet(in.HeadVersions)
	taken := func(v SemanticVersion) bool {
		return repo[v] && !head[v]
	}
	limit := len(in.RepositoryVersions) + 2

	for i := 0; taken(version); i++ {
		if i >= limit {
			return SemanticVersion{}, fmt.Errorf("%w after %s", ErrCollisionLimit, version)
		}
		version = Bump(version, in.ReleaseType)
	}
	if !in.Stream.IsPreRelease {
		return version, nil
	}

	version = BumpPreRelease(version, in.Stream.ID)
	for i := 0; taken(version); i++ {
		if i >= limit {
			return SemanticVersion{}, fmt.Errorf("%w after %s", ErrCollisionLimit, version)
		}
		version = BumpPreRelease(version, in.Stream.ID)
	}
	return version, nil
}

func versionSet(versions []SemanticVersion) map[SemanticVersion]bool {
	set := make(map[SemanticVersion]bool, len(versions))
	for _, v := range versions {
		set[v] = true
	}
	return set
}
