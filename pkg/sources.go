package nextversion

import "context"

// VersionControl is the read side of a repository the resolver works against.
// Refs passed in are tag names such as "v1.2.3". An empty since ref means
// "from the beginning of history".
type VersionControl interface {
	CurrentBranch(ctx context.Context) (string, error)
	// Tags lists every tag in the repository.
	Tags(ctx context.Context) ([]string, error)
	// TagsOnBranch lists the tags reachable from branch.
	TagsOnBranch(ctx context.Context, branch string) ([]string, error)
	// TagsPointingAt lists the tags that point directly at ref.
	TagsPointingAt(ctx context.Context, ref string) ([]string, error)
	CommitMessages(ctx context.Context, since string) ([]CommitMessage, error)
	// ChangedFiles lists the tracked files below dir that changed since the
	// given ref, or all tracked files below dir when since is empty.
	ChangedFiles(ctx context.Context, dir, since string) ([]string, error)
}

// Registry reports the versions of a package that have been published.
type Registry interface {
	PublishedVersions(ctx context.Context, name string, includePreRelease bool) ([]SemanticVersion, error)
}
