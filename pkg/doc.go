// Package nextversion computes the next semantic version of a repository or
// of a package published from it.
//
// It provides:
//   - A SemVer 2.0.0 model with parsing, ordering and prerelease-aware bump helpers.
//   - A Conventional Commits parser and the catalog mapping commit types to release types.
//   - Release streams, which attach a release policy (stable, prerelease or a pinned
//     maintenance line) to branch names.
//   - A Resolver that combines tags, published versions and commit history into the
//     next version that does not collide with an existing tag.
//   - Helpers that stamp the resolved version into manifest files.
//
// Version control and package registries are reached through the VersionControl
// and Registry interfaces so the algorithm can run against fakes.
//
// Usage Example:
//
//	// vc is any VersionControl implementation, for example a wrapper
//	// around the git command line.
//	var vc nextversion.VersionControl = myRepo
//	resolver, err := nextversion.NewResolver(vc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := resolver.ResolveRepository(ctx, nextversion.Request{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res.Version != nil {
//	    fmt.Println(res.Version)
//	}
package nextversion
