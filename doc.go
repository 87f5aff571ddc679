// Package main implements the nextversion CLI tool.
//
// nextversion computes the next semantic version of a git repository, or of a
// package published from a directory inside it, from three inputs: the release
// tags reachable from the branch, the versions already published to a registry,
// and the Conventional Commits made since the last release. The branch selects
// a release stream that decides whether the version is a release, a prerelease
// (1.3.0-beta.2) or no version at all.
//
// Command Usage:
//
//	nextversion version [flags]
//	nextversion package-version --package <name> [flags]
//
// Flags:
//
//	--dir:                Directory to version. Defaults to the working directory.
//	--branch:             Branch to version. Defaults to the checked out branch.
//	--config:             Config file. Defaults to .nextversion.yaml in --dir or the
//	                      working directory.
//	--output, -o:         text (the version only), json or yaml.
//	--tag:                Tag HEAD with a newly resolved version.
//	--stamp-file:         Write the version into a file. May be repeated. A go.mod
//	                      gets its /vN module suffix updated instead.
//	--dry:                Report stamps and tags without writing anything.
//	--tag-prefix:         Prefix of release tags (default "v").
//	--zero-major-release: Release type a breaking change gets below 1.0.0.
//	--log-level:          debug, info, warn or error. Logs go to stderr.
//
// package-version adds --package, --registry (nuget or goproxy), --feed and
// --token. Every setting can also come from NEXTVERSION_* environment
// variables, for example NEXTVERSION_REGISTRY_TOKEN.
//
// Examples:
//
//	# Next version of the repository on the current branch
//	nextversion version
//
//	# Next prerelease on the beta branch, as json
//	nextversion version --branch beta -o json
//
//	# Next version of a NuGet package, tagging and stamping the project file
//	nextversion package-version --package Example.Package --dir src/Example.Package \
//	    --tag --stamp-file src/Example.Package/Example.Package.csproj
//
//	# Next version of the Go module in the working directory
//	nextversion package-version --registry goproxy --stamp-file go.mod
//
// For the library API see the "pkg" package or visit
// [PkgGoDev](https://pkg.go.dev/github.com/bcomnes/nextversion/pkg).
package main
