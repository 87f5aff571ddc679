package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	nextversion "github.com/bcomnes/nextversion/pkg"
)

// DefaultGoProxy is the public Go module proxy.
const DefaultGoProxy = "https://proxy.golang.org"

// GoProxy reads the tagged versions of a Go module from a module proxy.
type GoProxy struct {
	base string
	http HTTPClient
}

var _ nextversion.Registry = (*GoProxy)(nil)

// NewGoProxy returns a client for the proxy at base, or the public proxy when base is empty.
func NewGoProxy(base string, httpClient HTTPClient) *GoProxy {
	if base == "" {
		base = DefaultGoProxy
	}
	if httpClient == nil {
		httpClient = DefaultHTTPClient()
	}
	return &GoProxy{base: strings.TrimRight(base, "/"), http: httpClient}
}

// PublishedVersions lists the versions the proxy knows for modulePath, highest first.
// Pseudo-versions are not listed by proxies and so never appear.
func (g *GoProxy) PublishedVersions(ctx context.Context, modulePath string, includePreRelease bool) ([]nextversion.SemanticVersion, error) {
	escaped, err := module.EscapePath(modulePath)
	if err != nil {
		return nil, fmt.Errorf("invalid module path %q: %w", modulePath, err)
	}
	body, err := get(ctx, g.http, fmt.Sprintf("%s/%s/@v/list", g.base, escaped), "text/plain", "")
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing versions of %s: %w", modulePath, err)
	}

	var versions []nextversion.SemanticVersion
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if !semver.IsValid(line) || semver.Canonical(line) != strings.SplitN(line, "+", 2)[0] {
			continue
		}
		v, ok := nextversion.Parse(line)
		if !ok || (!includePreRelease && v.IsPreRelease()) {
			continue
		}
		versions = append(versions, v)
	}
	nextversion.SortDescending(versions)
	return versions, nil
}
