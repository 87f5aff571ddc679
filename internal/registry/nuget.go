package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	nextversion "github.com/bcomnes/nextversion/pkg"
)

// DefaultNuGetFeed is the public NuGet v3 service index.
const DefaultNuGetFeed = "https://api.nuget.org/v3/index.json"

const registrationsResource = "RegistrationsBaseUrl"

// NuGet reads package versions from a NuGet v3 feed. The service index is
// fetched once and shared by concurrent callers.
type NuGet struct {
	feed   string
	token  string
	http   HTTPClient
	logger *log.Logger

	flight    singleflight.Group
	mu        sync.RWMutex
	resources []nugetResource
}

type nugetResource struct {
	ID   string `json:"@id"`
	Type string `json:"@type"`
}

type nugetIndex struct {
	Resources []nugetResource `json:"resources"`
}

type nugetRegistration struct {
	Items []nugetPage `json:"items"`
}

type nugetPage struct {
	ID    string      `json:"@id"`
	Items []nugetLeaf `json:"items"`
}

type nugetLeaf struct {
	CatalogEntry struct {
		Version string `json:"version"`
	} `json:"catalogEntry"`
}

// NewNuGet returns a client for feed, or the public feed when feed is empty.
// A nil httpClient selects DefaultHTTPClient and a nil logger discards output.
func NewNuGet(feed, token string, httpClient HTTPClient, logger *log.Logger) *NuGet {
	if feed == "" {
		feed = DefaultNuGetFeed
	}
	if httpClient == nil {
		httpClient = DefaultHTTPClient()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &NuGet{feed: feed, token: token, http: httpClient, logger: logger}
}

var _ nextversion.Registry = (*NuGet)(nil)

// PublishedVersions lists the versions of name on the feed, highest first.
// A package the feed does not know, or a feed without a registration
// resource, yields no versions. Entries that are not semantic versions are skipped.
func (n *NuGet) PublishedVersions(ctx context.Context, name string, includePreRelease bool) ([]nextversion.SemanticVersion, error) {
	base, err := n.resource(ctx, registrationsResource)
	if err != nil {
		return nil, err
	}
	if base == "" {
		n.logger.Error("Feed has no registration resource", "feed", n.feed)
		return nil, nil
	}

	url := fmt.Sprintf("%s/%s/index.json", strings.TrimRight(base, "/"), strings.ToLower(name))
	var reg nugetRegistration
	if err := n.getJSON(ctx, url, &reg); err != nil {
		if errors.Is(err, errNotFound) {
			n.logger.Debug("Package not found on feed", "package", name)
			return nil, nil
		}
		return nil, fmt.Errorf("reading registration of %s: %w", name, err)
	}

	var versions []nextversion.SemanticVersion
	for _, page := range reg.Items {
		leaves := page.Items
		if leaves == nil && page.ID != "" {
			// Large registrations link their pages instead of inlining them.
			var full nugetPage
			if err := n.getJSON(ctx, page.ID, &full); err != nil {
				return nil, fmt.Errorf("reading registration page %s: %w", page.ID, err)
			}
			leaves = full.Items
		}
		for _, leaf := range leaves {
			v, ok := nextversion.Parse(leaf.CatalogEntry.Version)
			if !ok {
				n.logger.Warn("Skipping unparseable version", "package", name, "version", leaf.CatalogEntry.Version)
				continue
			}
			if !includePreRelease && v.IsPreRelease() {
				continue
			}
			versions = append(versions, v)
		}
	}
	nextversion.SortDescending(versions)
	return versions, nil
}

// resource returns the @id of the first service index resource of the given
// type, or "" when the feed does not offer it.
func (n *NuGet) resource(ctx context.Context, typ string) (string, error) {
	resources, err := n.serviceIndex(ctx)
	if err != nil {
		return "", err
	}
	for _, r := range resources {
		if r.Type == typ {
			return r.ID, nil
		}
	}
	return "", nil
}

func (n *NuGet) serviceIndex(ctx context.Context) ([]nugetResource, error) {
	n.mu.RLock()
	cached := n.resources
	n.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	// The shared load ignores caller cancellation. Each caller stops waiting
	// on its own ctx.
	loadCtx := context.WithoutCancel(ctx)
	ch := n.flight.DoChan(n.feed, func() (interface{}, error) {
		var index nugetIndex
		if err := n.getJSON(loadCtx, n.feed, &index); err != nil {
			return nil, fmt.Errorf("reading service index %s: %w", n.feed, err)
		}
		resources := index.Resources
		if resources == nil {
			resources = []nugetResource{}
		}
		n.mu.Lock()
		n.resources = resources
		n.mu.Unlock()
		return resources, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]nugetResource), nil
	}
}

func (n *NuGet) getJSON(ctx context.Context, url string, out interface{}) error {
	body, err := get(ctx, n.http, url, "application/json", n.token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}
