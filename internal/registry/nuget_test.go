package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	server       *httptest.Server
	indexHits    atomic.Int32
	lastAuth     atomic.Value
	registration string
}

func newFakeFeed(t *testing.T, registration string) *fakeFeed {
	t.Helper()
	f := &fakeFeed{registration: registration}
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/index.json", func(w http.ResponseWriter, r *http.Request) {
		f.indexHits.Add(1)
		f.lastAuth.Store(r.Header.Get("Authorization"))
		fmt.Fprintf(w, `{"version":"3.0.0","resources":[
			{"@id":"%[1]s/query","@type":"SearchQueryService"},
			{"@id":"%[1]s/registration/","@type":"RegistrationsBaseUrl"}
		]}`, f.server.URL)
	})
	mux.HandleFunc("/registration/example.package/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, f.registration)
	})
	mux.HandleFunc("/registration/example.package/page/2.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"catalogEntry":{"version":"2.0.0"}},{"catalogEntry":{"version":"2.1.0-beta.1"}}]}`)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeFeed) indexURL() string {
	return f.server.URL + "/v3/index.json"
}

const inlineRegistration = `{"count":1,"items":[{"items":[
	{"catalogEntry":{"version":"0.1.0"}},
	{"catalogEntry":{"version":"1.0.0"}},
	{"catalogEntry":{"version":"1.2.4-alpha.1"}},
	{"catalogEntry":{"version":"1.2.3"}},
	{"catalogEntry":{"version":"1.0"}}
]}]}`

func TestNuGetPublishedVersions(t *testing.T) {
	feed := newFakeFeed(t, inlineRegistration)
	client := NewNuGet(feed.indexURL(), "", feed.server.Client(), nil)

	versions, err := client.PublishedVersions(context.Background(), "Example.Package", true)
	require.NoError(t, err)
	var got []string
	for _, v := range versions {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"1.2.4-alpha.1", "1.2.3", "1.0.0", "0.1.0"}, got)

	versions, err = client.PublishedVersions(context.Background(), "Example.Package", false)
	require.NoError(t, err)
	assert.Len(t, versions, 3)
	assert.EqualValues(t, 1, feed.indexHits.Load(), "service index should be cached")
}

func TestNuGetPagedRegistration(t *testing.T) {
	feed := newFakeFeed(t, "")
	feed.registration = fmt.Sprintf(`{"items":[
		{"items":[{"catalogEntry":{"version":"1.0.0"}}]},
		{"@id":"%s/registration/example.package/page/2.json"}
	]}`, feed.server.URL)
	client := NewNuGet(feed.indexURL(), "", feed.server.Client(), nil)

	versions, err := client.PublishedVersions(context.Background(), "example.package", true)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "2.1.0-beta.1", versions[0].String())
}

func TestNuGetUnknownPackage(t *testing.T) {
	feed := newFakeFeed(t, inlineRegistration)
	client := NewNuGet(feed.indexURL(), "secret", feed.server.Client(), nil)

	versions, err := client.PublishedVersions(context.Background(), "Unknown", true)
	require.NoError(t, err)
	assert.Empty(t, versions)
	assert.Equal(t, "Bearer secret", feed.lastAuth.Load())
}

func TestNuGetFeedWithoutRegistrations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"resources":[{"@id":"x","@type":"SearchQueryService"}]}`)
	}))
	defer server.Close()

	versions, err := NewNuGet(server.URL, "", server.Client(), nil).PublishedVersions(context.Background(), "p", true)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestNuGetServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewNuGet(server.URL, "", server.Client(), nil).PublishedVersions(context.Background(), "p", true)
	assert.Error(t, err)
}

func TestNuGetConcurrentFirstUse(t *testing.T) {
	feed := newFakeFeed(t, inlineRegistration)
	client := NewNuGet(feed.indexURL(), "", feed.server.Client(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.PublishedVersions(context.Background(), "Example.Package", true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	// singleflight collapses overlapping loads; later calls hit the cache.
	assert.LessOrEqual(t, feed.indexHits.Load(), int32(8))
	_, err := client.PublishedVersions(context.Background(), "Example.Package", true)
	require.NoError(t, err)
	hits := feed.indexHits.Load()
	_, _ = client.PublishedVersions(context.Background(), "Example.Package", true)
	assert.Equal(t, hits, feed.indexHits.Load())
}

func TestNuGetCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var indexHits atomic.Int32
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/index.json", func(w http.ResponseWriter, r *http.Request) {
		if indexHits.Add(1) == 1 {
			close(entered)
		}
		<-release
		fmt.Fprintf(w, `{"resources":[{"@id":"%s/registration/","@type":"RegistrationsBaseUrl"}]}`, server.URL)
	})
	mux.HandleFunc("/registration/example.package/index.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, inlineRegistration)
	})
	server = httptest.NewServer(mux)
	defer server.Close()
	client := NewNuGet(server.URL+"/v3/index.json", "", server.Client(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.PublishedVersions(ctx, "Example.Package", true)
		firstErr <- err
	}()
	<-entered

	secondErr := make(chan error, 1)
	go func() {
		versions, err := client.PublishedVersions(context.Background(), "Example.Package", true)
		if err == nil && len(versions) != 4 {
			err = fmt.Errorf("got %d versions, expected 4", len(versions))
		}
		secondErr <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.NoError(t, <-secondErr)
	assert.EqualValues(t, 1, indexHits.Load(), "the cancelled caller's load should be shared, not retried")
}

func TestAuthorization(t *testing.T) {
	assert.Equal(t, "Bearer abc", authorization("abc"))
	assert.Equal(t, "Basic dXNlcjpwYXNz", authorization("Basic dXNlcjpwYXNz"))
}
