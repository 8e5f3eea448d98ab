package discogs

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydlexius/encore/internal/provider"
)

const searchFixture = `{
  "pagination": {"page": 1, "pages": 1, "per_page": 5, "items": 2},
  "results": [
    {
      "id": 1001,
      "type": "release",
      "title": "Björk - Army Of Me",
      "year": "1995",
      "genre": ["Electronic"],
      "thumb": "https://i.discogs.com/thumb.jpg",
      "cover_image": "https://i.discogs.com/cover.jpg"
    },
    {
      "id": 1002,
      "type": "release",
      "title": "Various - Army Of Me Remixes",
      "year": "",
      "genre": [],
      "thumb": "https://i.discogs.com/thumb2.jpg",
      "cover_image": ""
    }
  ]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, gotAuth *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotAuth != nil {
			*gotAuth = r.Header.Get("Authorization")
		}
		if r.URL.Path != "/database/search" || r.URL.Query().Get("type") != "release" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("q") == "Nobody Nothing" {
			w.Write([]byte(`{"pagination":{},"results":[]}`)) //nolint:errcheck
			return
		}
		w.Write([]byte(searchFixture)) //nolint:errcheck
	}))
}

func TestSearch(t *testing.T) {
	var auth string
	srv := newTestServer(t, &auth)
	defer srv.Close()

	a := NewWithBaseURL(nil, "k", "s", testLogger(), srv.URL)
	results, err := a.Search(context.Background(), provider.Query{Artist: "Bjork", Title: "Army Of Me"}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "Discogs key=k, secret=s", auth)

	c := results[0]
	assert.Equal(t, provider.NameDiscogs, c.Source)
	assert.Equal(t, provider.KindRelease, c.Kind)
	assert.Equal(t, "Army Of Me", c.Title)
	assert.Equal(t, "1995", c.Year)
	assert.Equal(t, "Electronic", c.Genre)
	assert.Equal(t, "https://i.discogs.com/cover.jpg", c.PosterURL)
	assert.Equal(t, "Release from Discogs: Army Of Me", c.Plot)
	assert.Empty(t, c.Album)
}

func TestSearchDefaults(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	a := NewWithBaseURL(nil, "k", "s", testLogger(), srv.URL)
	results, err := a.Search(context.Background(), provider.Query{Artist: "Bjork", Title: "Army Of Me"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	c := results[1]
	assert.Equal(t, "Various - Army Of Me Remixes", c.Title, "prefix kept when it is not the artist")
	assert.Equal(t, "Music", c.Genre)
	assert.Equal(t, "https://i.discogs.com/thumb2.jpg", c.PosterURL)
}

func TestSearchNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	a := NewWithBaseURL(nil, "k", "s", testLogger(), srv.URL)
	_, err := a.Search(context.Background(), provider.Query{Artist: "Nobody", Title: "Nothing"}, 1)
	assert.Equal(t, provider.StatusNotFound, provider.Classify(err))
}

func TestConfiguredNeedsKeyAndSecret(t *testing.T) {
	assert.False(t, New(nil, "k", "", testLogger()).Configured())
	assert.False(t, New(nil, "", "s", testLogger()).Configured())
	assert.True(t, New(nil, "k", "s", testLogger()).Configured())

	_, err := New(nil, "k", "", testLogger()).Search(context.Background(), provider.Query{Artist: "a", Title: "b"}, 1)
	var authErr *provider.ErrAuthRequired
	assert.ErrorAs(t, err, &authErr)
}

func TestSetPrefixThreshold(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	a := NewWithBaseURL(nil, "k", "s", testLogger(), srv.URL)
	a.SetPrefixThreshold(1)
	// "bjork" vs "bjrk" is below a threshold of 1 but not equal.
	results, err := a.Search(context.Background(), provider.Query{Artist: "Bjrk", Title: "Army Of Me"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Björk - Army Of Me", results[0].Title)
}
