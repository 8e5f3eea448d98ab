package setlistfm

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydlexius/encore/internal/provider"
)

const setlistFixture = `{
  "type": "setlists",
  "itemsPerPage": 20,
  "page": 1,
  "total": 1,
  "setlist": [{
    "id": "63de4613",
    "eventDate": "13-07-1985",
    "artist": {"mbid": "0383dadf-2a4e-4d10-a46a-e9e041da8eb3", "name": "Queen"},
    "venue": {"name": "Wembley Stadium", "city": {"name": "London"}},
    "tour": {"name": "Live Aid"},
    "sets": {"set": [
      {"song": [{"name": "Bohemian Rhapsody"}, {"name": "Radio Ga Ga"}, {"name": ""}]},
      {"encore": 1, "song": [{"name": "We Are the Champions"}]}
    ]}
  }]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, seen *url.Values) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = r.URL.Query()
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("Accept") != "application/json" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("artistName") != "Queen" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(setlistFixture)) //nolint:errcheck
	}))
}

func TestSetlistByDate(t *testing.T) {
	var seen url.Values
	srv := newTestServer(t, &seen)
	defer srv.Close()

	a := NewWithBaseURL(nil, "test-key", testLogger(), srv.URL)
	s, err := a.SetlistByDate(context.Background(), "Queen", time.Date(1985, 7, 13, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "13-07-1985", seen.Get("date"))
	assert.Equal(t, "Live Aid", s.Tour)
	assert.Equal(t, []string{"Bohemian Rhapsody", "Radio Ga Ga", "We Are the Champions"}, s.Songs)
	assert.Equal(t, "Tour: Live Aid\n1. Bohemian Rhapsody\n2. Radio Ga Ga\n3. We Are the Champions", s.Text())
}

func TestSetlistByTour(t *testing.T) {
	var seen url.Values
	srv := newTestServer(t, &seen)
	defer srv.Close()

	a := NewWithBaseURL(nil, "test-key", testLogger(), srv.URL)
	_, err := a.SetlistByTour(context.Background(), "Queen", "Magic", "1986")
	require.NoError(t, err)

	assert.Equal(t, "Magic", seen.Get("tourName"))
	assert.Equal(t, "1986", seen.Get("year"))
	assert.Equal(t, "1", seen.Get("p"))

	_, err = a.SetlistByTour(context.Background(), "Queen", "Magic", "")
	require.NoError(t, err)
	assert.False(t, seen.Has("year"))
}

func TestSetlistNotFound(t *testing.T) {
	var seen url.Values
	srv := newTestServer(t, &seen)
	defer srv.Close()

	a := NewWithBaseURL(nil, "test-key", testLogger(), srv.URL)
	_, err := a.SetlistByTour(context.Background(), "Nobody", "Nothing", "")
	assert.Equal(t, provider.StatusNotFound, provider.Classify(err))
}

func TestSetlistNoKey(t *testing.T) {
	a := New(nil, "", testLogger())
	_, err := a.SetlistByDate(context.Background(), "Queen", time.Now())
	assert.Equal(t, provider.StatusUnavailable, provider.Classify(err))
}
