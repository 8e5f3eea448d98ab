package audiodb

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydlexius/encore/internal/provider"
)

const trackFixture = `{"track":[{
  "idTrack": "32793500",
  "strTrack": "Army of Me",
  "strArtist": "Björk",
  "strAlbum": "Post",
  "strDescriptionEN": "Army of Me is a song by Icelandic singer Björk.",
  "intYear": "1995",
  "strMusicVidDirector": "Michel Gondry",
  "strGenre": "Electronic",
  "strAlbumThumb": "https://r2.theaudiodb.com/images/media/album/thumb/post.jpg",
  "strTrackThumb": "https://r2.theaudiodb.com/images/media/track/thumb/army.jpg",
  "strMusicBrainzArtistID": "87c5dedd-371d-4a53-9f7f-80522fb7f3cb"
}]}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, wantKey string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/"+wantKey+"/searchtrack.php") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("t") {
		case "Army of Me":
			w.Write([]byte(trackFixture)) //nolint:errcheck
		case "broken":
			w.Write([]byte(`{"track": "nope"}`)) //nolint:errcheck
		default:
			w.Write([]byte(`{"track":null}`)) //nolint:errcheck
		}
	}))
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t, "secret")
	defer srv.Close()

	a := NewWithBaseURL(nil, "secret", testLogger(), srv.URL)
	results, err := a.Search(context.Background(), provider.Query{Artist: "Björk", Title: "Army of Me"}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	c := results[0]
	assert.Equal(t, provider.NameAudioDB, c.Source)
	assert.Equal(t, provider.KindMusicVideo, c.Kind)
	assert.Equal(t, "Army of Me", c.Title)
	assert.Equal(t, "Björk", c.Artist)
	assert.Equal(t, "Post", c.Album)
	assert.Equal(t, "1995", c.Year)
	assert.Equal(t, "Michel Gondry", c.Director)
	assert.Equal(t, "Electronic", c.Genre)
	assert.Contains(t, c.PosterURL, "post.jpg")
	assert.Contains(t, c.FanartURL, "army.jpg")
	assert.Equal(t, "87c5dedd-371d-4a53-9f7f-80522fb7f3cb", c.MusicBrainzID)
	assert.False(t, c.Record().IsConcert)
}

func TestSearchDefaultsToPublicKey(t *testing.T) {
	srv := newTestServer(t, PublicKey)
	defer srv.Close()

	a := NewWithBaseURL(nil, "", testLogger(), srv.URL)
	assert.True(t, a.Configured())
	_, err := a.Search(context.Background(), provider.Query{Artist: "Björk", Title: "Army of Me"}, 1)
	assert.NoError(t, err)
}

func TestSearchNullTrack(t *testing.T) {
	srv := newTestServer(t, PublicKey)
	defer srv.Close()

	a := NewWithBaseURL(nil, "", testLogger(), srv.URL)
	_, err := a.Search(context.Background(), provider.Query{Artist: "x", Title: "y"}, 1)
	assert.Equal(t, provider.StatusNotFound, provider.Classify(err))
}

func TestSearchShapeMismatch(t *testing.T) {
	srv := newTestServer(t, PublicKey)
	defer srv.Close()

	a := NewWithBaseURL(nil, "", testLogger(), srv.URL)
	_, err := a.Search(context.Background(), provider.Query{Artist: "x", Title: "broken"}, 1)
	var malformed *provider.ErrMalformedResponse
	assert.ErrorAs(t, err, &malformed)
	assert.Equal(t, provider.StatusNotFound, provider.Classify(err))
}
