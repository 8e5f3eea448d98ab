package nfo

import (
	"slices"

	"github.com/sydlexius/encore/internal/provider"
)

// ToRecord converts a sidecar to a Record. Only the first genre is kept.
func ToRecord(n *VideoNFO) *provider.Record {
	rec := &provider.Record{
		Title:         n.Title,
		Artist:        n.Artist,
		Album:         n.Album,
		Year:          n.Year,
		Plot:          n.Plot,
		Director:      n.Director,
		PosterURL:     n.Poster(),
		FanartURL:     n.FanartURL(),
		MusicBrainzID: n.MusicBrainzArtistID,
		IsConcert:     n.Root == RootMovie,
		Date:          n.Premiered,
	}
	if len(n.Genres) > 0 {
		rec.Genre = n.Genres[0]
	}
	return rec
}

// FromRecord builds a sidecar for rec. When base is non-nil its unknown
// elements and extra genres are carried over so a rewrite does not drop
// data this package does not manage.
func FromRecord(rec *provider.Record, base *VideoNFO) *VideoNFO {
	n := &VideoNFO{
		Root:                RootMusicVideo,
		Title:               rec.Title,
		Artist:              rec.Artist,
		Album:               rec.Album,
		Plot:                rec.Plot,
		Year:                rec.Year,
		Premiered:           rec.Date,
		Director:            rec.Director,
		MusicBrainzArtistID: rec.MusicBrainzID,
	}
	if rec.IsConcert {
		n.Root = RootMovie
	}
	if rec.Genre != "" {
		n.Genres = []string{rec.Genre}
	}
	if rec.PosterURL != "" {
		n.Thumbs = []Thumb{{Aspect: "poster", Value: rec.PosterURL}}
	}
	if rec.FanartURL != "" {
		n.Fanart = &Fanart{Thumbs: []Thumb{{Value: rec.FanartURL}}}
	}

	if base != nil {
		for _, g := range base.Genres {
			if !slices.Contains(n.Genres, g) {
				n.Genres = append(n.Genres, g)
			}
		}
		n.ExtraElements = slices.Clone(base.ExtraElements)
	}
	return n
}
