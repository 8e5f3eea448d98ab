package nfo

// Root element names.
const (
	RootMovie      = "movie"
	RootMusicVideo = "musicvideo"
)

// VideoNFO represents a Kodi-compatible movie or musicvideo sidecar.
type VideoNFO struct {
	// Root is RootMovie for concerts and RootMusicVideo otherwise.
	Root                string
	Title               string
	Artist              string
	Album               string
	Plot                string
	Year                string
	Premiered           string
	Director            string
	Genres              []string
	MusicBrainzArtistID string
	Thumbs              []Thumb
	Fanart              *Fanart
	ExtraElements       []RawElement
}

// Thumb represents a thumbnail image reference.
type Thumb struct {
	Aspect  string `xml:"aspect,attr,omitempty"`
	Preview string `xml:"preview,attr,omitempty"`
	Value   string `xml:",chardata"`
}

// Fanart contains fanart image references.
type Fanart struct {
	Thumbs []Thumb `xml:"thumb,omitempty"`
}

// RawElement stores an unrecognized XML element for round-trip preservation.
type RawElement struct {
	Name string
	Raw  []byte
}

// Poster returns the first thumb with a poster aspect, or the first thumb.
func (n *VideoNFO) Poster() string {
	for _, t := range n.Thumbs {
		if t.Aspect == "poster" {
			return t.Value
		}
	}
	if len(n.Thumbs) > 0 {
		return n.Thumbs[0].Value
	}
	return ""
}

// FanartURL returns the first fanart thumb.
func (n *VideoNFO) FanartURL() string {
	if n.Fanart == nil || len(n.Fanart.Thumbs) == 0 {
		return ""
	}
	return n.Fanart.Thumbs[0].Value
}
