package audiodb

import "encoding/json"

// TheAudioDB API response types.

// TrackResponse is the top-level response from searchtrack.php.
// The API returns {"track": null} when nothing matches.
type TrackResponse struct {
	Track []json.RawMessage `json:"track"`
}

// AudioDBTrack represents a TheAudioDB track entity.
type AudioDBTrack struct {
	IDTrack          string `json:"idTrack"`
	Track            string `json:"strTrack"`
	Artist           string `json:"strArtist"`
	Album            string `json:"strAlbum"`
	DescriptionEN    string `json:"strDescriptionEN"`
	Year             string `json:"intYear"`
	MusicVidDirector string `json:"strMusicVidDirector"`
	Genre            string `json:"strGenre"`
	AlbumThumb       string `json:"strAlbumThumb"`
	TrackThumb       string `json:"strTrackThumb"`
	MusicVid         string `json:"strMusicVid"`
	MusicBrainzID    string `json:"strMusicBrainzArtistID"`
}
