package tmdb

import "encoding/json"

// TMDB API response types.

// SearchResponse is the top-level response from the search/movie endpoint.
// Results are kept raw so each hit can carry its untouched payload.
type SearchResponse struct {
	Page         int               `json:"page"`
	Results      []json.RawMessage `json:"results"`
	TotalResults int               `json:"total_results"`
}

// Movie is a single search/movie hit.
type Movie struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	Overview      string `json:"overview"`
	ReleaseDate   string `json:"release_date"`
	PosterPath    string `json:"poster_path"`
	BackdropPath  string `json:"backdrop_path"`
	GenreIDs      []int  `json:"genre_ids"`
}
