package discogs

import "encoding/json"

// Discogs API response types.

// SearchResponse is the top-level response from the search endpoint.
type SearchResponse struct {
	Results    []json.RawMessage `json:"results"`
	Pagination Pagination        `json:"pagination"`
}

// SearchResult represents a single release hit. Titles come back as
// "Artist - Title".
type SearchResult struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Year        string   `json:"year"`
	Genre       []string `json:"genre"`
	Style       []string `json:"style"`
	Thumb       string   `json:"thumb"`
	CoverImage  string   `json:"cover_image"`
	ResourceURL string   `json:"resource_url"`
}

// Pagination holds pagination info.
type Pagination struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Items   int `json:"items"`
}
