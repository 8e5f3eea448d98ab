package wikipedia

// Wikipedia REST API response types.

// SummaryResponse is the response from page/summary/{title}.
type SummaryResponse struct {
	Type         string      `json:"type"` // "standard", "disambiguation", ...
	Title        string      `json:"title"`
	DisplayTitle string      `json:"displaytitle"`
	Description  string      `json:"description"`
	Extract      string      `json:"extract"`
	ContentURLs  ContentURLs `json:"content_urls"`
}

// ContentURLs holds links to the rendered page.
type ContentURLs struct {
	Desktop struct {
		Page string `json:"page"`
	} `json:"desktop"`
}
