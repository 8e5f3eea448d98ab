package setlistfm

// setlist.fm REST 1.0 response types.

// SearchResponse is the top-level response from search/setlists.
type SearchResponse struct {
	Type         string    `json:"type"`
	ItemsPerPage int       `json:"itemsPerPage"`
	Page         int       `json:"page"`
	Total        int       `json:"total"`
	Setlists     []Setlist `json:"setlist"`
}

// Setlist is one performance.
type Setlist struct {
	ID        string `json:"id"`
	EventDate string `json:"eventDate"` // dd-MM-yyyy
	Artist    Artist `json:"artist"`
	Venue     Venue  `json:"venue"`
	Tour      *Tour  `json:"tour"`
	Sets      Sets   `json:"sets"`
}

// Artist is the performing artist.
type Artist struct {
	MBID string `json:"mbid"`
	Name string `json:"name"`
}

// Venue is where the performance took place.
type Venue struct {
	Name string `json:"name"`
	City struct {
		Name string `json:"name"`
	} `json:"city"`
}

// Tour names the tour a performance belongs to.
type Tour struct {
	Name string `json:"name"`
}

// Sets wraps the list of sets (main set, encores).
type Sets struct {
	Set []Set `json:"set"`
}

// Set is one block of songs.
type Set struct {
	Name   string `json:"name"`
	Encore int    `json:"encore"`
	Song   []Song `json:"song"`
}

// Song is a performed song.
type Song struct {
	Name string `json:"name"`
}
