package resolve

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sydlexius/encore/internal/provider"
)

// SetlistMarker heads a setlist block appended to plot text.
const SetlistMarker = "[SETLIST]"

// legacySetlistMarker is recognized on plots written by older tools.
const legacySetlistMarker = "[SCALETTA"

var (
	isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	tourStopWords = regexp.MustCompile(`(?i)\b(?:the movie|live|concert|film|tour)\b`)
	spaces        = regexp.MustCompile(`\s+`)
)

// HasSetlist reports whether plot already carries a setlist block.
func HasSetlist(plot string) bool {
	return strings.Contains(plot, SetlistMarker) || strings.Contains(plot, legacySetlistMarker)
}

// AppendSetlist appends a marked setlist block to plot.
func AppendSetlist(plot, text string) string {
	return plot + "\n\n" + SetlistMarker + "\n" + text
}

// TourName derives a setlist.fm tour name from a concert title by removing
// words such as "Live" and "Concert".
func TourName(title string) string {
	name := tourStopWords.ReplaceAllString(title, " ")
	return strings.Trim(spaces.ReplaceAllString(name, " "), " -–:")
}

// ParseDate parses a YYYY-MM-DD date. Anything else reports false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !isoDate.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FetchSetlist looks up a setlist by exact date when date is a full ISO
// date. When there is no date, or the date finds nothing, it falls back to
// the tour name derived from title and the given year. Transient failures
// of the date lookup are returned without a fallback.
func FetchSetlist(ctx context.Context, sp provider.SetlistProvider, artist, title, date, year string) (*provider.Setlist, error) {
	if d, ok := ParseDate(date); ok {
		s, err := sp.SetlistByDate(ctx, artist, d)
		if err == nil || provider.Classify(err) != provider.StatusNotFound {
			return s, err
		}
	}
	tour := TourName(title)
	if tour == "" {
		return nil, &provider.ErrNotFound{Provider: sp.Name(), ID: title}
	}
	return sp.SetlistByTour(ctx, artist, tour, year)
}
