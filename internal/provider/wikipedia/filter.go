package wikipedia

import "strings"

// Page is a fetched summary as seen by a PageFilter.
type Page struct {
	Title   string
	Type    string
	Extract string
}

// PageFilter decides whether a page is usable as plot text.
type PageFilter interface {
	Accept(p Page) bool
}

// FilterFunc adapts a function to PageFilter.
type FilterFunc func(p Page) bool

// Accept calls f.
func (f FilterFunc) Accept(p Page) bool { return f(p) }

// KeywordFilter rejects disambiguation pages and pages whose extract
// mentions none of Keywords. Matching is case-insensitive substring.
type KeywordFilter struct {
	Keywords              []string
	DisambiguationPhrases []string
}

// DefaultFilter returns the English and Italian music keyword set.
func DefaultFilter() KeywordFilter {
	return KeywordFilter{
		Keywords: []string{
			"album", "song", "concerto", "band", "canzone", "brano", "singolo",
			"gruppo", "musica", "rock", "pop", "metal", "jazz", "disco", "tour",
		},
		DisambiguationPhrases: []string{"may refer to", "può riferirsi a"},
	}
}

// Accept implements PageFilter.
func (f KeywordFilter) Accept(p Page) bool {
	if p.Type == "disambiguation" {
		return false
	}
	text := strings.ToLower(p.Extract)
	if text == "" {
		return false
	}
	for _, phrase := range f.DisambiguationPhrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			return false
		}
	}
	for _, kw := range f.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
