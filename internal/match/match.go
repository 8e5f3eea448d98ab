// Package match decides whether a provider's hit describes the same work as
// the asset being resolved.
package match

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Thresholds used when the configuration does not override them.
const (
	// DefaultAcceptThreshold is the minimum score for a candidate to be
	// accepted without human review.
	DefaultAcceptThreshold = 0.70

	// DefaultArtistPrefixThreshold is the minimum folded similarity between
	// a release title's leading segment and the artist before the segment
	// is treated as an "Artist - " prefix.
	DefaultArtistPrefixThreshold = 0.75
)

var (
	parenthetical    = regexp.MustCompile(`\s*\(.*?\)`)
	leadingSeparator = regexp.MustCompile(`^[\s\-]+`)
)

// Similarity is a score in [0, 1] together with the normalized strings it
// was computed from.
type Similarity struct {
	Score     float64 `json:"score"`
	Query     string  `json:"query"`
	Candidate string  `json:"candidate"`
}

// Compare scores candidate against query. The query loses parenthetical
// qualifiers such as "(Live)"; both sides are lower-cased and, when artist
// is non-empty, have the artist's name and any separator it leaves behind
// removed. A non-empty substring relation scores 1.0, otherwise the result
// is an edit-distance ratio.
func Compare(query, candidate, artist string) Similarity {
	if query == "" || candidate == "" {
		return Similarity{}
	}

	q := strings.TrimSpace(strings.ToLower(parenthetical.ReplaceAllString(query, "")))
	c := strings.TrimSpace(strings.ToLower(candidate))

	if a := strings.TrimSpace(strings.ToLower(artist)); a != "" {
		q = stripArtist(q, a)
		c = stripArtist(c, a)
	}

	s := Similarity{Query: q, Candidate: c}
	if q != "" && c != "" && (strings.Contains(q, c) || strings.Contains(c, q)) {
		s.Score = 1
		return s
	}
	s.Score = Ratio(q, c)
	return s
}

// Score is Compare without the normalized strings.
func Score(query, candidate, artist string) float64 {
	return Compare(query, candidate, artist).Score
}

// Ratio returns 1 - distance/longest over runes. Two empty strings are
// identical; one empty string shares nothing with the other.
func Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

func stripArtist(s, artist string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, artist, ""))
	return leadingSeparator.ReplaceAllString(s, "")
}

// Fold lower-cases s and strips combining marks after canonical
// decomposition, so "Björk" folds to "bjork".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// StripArtistPrefix removes a leading "Artist - " segment from title when
// the segment matches artist after folding, either exactly or with a ratio
// above threshold. Titles without a " - " separator are returned unchanged.
func StripArtistPrefix(title, artist string, threshold float64) string {
	head, tail, ok := strings.Cut(title, " - ")
	if !ok || strings.TrimSpace(artist) == "" {
		return title
	}
	prefix := Fold(strings.TrimSpace(head))
	want := Fold(strings.TrimSpace(artist))
	if prefix == want || Ratio(prefix, want) > threshold {
		return strings.TrimSpace(tail)
	}
	return title
}

// Gate is the acceptance check applied wherever a candidate is picked
// automatically.
type Gate struct {
	Threshold float64
}

// NewGate returns a Gate with the given threshold, falling back to
// DefaultAcceptThreshold when threshold is not in (0, 1].
func NewGate(threshold float64) Gate {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultAcceptThreshold
	}
	return Gate{Threshold: threshold}
}

// Check scores the pair and reports whether it clears the threshold.
func (g Gate) Check(query, candidate, artist string) (Similarity, bool) {
	s := Compare(query, candidate, artist)
	return s, s.Score >= g.Threshold
}
