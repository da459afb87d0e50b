// Package match implements the content matching and ranking engine: title
// normalization, token-overlap similarity scoring, quality/source tag
// extraction, and multi-criterion candidate ranking.
package match

import "strings"

// stopTokens are release-name noise stripped during normalization: encode
// quality markers, dub/language markers, and series-structure words. Matched
// as whole tokens after punctuation has been folded to spaces.
var stopTokens = map[string]struct{}{
	// quality
	"hdtv": {}, "1080p": {}, "720p": {}, "hd": {}, "4k": {},
	"uhd": {}, "bluray": {}, "webrip": {}, "dvdrip": {},
	// language / dub
	"dubbed": {}, "hindi": {}, "english": {}, "arabic": {}, "french": {}, "spanish": {},
	// series structure
	"complete": {}, "season": {}, "series": {}, "episode": {}, "ep": {},
}

// Normalize canonicalizes a raw title for comparison: lowercase, fold every
// non-alphanumeric rune to a space, drop 4-digit year tokens (1900-2099) and
// the stop-token vocabulary, collapse whitespace. Returns "" for empty input.
// Idempotent.
func Normalize(title string) string {
	if title == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	fields := strings.Fields(b.String())
	out := fields[:0]
	for _, tok := range fields {
		if isYearToken(tok) {
			continue
		}
		if _, drop := stopTokens[tok]; drop {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// isYearToken reports whether tok is a 4-digit year in 1900-2099.
func isYearToken(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return tok >= "1900" && tok <= "2099"
}
