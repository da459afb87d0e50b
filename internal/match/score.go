package match

import "strings"

// minTokenLen: tokens at or below this length are discarded before overlap
// scoring, suppressing noise from articles and connectors ("a", "of", "el").
const minTokenLen = 2

// Score returns a similarity in [0,1] between two raw titles using a
// token-overlap ratio over their normalized forms.
//
// Identical normalized forms short-circuit to exactly 1.0, which guards
// titles whose tokens are all short or ambiguous after filtering. Otherwise
// both sides are tokenized, short tokens dropped, and the result is
// matches / max(|A|, |B|) where matches counts occurrences in A whose token
// also appears in B. Deliberately not Levenshtein: the 0.8 threshold in the
// ranker is calibrated against this exact formula.
func Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1.0
	}
	ta := significantTokens(na)
	tb := significantTokens(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(tb))
	for _, t := range tb {
		set[t] = struct{}{}
	}
	matches := 0
	for _, t := range ta {
		if _, ok := set[t]; ok {
			matches++
		}
	}
	denom := len(ta)
	if len(tb) > denom {
		denom = len(tb)
	}
	return float64(matches) / float64(denom)
}

func significantTokens(normalized string) []string {
	fields := strings.Fields(normalized)
	out := fields[:0]
	for _, t := range fields {
		if len(t) > minTokenLen {
			out = append(out, t)
		}
	}
	return out
}
