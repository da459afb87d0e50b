package match

import "testing"

func TestScoreIdentity(t *testing.T) {
	for _, s := range []string{"The Matrix", "a", "Mission: Impossible", "4K HD 1080p", ""} {
		if got := Score(s, s); got != 1.0 {
			t.Errorf("Score(%q, %q) = %v; want 1.0", s, s, got)
		}
	}
}

func TestScoreFormula(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		// quality token stripped from b; "the" (3 chars) survives the
		// short-token filter, so |A|=4, |B|=3, 3 shared
		{"The Dark Knight Rises", "Dark Knight Rises 1080p", 3.0 / 4.0},
		{"Alien Earth", "Alien Earth Extended", 2.0 / 3.0},
		{"Totally Different", "Unrelated Thing", 0.0},
		// short tokens discarded: "up" (2) dropped from both sides
		{"Up Movie Special", "Up Movie Special", 1.0}, // identical normalized, short-circuit
	}
	for _, c := range cases {
		if got := Score(c.a, c.b); !almostEqual(got, c.want) {
			t.Errorf("Score(%q, %q) = %v; want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestScoreEmptyTokenSets(t *testing.T) {
	// "of" and "a" vanish after the short-token filter; different normalized
	// forms with no significant tokens score zero.
	if got := Score("of a", "an it"); got != 0 {
		t.Errorf("Score short-token-only = %v; want 0", got)
	}
}

func TestScoreSymmetry(t *testing.T) {
	pairs := [][2]string{
		{"The Dark Knight", "Dark Knight Rises"},
		{"Alien Earth", "Alien Earth Extended Edition"},
		{"Mission Impossible Fallout", "Mission Impossible"},
		{"Breaking Bad", "Better Call Saul"},
	}
	for _, p := range pairs {
		ab, ba := Score(p[0], p[1]), Score(p[1], p[0])
		if ab != ba {
			t.Errorf("Score(%q, %q) = %v but Score(%q, %q) = %v", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
