package match

import (
	"sort"

	"github.com/streambridge/stream-bridge/internal/library"
)

const (
	// MatchThreshold is the minimum title similarity for an entry to become
	// a candidate at all. Calibrated against the Score formula.
	MatchThreshold = 0.8

	// ScoreTolerance is the band within which two final scores are treated
	// as tied and ranking falls through to quality, then source tiers.
	// Near-identical textual matches should be resolved by encode quality,
	// not by noise-level score differences.
	ScoreTolerance = 0.05

	yearBonus      = 0.10
	yearPenaltyCap = 0.05
	yearPenaltyPer = 0.01
)

// Candidate is a scored library entry proposed as a match for a target title.
// FinalScore is TitleScore + YearAdjustment and is deliberately unclamped; it
// may exceed 1.0 after a year bonus or dip below TitleScore after a penalty.
type Candidate struct {
	Entry          library.Entry
	TitleScore     float64
	YearAdjustment float64
	FinalScore     float64
	QualityTier    int
	QualityLabel   string
	SourceTier     int
	SourceLabel    string
}

// FindAllMatches scores every library entry against the target title, keeps
// those at or above MatchThreshold, applies the year-proximity adjustment,
// and returns candidates in rank order. targetYear 0 means unknown. An empty
// slice (never an error) means nothing cleared the threshold.
func FindAllMatches(targetTitle string, targetYear int, entries []library.Entry) []Candidate {
	var out []Candidate
	for _, e := range entries {
		titleScore := Score(targetTitle, e.DisplayTitle)
		if titleScore < MatchThreshold {
			continue
		}
		qTier, qLabel := QualityTag(e.DisplayTitle)
		sTier, sLabel := SourceTag(e.DisplayTitle)
		entryYear := ExtractYear(e.DisplayTitle)
		if entryYear == 0 {
			entryYear = e.Year
		}
		adj := YearAdjustment(targetYear, entryYear)
		out = append(out, Candidate{
			Entry:          e,
			TitleScore:     titleScore,
			YearAdjustment: adj,
			FinalScore:     titleScore + adj,
			QualityTier:    qTier,
			QualityLabel:   qLabel,
			SourceTier:     sTier,
			SourceLabel:    sLabel,
		})
	}
	SortCandidates(out)
	return out
}

// YearAdjustment returns the score delta for year proximity: +0.10 for an
// exact year match, a penalty of 0.01 per year of distance capped at 0.05,
// and 0 when either year is unknown.
func YearAdjustment(targetYear, entryYear int) float64 {
	if targetYear == 0 || entryYear == 0 {
		return 0
	}
	if targetYear == entryYear {
		return yearBonus
	}
	diff := targetYear - entryYear
	if diff < 0 {
		diff = -diff
	}
	penalty := yearPenaltyPer * float64(diff)
	if penalty > yearPenaltyCap {
		penalty = yearPenaltyCap
	}
	return -penalty
}

// SortCandidates orders candidates best-first: by FinalScore, except scores
// within ScoreTolerance of each other are tied and fall through to higher
// QualityTier, then higher SourceTier. Stable, so equal candidates keep
// library order and ranking stays deterministic.
func SortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if diff := a.FinalScore - b.FinalScore; diff > ScoreTolerance || diff < -ScoreTolerance {
			return a.FinalScore > b.FinalScore
		}
		if a.QualityTier != b.QualityTier {
			return a.QualityTier > b.QualityTier
		}
		return a.SourceTier > b.SourceTier
	})
}
