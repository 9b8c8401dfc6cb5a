// Package recommendation maps scored alignments to a recommendation tier.
package recommendation

import (
	"github.com/malik-zulfi/Jiggar-sub000/internal/alignment"
	"github.com/malik-zulfi/Jiggar-sub000/internal/requirements"
)

// Tier is the discrete recommendation of a candidate.
type Tier string

const (
	StronglyRecommended         Tier = "Strongly Recommended"
	RecommendedWithReservations Tier = "Recommended with Reservations"
	NotRecommended              Tier = "Not Recommended"
)

const (
	StrongThreshold   = 85.0
	ReservedThreshold = 60.0
)

// Classify applies the tier rules in order, first match wins. A missed
// mandatory Experience or Education requirement caps the tier regardless of score.
func Classify(details []alignment.ScoredAlignment, alignmentScore float64) Tier {
	if _, gated := Gate(details); gated {
		return NotRecommended
	}
	switch {
	case alignmentScore >= StrongThreshold:
		return StronglyRecommended
	case alignmentScore >= ReservedThreshold:
		return RecommendedWithReservations
	default:
		return NotRecommended
	}
}

// Gate returns the first row that forces Not Recommended.
func Gate(details []alignment.ScoredAlignment) (alignment.ScoredAlignment, bool) {
	for _, d := range details {
		if d.Status != alignment.NotAligned || d.Priority != requirements.MustHave {
			continue
		}
		category, ok := requirements.ParseCategory(string(d.Category))
		if !ok {
			continue
		}
		if category == requirements.Experience || category == requirements.Education {
			return d, true
		}
	}
	return alignment.ScoredAlignment{}, false
}
