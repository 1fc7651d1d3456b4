// Package reputation implements the forum's trust score for prediction
// authors.
//
// The score combines accuracy with a logarithmic volume bonus:
//
//	score = (accurate / total) * ln(total + 1) * 100
//
// Accuracy alone rewards low-volume lucky guesses; the ln(total+1) term
// rewards sustained participation while damping marginal gains from
// very high prediction counts. The score is monotonic in accuracy and
// (diminishingly) in volume, and rounded to one decimal place.
//
// Scores map onto display tiers (Novice … Legend) by ascending
// thresholds, inclusive on the lower bound of each tier.
package reputation

import "math"

// Tier thresholds. A score equal to a threshold belongs to the higher
// tier (exactly 10 is Apprentice, not Novice).
const (
	ThresholdApprentice = 10
	ThresholdExpert     = 50
	ThresholdMaster     = 100
	ThresholdLegend     = 500
)

// Tier is a named reputation bracket with its display color.
type Tier struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var (
	TierNovice     = Tier{Label: "Novice", Color: "#6B7280"}
	TierApprentice = Tier{Label: "Apprentice", Color: "#3B82F6"}
	TierExpert     = Tier{Label: "Expert", Color: "#8B5CF6"}
	TierMaster     = Tier{Label: "Master", Color: "#F59E0B"}
	TierLegend     = Tier{Label: "Legend", Color: "#EF4444"}
)

// Score computes the reputation score from the two per-user counters.
// Defined for all 0 <= accurate <= total; zero when total is zero.
func Score(accurate, total int) float64 {
	if total == 0 {
		return 0
	}

	accuracy := float64(accurate) / float64(total)
	score := accuracy * math.Log(float64(total)+1) * 100

	// Round half-up to one decimal place. Scores are never negative,
	// so half-away-from-zero and half-up coincide.
	return math.Round(score*10) / 10
}

// Accuracy returns the hit rate as a percentage, zero when the user has
// no predictions yet.
func Accuracy(accurate, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(accurate) / float64(total) * 100
}

// TierFor returns the display tier for a score.
func TierFor(score float64) Tier {
	switch {
	case score >= ThresholdLegend:
		return TierLegend
	case score >= ThresholdMaster:
		return TierMaster
	case score >= ThresholdExpert:
		return TierExpert
	case score >= ThresholdApprentice:
		return TierApprentice
	default:
		return TierNovice
	}
}
