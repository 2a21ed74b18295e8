// Package scoring holds the deterministic scoring primitives the ranking
// engine is built on. Every function is pure: no I/O, no clock, no
// randomness.
package scoring

import "math"

// Round2 rounds to cents. Applied at every computation point so downstream
// sums never accumulate sub-cent drift.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// NormalizeWeights converts integer weights into fractions summing to 1.
// A zero or negative total yields all-zero fractions: a caller zeroing every
// weight has declared no signal, and the resulting score is 0, not an
// accidental plain average.
func NormalizeWeights(weights map[string]int) map[string]float64 {
	normalized := make(map[string]float64, len(weights))
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		for name := range weights {
			normalized[name] = 0
		}
		return normalized
	}
	for name, w := range weights {
		if w > 0 {
			normalized[name] = float64(w) / float64(total)
		} else {
			normalized[name] = 0
		}
	}
	return normalized
}

// WeightedScore combines component scores by their normalized weights.
// Components with no matching score contribute zero at full weight, which
// penalizes items missing data rather than hiding the gap.
func WeightedScore(scores map[string]float64, weights map[string]int) float64 {
	normalized := NormalizeWeights(weights)
	sum := 0.0
	for name, frac := range normalized {
		sum += scores[name] * frac
	}
	return Round2(sum)
}

// PriceScore maps an item price onto 0..100 against the spend expected for
// its category (budget * category share). Cheaper than half the expected
// spend is ideal; past 1.5x the curve decays toward zero.
func PriceScore(price, budget, categoryShare float64) float64 {
	expected := budget * categoryShare
	if price <= 0 {
		return 50 // neutral for unknown price
	}
	if expected <= 0 {
		return 50
	}
	ratio := price / expected
	switch {
	case ratio <= 0.5:
		return 100
	case ratio <= 1.0:
		return Round2(100 - ratio*30)
	case ratio <= 1.5:
		return Round2(70 - (price-expected)/expected*40)
	default:
		return Round2(math.Max(0, 30-(price-expected*1.5)/expected*30))
	}
}

// RatingScore maps a 0..maxRating vendor rating onto 0..100. Unknown ratings
// score a neutral 50 instead of tanking the item.
func RatingScore(rating, maxRating float64) float64 {
	if rating <= 0 {
		return 50
	}
	if maxRating <= 0 {
		maxRating = 5
	}
	return Round2(math.Min(100, rating/maxRating*100))
}

// CapacityScore scores available capacity against the required headcount.
// Meeting the requirement is near-perfect with a slight waste penalty for
// large excess; a shortfall is penalized in proportion.
func CapacityScore(capacity, required int) float64 {
	if required <= 0 {
		return 100
	}
	if capacity >= required {
		excess := float64(capacity) / float64(required)
		switch {
		case excess <= 1.2:
			return 100
		case excess <= 1.5:
			return 90
		default:
			return 80
		}
	}
	return Round2(float64(capacity) / float64(required) * 70)
}
