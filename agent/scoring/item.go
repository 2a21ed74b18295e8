package scoring

import (
	"math"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
)

// Heuristic component scores for signals discovery cannot observe yet.
// Timing could come from departure times, comfort from cabin class and
// stops, location from venue proximity, service from service style.
const (
	heuristicTiming  = 75.0
	heuristicComfort = 70.0
	heuristicLoc     = 85.0
	heuristicService = 80.0
)

// Per-feature contribution when counting list metadata, all capped at 100.
const (
	amenityPoints   = 12.0
	equipmentPoints = 25.0
	dietaryPoints   = 20.0
)

func countScore(n int, perItem float64) float64 {
	return math.Min(100, float64(n)*perItem)
}

// ScoreItem scores one discovered item on its category's weighted components
// and returns the 0..100 score plus the per-component breakdown that
// produced it. Overrides replace only the component weights they name.
func ScoreItem(item contractx.DiscoveredItem, req contractx.Requirements, overrides map[string]int) (float64, contractx.Breakdown) {
	weights := MergeComponentWeights(item.Category, overrides)

	scores := map[string]float64{
		ComponentPrice: PriceScore(item.Price, req.Budget, ExpectedBudgetShare(item.Category)),
		ComponentTrust: RatingScore(item.TrustScore.Rating, 5),
	}

	switch item.Category {
	case contractx.CategoryFlights:
		scores[ComponentTiming] = heuristicTiming
		scores[ComponentComfort] = heuristicComfort
	case contractx.CategoryHotels:
		scores[ComponentLocation] = heuristicLoc
		amenities := 0
		if m := item.Metadata.Hotel; m != nil {
			amenities = len(m.Amenities)
		}
		scores[ComponentAmenities] = countScore(amenities, amenityPoints)
	case contractx.CategoryMeetingRooms:
		capacity, equipment := 0, 0
		if m := item.Metadata.MeetingRoom; m != nil {
			capacity = m.Capacity
			equipment = len(m.Equipment)
		}
		scores[ComponentCapacity] = CapacityScore(capacity, req.Attendees)
		scores[ComponentEquipment] = countScore(equipment, equipmentPoints)
	case contractx.CategoryCatering:
		dietary := 0
		if m := item.Metadata.Catering; m != nil {
			dietary = len(m.DietaryOptions)
		}
		scores[ComponentDietary] = countScore(dietary, dietaryPoints)
		scores[ComponentService] = heuristicService
	}

	breakdown := make(contractx.Breakdown, len(weights))
	for name, weight := range weights {
		breakdown[name] = contractx.ComponentScore{Score: Round2(scores[name]), Weight: weight}
	}
	return WeightedScore(scores, weights), breakdown
}
