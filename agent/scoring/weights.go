package scoring

import contractx "github.com/planvoy/retreat-planner/agent/contract"

// Component names shared by scorers and weight overrides.
const (
	ComponentPrice     = "price"
	ComponentTrust     = "trust"
	ComponentTiming    = "timing"
	ComponentComfort   = "comfort"
	ComponentLocation  = "location"
	ComponentAmenities = "amenities"
	ComponentCapacity  = "capacity"
	ComponentEquipment = "equipment"
	ComponentDietary   = "dietary"
	ComponentService   = "service"
)

// DefaultComponentWeights returns the built-in per-category component
// weights. Each category's weights sum to 100 but callers may override with
// arbitrary positive integers; NormalizeWeights handles the rest.
func DefaultComponentWeights(cat contractx.Category) map[string]int {
	switch cat {
	case contractx.CategoryFlights:
		return map[string]int{
			ComponentPrice:   50,
			ComponentTiming:  25,
			ComponentTrust:   15,
			ComponentComfort: 10,
		}
	case contractx.CategoryHotels:
		return map[string]int{
			ComponentPrice:     20,
			ComponentTrust:     40,
			ComponentLocation:  25,
			ComponentAmenities: 15,
		}
	case contractx.CategoryMeetingRooms:
		return map[string]int{
			ComponentPrice:     25,
			ComponentCapacity:  35,
			ComponentEquipment: 25,
			ComponentTrust:     15,
		}
	case contractx.CategoryCatering:
		return map[string]int{
			ComponentPrice:   30,
			ComponentTrust:   30,
			ComponentDietary: 25,
			ComponentService: 15,
		}
	}
	return map[string]int{ComponentPrice: 50, ComponentTrust: 50}
}

// DefaultCategoryImportance returns how much each category contributes to a
// package's final score.
func DefaultCategoryImportance() map[contractx.Category]int {
	return map[contractx.Category]int{
		contractx.CategoryFlights:      30,
		contractx.CategoryHotels:       40,
		contractx.CategoryMeetingRooms: 15,
		contractx.CategoryCatering:     15,
	}
}

// ExpectedBudgetShare returns the fraction of the total budget a category is
// expected to consume. Price scoring compares an item's spend against
// budget * share for its category.
func ExpectedBudgetShare(cat contractx.Category) float64 {
	switch cat {
	case contractx.CategoryFlights:
		return 0.30
	case contractx.CategoryHotels:
		return 0.40
	case contractx.CategoryMeetingRooms:
		return 0.15
	case contractx.CategoryCatering:
		return 0.15
	}
	return 0.25
}

// MergeComponentWeights overlays caller overrides onto the category defaults.
// Only non-negative override values are taken; unknown component names are
// accepted and simply scored zero by the item scorer.
func MergeComponentWeights(cat contractx.Category, overrides map[string]int) map[string]int {
	merged := DefaultComponentWeights(cat)
	for name, w := range overrides {
		if w >= 0 {
			merged[name] = w
		}
	}
	return merged
}

// MergeCategoryImportance overlays caller overrides onto the default
// category importance map.
func MergeCategoryImportance(overrides map[contractx.Category]int) map[contractx.Category]int {
	merged := DefaultCategoryImportance()
	for cat, w := range overrides {
		if cat.Valid() && w >= 0 {
			merged[cat] = w
		}
	}
	return merged
}
