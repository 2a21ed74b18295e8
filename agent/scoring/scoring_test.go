package scoring

import (
	"math"
	"testing"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalizeWeightsSumsToOne(t *testing.T) {
	t.Parallel()

	normalized := NormalizeWeights(map[string]int{"price": 50, "trust": 30, "timing": 20})
	sum := 0.0
	for _, frac := range normalized {
		sum += frac
	}
	if !almostEqual(sum, 1.0) {
		t.Fatalf("normalized weights sum to %v, want 1", sum)
	}
	if !almostEqual(normalized["price"], 0.5) {
		t.Fatalf("price fraction = %v, want 0.5", normalized["price"])
	}
}

func TestNormalizeWeightsZeroTotalYieldsAllZero(t *testing.T) {
	t.Parallel()

	normalized := NormalizeWeights(map[string]int{"a": 0, "b": 0})
	if !almostEqual(normalized["a"], 0) || !almostEqual(normalized["b"], 0) {
		t.Fatalf("zero-sum weights must normalize to all-zero, got %v", normalized)
	}
	if got := WeightedScore(map[string]float64{"a": 100, "b": 80}, map[string]int{"a": 0, "b": 0}); got != 0 {
		t.Fatalf("all-zero weights must score 0, got %v", got)
	}
}

func TestNormalizeWeightsScaleInvariant(t *testing.T) {
	t.Parallel()

	small := NormalizeWeights(map[string]int{"price": 1, "trust": 3})
	big := NormalizeWeights(map[string]int{"price": 10, "trust": 30})
	for name := range small {
		if !almostEqual(small[name], big[name]) {
			t.Fatalf("scaling changed %s: %v vs %v", name, small[name], big[name])
		}
	}
}

func TestWeightedScoreMissingComponentContributesZero(t *testing.T) {
	t.Parallel()

	got := WeightedScore(map[string]float64{"price": 100}, map[string]int{"price": 50, "trust": 50})
	if got != 50 {
		t.Fatalf("WeightedScore = %v, want 50", got)
	}
}

func TestPriceScoreCurve(t *testing.T) {
	t.Parallel()

	// Budget 100000 with a 0.30 share puts the expected spend at 30000.
	cases := []struct {
		name  string
		price float64
		want  float64
	}{
		{"unknown price is neutral", 0, 50},
		{"half expected is ideal", 15000, 100},
		{"at expected", 30000, 70},
		{"fifty percent over", 45000, 50},
		{"double expected", 60000, 15},
		{"far over floors at zero", 300000, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := PriceScore(tc.price, 100000, 0.30)
			if got != tc.want {
				t.Fatalf("PriceScore(%v) = %v, want %v", tc.price, got, tc.want)
			}
		})
	}
}

func TestPriceScoreMonotoneAboveIdealBand(t *testing.T) {
	t.Parallel()

	prev := PriceScore(15000, 100000, 0.30)
	for price := 16000.0; price <= 120000; price += 1000 {
		got := PriceScore(price, 100000, 0.30)
		if got > prev {
			t.Fatalf("score rose from %v to %v at price %v", prev, got, price)
		}
		prev = got
	}
}

func TestRatingScore(t *testing.T) {
	t.Parallel()

	if got := RatingScore(0, 5); got != 50 {
		t.Fatalf("unknown rating = %v, want neutral 50", got)
	}
	if got := RatingScore(4.5, 5); got != 90 {
		t.Fatalf("RatingScore(4.5) = %v, want 90", got)
	}
	if got := RatingScore(9, 5); got != 100 {
		t.Fatalf("rating above max = %v, want cap 100", got)
	}
}

func TestCapacityScoreTiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		capacity, required int
		want               float64
	}{
		{50, 50, 100},
		{60, 50, 100},  // within 20% slack
		{70, 50, 90},   // moderate excess
		{200, 50, 80},  // wasteful excess
		{25, 50, 35},   // shortfall scales linearly
		{0, 50, 0},
		{10, 0, 100},   // nothing required
	}
	for _, tc := range cases {
		got := CapacityScore(tc.capacity, tc.required)
		if got != tc.want {
			t.Fatalf("CapacityScore(%d, %d) = %v, want %v", tc.capacity, tc.required, got, tc.want)
		}
	}
}

func TestScoreItemHotelUsesAmenities(t *testing.T) {
	t.Parallel()

	req := contractx.Requirements{Attendees: 20, Budget: 50000, Location: "Austin", Duration: "2 days"}
	item := contractx.DiscoveredItem{
		ItemID:       "htl_1",
		Category:     contractx.CategoryHotels,
		Vendor:       "Marriott",
		Title:        "Downtown Marriott",
		Price:        9000,
		Availability: true,
		TrustScore:   contractx.TrustScore{Rating: 4.5},
		Metadata: contractx.Metadata{Hotel: &contractx.HotelMetadata{
			Amenities: []string{"wifi", "gym", "pool", "breakfast"},
		}},
	}

	score, breakdown := ScoreItem(item, req, nil)
	if score <= 0 || score > 100 {
		t.Fatalf("score out of range: %v", score)
	}
	amenities, ok := breakdown[ComponentAmenities]
	if !ok {
		t.Fatal("missing amenities component")
	}
	if amenities.Score != 48 {
		t.Fatalf("amenities score = %v, want 48 (4 amenities * 12)", amenities.Score)
	}
	if amenities.Weight != 15 {
		t.Fatalf("amenities weight = %d, want default 15", amenities.Weight)
	}
}

func TestScoreItemOverridesChangeOrdering(t *testing.T) {
	t.Parallel()

	req := contractx.Requirements{Attendees: 20, Budget: 50000, Location: "Austin", Duration: "2 days"}
	cheapLowTrust := contractx.DiscoveredItem{
		Category:   contractx.CategoryHotels,
		Price:      4000,
		TrustScore: contractx.TrustScore{Rating: 2.0},
		Metadata:   contractx.Metadata{Hotel: &contractx.HotelMetadata{}},
	}
	pricyHighTrust := contractx.DiscoveredItem{
		Category:   contractx.CategoryHotels,
		Price:      19000,
		TrustScore: contractx.TrustScore{Rating: 5.0},
		Metadata:   contractx.Metadata{Hotel: &contractx.HotelMetadata{}},
	}

	priceHeavy := map[string]int{ComponentPrice: 90, ComponentTrust: 5, ComponentLocation: 3, ComponentAmenities: 2}
	trustHeavy := map[string]int{ComponentPrice: 5, ComponentTrust: 90, ComponentLocation: 3, ComponentAmenities: 2}

	cheapUnderPrice, _ := ScoreItem(cheapLowTrust, req, priceHeavy)
	pricyUnderPrice, _ := ScoreItem(pricyHighTrust, req, priceHeavy)
	if cheapUnderPrice <= pricyUnderPrice {
		t.Fatalf("price-heavy weights should favor the cheap item: %v vs %v", cheapUnderPrice, pricyUnderPrice)
	}

	cheapUnderTrust, _ := ScoreItem(cheapLowTrust, req, trustHeavy)
	pricyUnderTrust, _ := ScoreItem(pricyHighTrust, req, trustHeavy)
	if pricyUnderTrust <= cheapUnderTrust {
		t.Fatalf("trust-heavy weights should favor the trusted item: %v vs %v", pricyUnderTrust, cheapUnderTrust)
	}
}

func TestScoreItemMeetingRoomCapacityShortfall(t *testing.T) {
	t.Parallel()

	req := contractx.Requirements{Attendees: 100, Budget: 50000, Location: "Austin", Duration: "2 days"}
	item := contractx.DiscoveredItem{
		Category:   contractx.CategoryMeetingRooms,
		Price:      2000,
		TrustScore: contractx.TrustScore{Rating: 4},
		Metadata: contractx.Metadata{MeetingRoom: &contractx.MeetingRoomMetadata{
			Capacity:  50,
			Equipment: []string{"projector", "whiteboard"},
		}},
	}

	_, breakdown := ScoreItem(item, req, nil)
	if got := breakdown[ComponentCapacity].Score; got != 35 {
		t.Fatalf("capacity score = %v, want 35 for a 50/100 shortfall", got)
	}
	if got := breakdown[ComponentEquipment].Score; got != 50 {
		t.Fatalf("equipment score = %v, want 50 (2 items * 25)", got)
	}
}

func TestScoreItemDeterministic(t *testing.T) {
	t.Parallel()

	req := contractx.Requirements{Attendees: 20, Budget: 50000, Location: "Austin", Duration: "2 days"}
	item := contractx.DiscoveredItem{
		Category:   contractx.CategoryCatering,
		Price:      3000,
		TrustScore: contractx.TrustScore{Rating: 4.2},
		Metadata: contractx.Metadata{Catering: &contractx.CateringMetadata{
			DietaryOptions: []string{"vegetarian", "vegan", "gluten-free"},
		}},
	}

	first, _ := ScoreItem(item, req, nil)
	for i := 0; i < 10; i++ {
		again, _ := ScoreItem(item, req, nil)
		if again != first {
			t.Fatalf("score changed across runs: %v vs %v", first, again)
		}
	}
}
