// Package discovery finds candidate vendors per category. Search execution
// is delegated to an injected client; this package builds the queries,
// normalizes results into discovered items, and backfills a deterministic
// fallback catalog when a category comes back empty.
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/planvoy/retreat-planner/agent/cart"
	contractx "github.com/planvoy/retreat-planner/agent/contract"
	"github.com/planvoy/retreat-planner/pkg/tavily"
)

// SearchClient is the web-search dependency. *tavily.Client satisfies it.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]tavily.Result, error)
}

const maxResultsPerCategory = 3

// Agent implements contract.Discoverer. A nil search client serves the
// fallback catalog for every category.
type Agent struct {
	search SearchClient
}

func NewAgent(search SearchClient) *Agent {
	return &Agent{search: search}
}

var _ contractx.Discoverer = (*Agent)(nil)

// Discover searches every category and returns the normalized items. A
// failed or empty search never fails discovery as a whole; the category
// falls back to the built-in catalog so ranking always has material.
func (a *Agent) Discover(ctx context.Context, req contractx.Requirements) ([]contractx.DiscoveredItem, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}

	var items []contractx.DiscoveredItem
	for _, cat := range contractx.Categories() {
		found := a.searchCategory(ctx, cat, req)
		if len(found) == 0 {
			found = fallbackItems(cat, req)
		}
		items = append(items, found...)
	}
	return items, nil
}

func (a *Agent) searchCategory(ctx context.Context, cat contractx.Category, req contractx.Requirements) []contractx.DiscoveredItem {
	if a.search == nil {
		return nil
	}

	var items []contractx.DiscoveredItem
	for _, query := range buildQueries(cat, req) {
		results, err := a.search.Search(ctx, query)
		if err != nil {
			log.Warn().Err(err).Str("category", string(cat)).Msg("search query failed")
			continue
		}
		for _, result := range results {
			if len(items) >= maxResultsPerCategory {
				return items
			}
			items = append(items, parseResult(cat, result, req, len(items)))
		}
		if len(items) >= maxResultsPerCategory {
			break
		}
	}
	return items
}

func buildQueries(cat contractx.Category, req contractx.Requirements) []string {
	location := req.Location
	attendees := req.Attendees
	origin := req.Origin
	if origin == "" {
		origin = "San Francisco"
	}

	switch cat {
	case contractx.CategoryFlights:
		return []string{
			fmt.Sprintf("corporate group flights from %s to %s %d people price booking", origin, location, attendees),
			fmt.Sprintf("business travel flights %s to %s group rates", origin, location),
		}
	case contractx.CategoryHotels:
		return []string{
			fmt.Sprintf("4-star business hotels %s conference room capacity %d guests corporate rate", location, attendees),
			fmt.Sprintf("hotels %s meeting facilities %d people group booking", location, attendees),
		}
	case contractx.CategoryMeetingRooms:
		return []string{
			fmt.Sprintf("conference room rental %s capacity %d people corporate event", location, attendees),
			fmt.Sprintf("event venue rental %s business meeting %d attendees AV equipment", location, attendees),
		}
	case contractx.CategoryCatering:
		return []string{
			fmt.Sprintf("corporate catering %s %d people business lunch dinner", location, attendees),
			fmt.Sprintf("event catering services %s group meals %d guests menu options", location, attendees),
		}
	}
	return []string{fmt.Sprintf("%s %s %d people", cat, location, attendees)}
}

/* ----------------------------- result parsing ---------------------------- */

func parseResult(cat contractx.Category, result tavily.Result, req contractx.Requirements, idx int) contractx.DiscoveredItem {
	title := strings.TrimSpace(result.Title)
	if title == "" {
		title = fmt.Sprintf("%s Option %d", categoryLabel(cat), idx+1)
	}
	description := strings.TrimSpace(result.Content)
	if len(description) > 300 {
		description = description[:300]
	}
	if description == "" {
		description = "Quality " + strings.ReplaceAll(string(cat), "_", " ") + " option"
	}

	rating := result.Score * 5
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}

	return contractx.DiscoveredItem{
		ItemID:       fmt.Sprintf("%s_%03d", cat, idx),
		Category:     cat,
		Vendor:       vendorFromURL(result.URL),
		Source:       result.URL,
		Title:        title,
		Description:  description,
		Price:        extractOrEstimatePrice(result.Content, cat, req),
		Currency:     "USD",
		Availability: true,
		Metadata:     extractMetadata(cat, result.Content, req),
		TrustScore: contractx.TrustScore{
			Rating: rating,
			Source: "Tavily Relevance Score",
		},
	}
}

func vendorFromURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return "Unknown Vendor"
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	name := strings.Split(host, ".")[0]
	if name == "" {
		return "Unknown Vendor"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\s*([\d,]+(?:\.\d{2})?)`),
	regexp.MustCompile(`(\d+(?:,\d{3})*)\s*(?:USD|dollars)`),
	regexp.MustCompile(`(?i)(?:price|cost|rate)[:\s]+\$?([\d,]+)`),
}

// extractOrEstimatePrice pulls a price out of the content when one passes a
// sanity check, otherwise falls back to a deterministic per-category
// estimate derived from headcount and stay length.
func extractOrEstimatePrice(content string, cat contractx.Category, req contractx.Requirements) float64 {
	for _, pattern := range pricePatterns {
		m := pattern.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		price, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if price >= 10 && price <= 500000 {
			return price
		}
	}

	attendees := float64(req.Attendees)
	days := float64(cart.StayDays(req.Duration))
	switch cat {
	case contractx.CategoryFlights:
		return 350 + attendees*400
	case contractx.CategoryHotels:
		return attendees * 200 * days
	case contractx.CategoryMeetingRooms:
		return 1500 + attendees*25*days
	case contractx.CategoryCatering:
		return attendees * 65 * days * 2
	}
	return 2000
}

func extractMetadata(cat contractx.Category, content string, req contractx.Requirements) contractx.Metadata {
	switch cat {
	case contractx.CategoryFlights:
		arrival := req.Location
		origin := req.Origin
		if origin == "" {
			origin = "Origin City"
		}
		return contractx.Metadata{Flight: &contractx.FlightMetadata{
			Departure: origin,
			Arrival:   arrival,
			Duration:  extractFlightDuration(content),
			Stops:     extractStops(content),
			Airline:   extractAirline(content),
		}}
	case contractx.CategoryHotels:
		return contractx.Metadata{Hotel: &contractx.HotelMetadata{
			StarRating: 4,
			Amenities:  extractAmenities(content),
			Capacity:   req.Attendees,
		}}
	case contractx.CategoryMeetingRooms:
		return contractx.Metadata{MeetingRoom: &contractx.MeetingRoomMetadata{
			Capacity:    req.Attendees + 10,
			Equipment:   []string{"Projector", "Whiteboard", "Video Conferencing", "WiFi"},
			SetupStyles: []string{"Theater", "Classroom", "U-Shape", "Boardroom"},
		}}
	case contractx.CategoryCatering:
		return contractx.Metadata{Catering: &contractx.CateringMetadata{
			Cuisine:        "American/International",
			DietaryOptions: []string{"Vegetarian", "Vegan", "Gluten-Free", "Kosher", "Halal"},
			MealTypes:      []string{"Breakfast", "Lunch", "Dinner", "Snacks"},
			ServiceStyle:   "Buffet or Plated",
		}}
	}
	return contractx.Metadata{}
}

var flightDurationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*h(?:our)?s?\s*(\d+)\s*m(?:in)?`),
	regexp.MustCompile(`(\d+):(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*hours?`),
}

func extractFlightDuration(content string) string {
	for _, pattern := range flightDurationPatterns {
		m := pattern.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if len(m) >= 3 && m[2] != "" {
			return m[1] + "h " + m[2] + "m"
		}
		return m[1] + "h"
	}
	return "Duration varies"
}

func extractStops(content string) int {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "nonstop") || strings.Contains(lower, "non-stop") || strings.Contains(lower, "direct"):
		return 0
	case strings.Contains(lower, "1 stop") || strings.Contains(lower, "one stop"):
		return 1
	case strings.Contains(lower, "2 stop") || strings.Contains(lower, "two stop"):
		return 2
	}
	return 0
}

var knownAirlines = []string{"United", "Delta", "American", "Southwest", "JetBlue", "Alaska", "Spirit", "Frontier"}

func extractAirline(content string) string {
	lower := strings.ToLower(content)
	for _, airline := range knownAirlines {
		if strings.Contains(lower, strings.ToLower(airline)) {
			return airline
		}
	}
	return "Multiple Airlines"
}

var knownAmenities = []string{
	"WiFi", "Pool", "Fitness Center", "Spa", "Restaurant",
	"Bar", "Business Center", "Parking", "Conference Room",
	"Room Service", "Concierge", "Airport Shuttle",
}

func extractAmenities(content string) []string {
	lower := strings.ToLower(content)
	var found []string
	for _, amenity := range knownAmenities {
		if strings.Contains(lower, strings.ToLower(amenity)) {
			found = append(found, amenity)
		}
	}
	for _, basic := range []string{"WiFi", "Business Center", "Conference Room"} {
		if !containsString(found, basic) {
			found = append(found, basic)
		}
	}
	if len(found) > 8 {
		found = found[:8]
	}
	return found
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

/* ---------------------------- fallback catalog ---------------------------- */

type fallbackVendor struct {
	name string
	desc string
}

var fallbackVendors = map[contractx.Category][]fallbackVendor{
	contractx.CategoryFlights: {
		{"Expedia", "Group flight booking"},
		{"Kayak", "Business travel flights"},
	},
	contractx.CategoryHotels: {
		{"Marriott", "Business hotel with conference facilities"},
		{"Hilton", "Premium hotel with meeting rooms"},
	},
	contractx.CategoryMeetingRooms: {
		{"Peerspace", "Venue rental"},
		{"Convene", "Conference space"},
	},
	contractx.CategoryCatering: {
		{"ezCater", "Corporate catering"},
		{"CaterCow", "Event catering"},
	},
}

// fallbackItems produces a deterministic two-vendor catalog for a category
// with no search results, priced by the same estimator real results use.
func fallbackItems(cat contractx.Category, req contractx.Requirements) []contractx.DiscoveredItem {
	vendors := fallbackVendors[cat]
	items := make([]contractx.DiscoveredItem, 0, len(vendors))
	for idx, vendor := range vendors {
		items = append(items, contractx.DiscoveredItem{
			ItemID:       fmt.Sprintf("%s_fb_%03d", cat, idx),
			Category:     cat,
			Vendor:       vendor.name,
			Source:       "https://" + strings.ToLower(vendor.name) + ".com",
			Title:        fmt.Sprintf("%s - %s in %s", vendor.name, categoryLabel(cat), req.Location),
			Description:  fmt.Sprintf("%s for %d guests in %s", vendor.desc, req.Attendees, req.Location),
			Price:        extractOrEstimatePrice("", cat, req),
			Currency:     "USD",
			Availability: true,
			Metadata:     extractMetadata(cat, "", req),
			TrustScore: contractx.TrustScore{
				Rating:      4.0 + float64(idx)*0.2,
				Source:      "Industry Rating",
				ReviewCount: 500 + idx*100,
			},
		})
	}
	return items
}

func categoryLabel(cat contractx.Category) string {
	words := strings.Split(string(cat), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
