// Package ranking turns discovered items into ranked retreat packages.
package ranking

import (
	"strings"

	"github.com/google/uuid"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
)

// MaxPackages caps the cross-product of per-category candidates. Four
// categories with a handful of items each explode combinatorially; fifty
// ranked bundles is more than anyone reviews.
const MaxPackages = 50

// GroupByCategory buckets items per category, preserving input order inside
// each bucket. Items with an unknown category are dropped.
func GroupByCategory(items []contractx.DiscoveredItem) map[contractx.Category][]contractx.DiscoveredItem {
	grouped := make(map[contractx.Category][]contractx.DiscoveredItem)
	for _, item := range items {
		if !item.Category.Valid() {
			continue
		}
		grouped[item.Category] = append(grouped[item.Category], item)
	}
	return grouped
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

// PlaceholderItem stands in for a category discovery returned nothing for,
// so package generation always has all four categories to combine. It is
// priced at zero, unavailable, and unrated.
func PlaceholderItem(cat contractx.Category) contractx.DiscoveredItem {
	label := categoryLabel(cat)
	return contractx.DiscoveredItem{
		ItemID:       string(cat) + "_placeholder",
		Category:     cat,
		Vendor:       "To Be Determined",
		Title:        label + " - TBD",
		Description:  "Placeholder for " + string(cat),
		Price:        0,
		Currency:     "USD",
		Availability: false,
		TrustScore:   contractx.TrustScore{Rating: 0, Source: "N/A"},
	}
}

// GeneratePackages builds the cross-product of one item per category, in
// canonical category order, capped at MaxPackages. Empty categories are
// backfilled with placeholders first, so every package always carries all
// four categories. Output order is deterministic given input order.
func GeneratePackages(grouped map[contractx.Category][]contractx.DiscoveredItem) []contractx.Package {
	categories := contractx.Categories()
	buckets := make([][]contractx.DiscoveredItem, len(categories))
	for i, cat := range categories {
		items := grouped[cat]
		if len(items) == 0 {
			items = []contractx.DiscoveredItem{PlaceholderItem(cat)}
		}
		buckets[i] = items
	}

	packages := make([]contractx.Package, 0, MaxPackages)
	indices := make([]int, len(buckets))
	for {
		pkg := make(contractx.Package, len(categories))
		for i, cat := range categories {
			pkg[cat] = buckets[i][indices[i]]
		}
		packages = append(packages, pkg)
		if len(packages) >= MaxPackages {
			return packages
		}

		// Advance the odometer, last category fastest.
		pos := len(indices) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(buckets[pos]) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return packages
		}
	}
}

func newPackageID() string {
	return "pkg_" + uuid.NewString()[:8]
}
