package ranking

import (
	"fmt"
	"sort"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
	"github.com/planvoy/retreat-planner/agent/scoring"
)

// Rank scores every generated package against the requirements and returns
// them sorted by final score, best first, with 1-based ranks assigned.
// The sort is stable: equal scores keep generation order, so re-running
// with identical inputs yields the identical ordering.
func Rank(items []contractx.DiscoveredItem, req contractx.Requirements, overrides *contractx.WeightOverrides) ([]contractx.ScoredPackage, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	grouped := GroupByCategory(items)
	packages := GeneratePackages(grouped)

	scored := make([]contractx.ScoredPackage, 0, len(packages))
	for _, pkg := range packages {
		scored = append(scored, scorePackage(pkg, req, overrides))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored, nil
}

// scorePackage aggregates per-item scores into an importance-weighted final
// score and attaches the derived explanation.
func scorePackage(pkg contractx.Package, req contractx.Requirements, overrides *contractx.WeightOverrides) contractx.ScoredPackage {
	categoryScores := make(map[contractx.Category]float64, len(pkg))
	breakdowns := make(map[contractx.Category]contractx.Breakdown, len(pkg))
	totalCost := 0.0

	for cat, item := range pkg {
		score, breakdown := scoring.ScoreItem(item, req, overrides.ComponentsFor(cat))
		categoryScores[cat] = score
		breakdowns[cat] = breakdown
		totalCost += item.Price
	}
	totalCost = scoring.Round2(totalCost)

	var importanceOverrides map[contractx.Category]int
	if overrides != nil {
		importanceOverrides = overrides.CategoryImportance
	}
	importance := scoring.MergeCategoryImportance(importanceOverrides)

	totalImportance := 0
	for cat := range categoryScores {
		totalImportance += importance[cat]
	}
	if totalImportance <= 0 {
		totalImportance = 100
	}

	final := 0.0
	for cat, score := range categoryScores {
		final += score * float64(importance[cat]) / float64(totalImportance)
	}

	return contractx.ScoredPackage{
		PackageID:      newPackageID(),
		FinalScore:     scoring.Round2(final),
		CategoryScores: categoryScores,
		Items:          pkg,
		TotalCost:      totalCost,
		Explanation:    buildExplanation(categoryScores, breakdowns, req, totalCost, importance),
	}
}
