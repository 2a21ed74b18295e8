package ranking

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
	"github.com/planvoy/retreat-planner/agent/scoring"
)

const strengthThreshold = 70

// buildExplanation derives the human-readable ranking rationale from the
// scores already computed. It carries no information of its own and can be
// rebuilt from the package at any time.
func buildExplanation(
	categoryScores map[contractx.Category]float64,
	breakdowns map[contractx.Category]contractx.Breakdown,
	req contractx.Requirements,
	totalCost float64,
	importance map[contractx.Category]int,
) contractx.Explanation {
	budgetPct := 0.0
	if req.Budget > 0 {
		budgetPct = totalCost / req.Budget * 100
	}

	type catScore struct {
		cat   contractx.Category
		score float64
	}
	ordered := make([]catScore, 0, len(categoryScores))
	for cat, score := range categoryScores {
		ordered = append(ordered, catScore{cat, score})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		return ordered[i].cat < ordered[j].cat
	})

	var strengths []string
	for _, cs := range ordered {
		if cs.score >= strengthThreshold {
			strengths = append(strengths, string(cs.cat))
		}
	}

	var assessment string
	switch {
	case budgetPct <= 80:
		assessment = fmt.Sprintf("Under budget at $%.0f (%.0f%% of $%.0f)", totalCost, budgetPct, req.Budget)
	case budgetPct <= 100:
		assessment = fmt.Sprintf("Within budget at $%.0f (%.0f%% of $%.0f)", totalCost, budgetPct, req.Budget)
	default:
		assessment = fmt.Sprintf("Over budget at $%.0f (%.0f%% of $%.0f)", totalCost, budgetPct, req.Budget)
	}

	strengthsNote := "balanced options"
	if len(strengths) > 0 {
		strengthsNote = strings.Join(strengths, ", ")
	}

	return contractx.Explanation{
		WhyRanked:          fmt.Sprintf("%s. Strong scores in: %s.", assessment, strengthsNote),
		Strengths:          strengths,
		CategoryBreakdowns: breakdowns,
		BudgetAnalysis: contractx.BudgetAnalysis{
			TotalCost:   totalCost,
			Budget:      req.Budget,
			PercentUsed: scoring.Round2(budgetPct),
		},
		WeightsApplied: importance,
	}
}
