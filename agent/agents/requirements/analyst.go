// Package requirements extracts structured retreat requirements from
// natural-language input, with a regex fallback when no model is available
// or the model output is malformed.
package requirements

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/planvoy/retreat-planner/agent/contract"
	promptx "github.com/planvoy/retreat-planner/agent/prompt"
)

// CompletionClient is the one LLM call the analyst needs.
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Analyst implements contract.RequirementsAnalyst. A nil client skips the
// model entirely and goes straight to regex extraction.
type Analyst struct {
	client CompletionClient
	prompt string
}

func NewAnalyst(client CompletionClient) *Analyst {
	return &Analyst{
		client: client,
		prompt: promptx.LoadPromptSet().Requirements,
	}
}

var _ contractx.RequirementsAnalyst = (*Analyst)(nil)

// Analyze parses user input into validated requirements. Model output that
// fails to parse falls back to regex extraction; missing required fields
// are backfilled from the raw input before validation.
func (a *Analyst) Analyze(ctx context.Context, userInput string) (contractx.Requirements, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return contractx.Requirements{}, fmt.Errorf("%w: empty planning request", contractx.ErrValidation)
	}

	var req contractx.Requirements
	parsed := false
	if a.client != nil {
		raw, err := a.client.Complete(ctx, a.prompt, userInput)
		if err != nil {
			return contractx.Requirements{}, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
		}
		if err := json.Unmarshal([]byte(cleanJSONOutput(raw)), &req); err != nil {
			log.Warn().Err(err).Msg("model returned malformed requirements json, using fallback parser")
		} else {
			parsed = true
		}
	}
	if !parsed {
		req = fallbackParse(userInput)
	}

	ensureRequiredFields(&req, userInput)
	if err := req.Validate(); err != nil {
		return contractx.Requirements{}, fmt.Errorf("analyze requirements: %w", err)
	}
	return req, nil
}

// cleanJSONOutput strips markdown fences and any prose around the outermost
// JSON object.
func cleanJSONOutput(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}
	return text
}

var (
	attendeesPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:people|attendees|managers|employees|guests)`)
	dollarPattern    = regexp.MustCompile(`\$\s*([\d,]+)`)
	budgetPattern    = regexp.MustCompile(`(?i)budget\s*(?:of\s*)?([\d,]+)`)
	durationRef      = regexp.MustCompile(`(?i)(\d+)\s*(?:-?\s*)?(day|night)`)
	originPattern    = regexp.MustCompile(`(?i)(?:from|departing|leaving)\s+([A-Za-z][A-Za-z\s]*?)(?:\s*,|\s+to\s|\s*\.|$)`)

	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:retreat|trip|event|conference|meeting)\s+(?:in|at|to)\s+([A-Za-z][A-Za-z\s]+?)(?:\s+for|\s+with|,|\.|$)`),
		regexp.MustCompile(`(?:in|at|to)\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)?)(?:\s+for|,|\.|$)`),
		regexp.MustCompile(`(?i)destination[:\s]+([A-Za-z][A-Za-z\s,]+?)(?:\.|,|$)`),
	}
	trailingFiller = regexp.MustCompile(`(?i)\s+(for|with|and)\s*$`)
)

func parseNumber(s string) int {
	n, _ := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	return n
}

func extractLocation(text string) string {
	for _, pattern := range locationPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		loc := trailingFiller.ReplaceAllString(strings.TrimSpace(m[1]), "")
		if len(loc) >= 2 {
			return loc
		}
	}
	return ""
}

// fallbackParse extracts requirements from raw text with regex heuristics.
// Defaults mirror the interactive flow: a mid-sized retreat when the text
// gives nothing to work with.
func fallbackParse(text string) contractx.Requirements {
	req := contractx.Requirements{
		Attendees: 50,
		Budget:    60000,
		Duration:  "2 days",
	}

	if m := attendeesPattern.FindStringSubmatch(text); m != nil {
		req.Attendees = parseNumber(m[1])
	}
	if m := dollarPattern.FindStringSubmatch(text); m != nil {
		req.Budget = float64(parseNumber(m[1]))
	} else if m := budgetPattern.FindStringSubmatch(text); m != nil {
		req.Budget = float64(parseNumber(m[1]))
	}
	if m := durationRef.FindStringSubmatch(text); m != nil {
		req.Duration = m[1] + " days"
	}
	if m := originPattern.FindStringSubmatch(text); m != nil {
		req.Origin = strings.TrimSpace(m[1])
	}
	req.Location = extractLocation(text)

	lower := strings.ToLower(text)
	if strings.Contains(lower, "hotel") {
		req.MustHaves = append(req.MustHaves, "hotel")
	}
	if strings.Contains(lower, "flight") {
		req.MustHaves = append(req.MustHaves, "flights")
	}
	if strings.Contains(lower, "meeting") || strings.Contains(lower, "conference") {
		req.MustHaves = append(req.MustHaves, "meeting room")
	}
	if strings.Contains(lower, "catering") || strings.Contains(lower, "food") || strings.Contains(lower, "meal") {
		req.MustHaves = append(req.MustHaves, "catering")
	}
	return req
}

// ensureRequiredFields backfills required fields the model missed from the
// original input.
func ensureRequiredFields(req *contractx.Requirements, original string) {
	if req.Attendees <= 0 {
		if m := attendeesPattern.FindStringSubmatch(original); m != nil {
			req.Attendees = parseNumber(m[1])
		} else {
			req.Attendees = 50
		}
	}
	if req.Budget <= 0 {
		if m := dollarPattern.FindStringSubmatch(original); m != nil {
			req.Budget = float64(parseNumber(m[1]))
		} else if m := budgetPattern.FindStringSubmatch(original); m != nil {
			req.Budget = float64(parseNumber(m[1]))
		} else {
			req.Budget = 50000
		}
	}
	if strings.TrimSpace(req.Location) == "" {
		req.Location = extractLocation(original)
	}
	if strings.TrimSpace(req.Duration) == "" {
		if m := durationRef.FindStringSubmatch(original); m != nil {
			req.Duration = m[1] + " days"
		} else {
			req.Duration = "2 days"
		}
	}
}
