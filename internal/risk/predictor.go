package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gigfair-backend/internal/llm"
	"gigfair-backend/pkg/api"
)

const maxListedItems = 3

const systemPrompt = `You are a gig-platform risk assessor. RETURN ONLY valid JSON: { "riskLevel":"low|medium|high", "score":0.00, "reasons":[...], "mitigation":[...] }.`

// Predictor turns worker activity stats into a suspension-risk verdict. It
// prefers the text-generation collaborator and substitutes the rule-based
// scorer whenever the collaborator is unavailable or errors, without
// surfacing that substitution to the caller.
type Predictor struct {
	generator llm.Generator
}

// NewPredictor accepts a nil generator, in which case every prediction uses
// the rule-based scorer.
func NewPredictor(generator llm.Generator) *Predictor {
	return &Predictor{generator: generator}
}

func (p *Predictor) Predict(ctx context.Context, stats api.RecentStats) api.Prediction {
	if p.generator == nil {
		return rulePrediction(stats)
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		slog.Error("error marshaling stats for risk prompt", "error", err)
		return rulePrediction(stats)
	}

	prompt := fmt.Sprintf("Stats: %s\nInstruction: Evaluate suspension risk and return JSON only. Provide up to %d reasons and %d short mitigation tips.", statsJSON, maxListedItems, maxListedItems)

	text, err := p.generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		slog.Warn("risk generator unavailable, using rule-based fallback", "error", err)
		return rulePrediction(stats)
	}

	return parsePrediction(text)
}

// parsePrediction never fails: a malformed collaborator response degrades
// to an "unknown" verdict rather than an error.
func parsePrediction(text string) api.Prediction {
	parseError := api.Prediction{
		RiskLevel:  api.RiskUnknown,
		Score:      0,
		Reasons:    []string{"parse error"},
		Mitigation: []string{},
	}

	obj, err := llm.ExtractJSONObject(text)
	if err != nil {
		slog.Error("no JSON object in risk generator response", "error", err)
		return parseError
	}

	var pred api.Prediction
	if err := json.Unmarshal([]byte(obj), &pred); err != nil {
		slog.Error("error parsing risk generator response", "error", err)
		return parseError
	}

	if pred.Reasons == nil {
		pred.Reasons = []string{}
	}
	if pred.Mitigation == nil {
		pred.Mitigation = []string{}
	}
	return pred
}

func rulePrediction(stats api.RecentStats) api.Prediction {
	var score float64
	var reasons, mitigation []string

	if stats.Cancellations > 5 {
		score += 0.4
		reasons = append(reasons, "high cancellation rate")
		mitigation = append(mitigation, "avoid cancelling accepted trips")
	}
	if stats.AcceptRate < 80 {
		score += 0.3
		reasons = append(reasons, "low acceptance rate")
		mitigation = append(mitigation, "accept more incoming requests")
	}
	if stats.AvgRating < 4.5 {
		score += 0.3
		reasons = append(reasons, "rating below threshold")
		mitigation = append(mitigation, "improve service quality")
	}
	if stats.Penalties > 0 {
		score += 0.5
		reasons = append(reasons, "recent penalties on record")
		mitigation = append(mitigation, "review platform guidelines")
	}

	level := api.RiskLow
	if score > 0.7 {
		level = api.RiskHigh
	} else if score > 0.3 {
		level = api.RiskMedium
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "account activity looks good")
		mitigation = append(mitigation, "keep up the good work")
	}

	if score > 0.99 {
		score = 0.99
	}

	return api.Prediction{
		RiskLevel:  level,
		Score:      score,
		Reasons:    truncate(reasons),
		Mitigation: truncate(mitigation),
	}
}

func truncate(items []string) []string {
	if len(items) > maxListedItems {
		return items[:maxListedItems]
	}
	return items
}
