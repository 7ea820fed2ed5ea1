package risk_test

import (
	"context"
	"errors"
	"testing"

	"gigfair-backend/internal/risk"
	"gigfair-backend/pkg/api"

	"github.com/stretchr/testify/assert"
)

type stubGenerator struct {
	response string
	err      error
}

func (g *stubGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.response, g.err
}

func TestFallbackAccumulatesAndClamps(t *testing.T) {
	p := risk.NewPredictor(nil)

	pred := p.Predict(context.Background(), api.RecentStats{
		Cancellations: 6,
		AcceptRate:    70,
		AvgRating:     4.0,
		Penalties:     1,
	})

	// 0.4 + 0.3 + 0.3 + 0.5 clamped to 0.99
	assert.Equal(t, 0.99, pred.Score)
	assert.Equal(t, api.RiskHigh, pred.RiskLevel)
	assert.Len(t, pred.Reasons, 3)
	assert.Len(t, pred.Mitigation, 3)
}

func TestFallbackCleanRecord(t *testing.T) {
	p := risk.NewPredictor(nil)

	pred := p.Predict(context.Background(), api.RecentStats{
		Cancellations: 0,
		AcceptRate:    95,
		AvgRating:     4.9,
		Penalties:     0,
	})

	assert.Equal(t, api.RiskLow, pred.RiskLevel)
	assert.Equal(t, 0.0, pred.Score)
	assert.Len(t, pred.Reasons, 1)
	assert.Len(t, pred.Mitigation, 1)
}

func TestFallbackMediumLevel(t *testing.T) {
	p := risk.NewPredictor(nil)

	pred := p.Predict(context.Background(), api.RecentStats{
		Cancellations: 0,
		AcceptRate:    95,
		AvgRating:     4.9,
		Penalties:     2,
	})

	assert.Equal(t, 0.5, pred.Score)
	assert.Equal(t, api.RiskMedium, pred.RiskLevel)
	assert.Equal(t, []string{"recent penalties on record"}, pred.Reasons)
}

func TestGeneratorErrorFallsBackSilently(t *testing.T) {
	p := risk.NewPredictor(&stubGenerator{err: errors.New("connection refused")})

	pred := p.Predict(context.Background(), api.RecentStats{AcceptRate: 95, AvgRating: 4.9})

	assert.Equal(t, api.RiskLow, pred.RiskLevel)
	assert.NotEmpty(t, pred.Reasons)
}

func TestGeneratorResponseParsed(t *testing.T) {
	p := risk.NewPredictor(&stubGenerator{
		response: "```json\n{\"riskLevel\":\"medium\",\"score\":0.45,\"reasons\":[\"spotty acceptance\"],\"mitigation\":[\"accept more trips\"]}\n```",
	})

	pred := p.Predict(context.Background(), api.RecentStats{})

	assert.Equal(t, api.RiskMedium, pred.RiskLevel)
	assert.Equal(t, 0.45, pred.Score)
	assert.Equal(t, []string{"spotty acceptance"}, pred.Reasons)
}

func TestMalformedGeneratorResponse(t *testing.T) {
	p := risk.NewPredictor(&stubGenerator{response: "I think the risk is {not really json"})

	pred := p.Predict(context.Background(), api.RecentStats{Penalties: 3})

	assert.Equal(t, api.RiskUnknown, pred.RiskLevel)
	assert.Equal(t, 0.0, pred.Score)
	assert.Equal(t, []string{"parse error"}, pred.Reasons)
	assert.Empty(t, pred.Mitigation)
}
