package payout_test

import (
	"testing"

	"gigfair-backend/internal/payout"
	"gigfair-backend/pkg/api"

	"github.com/stretchr/testify/assert"
)

func floatPtr(f float64) *float64 { return &f }

func TestVerifyWithTotal(t *testing.T) {
	res := payout.Verify(api.Statement{Total: floatPtr(120.50)}, 120.50)

	assert.True(t, res.Verified)
	assert.Equal(t, 120.50, res.Expected)
	assert.Equal(t, 0.0, res.Delta)
	assert.Empty(t, res.Issues)
}

func TestVerifyTotalWinsOverItems(t *testing.T) {
	stmt := api.Statement{
		Total: floatPtr(100),
		Items: []api.LineItem{{Amount: 40}, {Amount: 40}},
	}

	res := payout.Verify(stmt, 100)
	assert.True(t, res.Verified)
	assert.Equal(t, 100.0, res.Expected)
}

func TestVerifyZeroTotalIsStillTotal(t *testing.T) {
	stmt := api.Statement{
		Total: floatPtr(0),
		Items: []api.LineItem{{Amount: 40}},
	}

	res := payout.Verify(stmt, 0)
	assert.True(t, res.Verified)
	assert.Equal(t, 0.0, res.Expected)
}

func TestVerifyWithItems(t *testing.T) {
	stmt := api.Statement{Items: []api.LineItem{{Amount: 25}, {Amount: 30.25}, {}}}

	res := payout.Verify(stmt, 55.25)
	assert.True(t, res.Verified)
	assert.Equal(t, 55.25, res.Expected)
}

func TestVerifyEmptyStatement(t *testing.T) {
	res := payout.Verify(api.Statement{}, 42)

	assert.False(t, res.Verified)
	assert.Equal(t, 0.0, res.Expected)
	assert.Equal(t, 42.0, res.Delta)
	assert.Equal(t, []string{payout.IssuePaymentMismatch}, res.Issues)
}

func TestVerifyUnderpayment(t *testing.T) {
	res := payout.Verify(api.Statement{Total: floatPtr(200)}, 150)

	assert.False(t, res.Verified)
	assert.Equal(t, -50.0, res.Delta)
	assert.Contains(t, res.Issues, payout.IssuePaymentMismatch)
}

func TestVerifyNegativeActual(t *testing.T) {
	// Negative amounts are accepted as provided; no bounds are enforced.
	res := payout.Verify(api.Statement{Total: floatPtr(10)}, -5)

	assert.False(t, res.Verified)
	assert.Equal(t, -15.0, res.Delta)
}
