package payout

import (
	"gigfair-backend/pkg/api"
)

const IssuePaymentMismatch = "payment_mismatch"

type Result struct {
	Verified bool
	Expected float64
	Delta    float64
	Issues   []string
}

// Expected resolves the expected earnings from a statement: the flat total
// wins when present, otherwise the line items are summed, otherwise zero.
func Expected(stmt api.Statement) float64 {
	if stmt.Total != nil {
		return *stmt.Total
	}

	var sum float64
	for _, item := range stmt.Items {
		sum += item.Amount
	}
	return sum
}

// Verify compares the amount a worker actually received against the
// statement's expected earnings. A payout is verified exactly when the
// delta is zero; anything else is tagged as a payment mismatch.
func Verify(stmt api.Statement, actualReceived float64) Result {
	expected := Expected(stmt)
	delta := actualReceived - expected

	issues := []string{}
	if delta != 0 {
		issues = append(issues, IssuePaymentMismatch)
	}

	return Result{
		Verified: delta == 0,
		Expected: expected,
		Delta:    delta,
		Issues:   issues,
	}
}
