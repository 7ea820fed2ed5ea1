package fairness

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"gigfair-backend/internal/database"
	"gigfair-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Component weights. These must sum to exactly 1.0; ComputeTotal guards the
// invariant at test time.
const (
	WeightPayment    = 0.40
	WeightSuspension = 0.25
	WeightRating     = 0.20
	WeightDisputes   = 0.15
)

// Aggregator computes the composite fairness score for a worker. Every call
// recomputes from the current committed state; nothing is cached or
// persisted, so staleness is bounded only by the store's read-after-write
// consistency.
type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// Compute reads the worker's payouts, latest risk assessment, platform
// ratings, and disputes, normalizes each into a 0-100 sub-score, and folds
// them into one weighted score. Empty collections default to 100: a worker
// with no history gets the benefit of the doubt. Any read failure fails the
// whole aggregation.
func (a *Aggregator) Compute(ctx context.Context, workerId uuid.UUID) (api.FairnessScore, error) {
	payment, err := a.paymentScore(ctx, workerId)
	if err != nil {
		return api.FairnessScore{}, fmt.Errorf("error computing payment component: %w", err)
	}

	suspension, err := a.suspensionScore(ctx, workerId)
	if err != nil {
		return api.FairnessScore{}, fmt.Errorf("error computing suspension component: %w", err)
	}

	rating, err := a.ratingScore(ctx, workerId)
	if err != nil {
		return api.FairnessScore{}, fmt.Errorf("error computing rating component: %w", err)
	}

	disputes, err := a.disputeScore(ctx, workerId)
	if err != nil {
		return api.FairnessScore{}, fmt.Errorf("error computing disputes component: %w", err)
	}

	total := payment*WeightPayment + suspension*WeightSuspension + rating*WeightRating + disputes*WeightDisputes

	return api.FairnessScore{
		Score: int(math.Round(total)),
		Components: api.FairnessComponents{
			Payment:    int(math.Round(payment)),
			Suspension: int(math.Round(suspension)),
			Rating:     int(math.Round(rating)),
			Disputes:   int(math.Round(disputes)),
		},
		History: []api.FairnessSnapshot{},
	}, nil
}

// paymentScore is the share of the worker's payouts that verified cleanly.
func (a *Aggregator) paymentScore(ctx context.Context, workerId uuid.UUID) (float64, error) {
	var total, verified int64
	if err := a.db.WithContext(ctx).Model(&database.Payout{}).Where("user_id = ?", workerId).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 100, nil
	}

	if err := a.db.WithContext(ctx).Model(&database.Payout{}).Where("user_id = ? AND verified = ?", workerId, true).Count(&verified).Error; err != nil {
		return 0, err
	}

	return float64(verified) / float64(total) * 100, nil
}

// suspensionScore inverts the risk score of the worker's most recent
// assessment: the explicit ordered query (creation time descending, take
// first) replaces any reliance on insertion order.
func (a *Aggregator) suspensionScore(ctx context.Context, workerId uuid.UUID) (float64, error) {
	var latest []database.RiskAssessment
	err := a.db.WithContext(ctx).
		Where("user_id = ?", workerId).
		Order("creation_time DESC").
		Limit(1).
		Find(&latest).Error
	if err != nil {
		return 0, err
	}
	if len(latest) == 0 {
		return 100, nil
	}

	var pred api.Prediction
	if err := json.Unmarshal(latest[0].Prediction, &pred); err != nil {
		return 0, fmt.Errorf("error decoding stored prediction: %w", err)
	}

	return clamp(100-pred.Score*100, 0, 100), nil
}

// ratingScore averages each rating's three sub-fields (1-10 scale) across
// all of the worker's platform ratings, scaled onto 0-100.
func (a *Aggregator) ratingScore(ctx context.Context, workerId uuid.UUID) (float64, error) {
	var ratings []database.PlatformRating
	if err := a.db.WithContext(ctx).Where("user_id = ?", workerId).Find(&ratings).Error; err != nil {
		return 0, err
	}
	if len(ratings) == 0 {
		return 100, nil
	}

	var sum float64
	for _, r := range ratings {
		sum += float64(r.PaymentRating+r.SuspensionRating+r.SupportRating) / 3
	}

	return sum / float64(len(ratings)) * 10, nil
}

// disputeScore is the worker's dispute resolution rate.
func (a *Aggregator) disputeScore(ctx context.Context, workerId uuid.UUID) (float64, error) {
	var total, resolved int64
	if err := a.db.WithContext(ctx).Model(&database.Dispute{}).Where("user_id = ?", workerId).Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 100, nil
	}

	if err := a.db.WithContext(ctx).Model(&database.Dispute{}).Where("user_id = ? AND status = ?", workerId, database.DisputeResolved).Count(&resolved).Error; err != nil {
		return 0, err
	}

	return float64(resolved) / float64(total) * 100, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
