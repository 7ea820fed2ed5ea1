package fairness_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"gigfair-backend/internal/database"
	"gigfair-backend/internal/fairness"
	"gigfair-backend/pkg/api"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T, create ...any) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.GetMigrator(db).Migrate())

	for _, c := range create {
		require.NoError(t, db.Create(c).Error)
	}

	return db
}

func predictionJSON(t *testing.T, pred api.Prediction) datatypes.JSON {
	data, err := json.Marshal(pred)
	require.NoError(t, err)
	return datatypes.JSON(data)
}

func payoutRow(workerId uuid.UUID, verified bool) *database.Payout {
	return &database.Payout{
		Id:       uuid.New(),
		UserId:   workerId,
		Platform: "rideshare",
		Period:   "2023-W40",
		Verified: verified,
	}
}

func TestEmptyWorkerScoresPerfect(t *testing.T) {
	db := createDB(t)
	agg := fairness.NewAggregator(db)

	score, err := agg.Compute(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 100, score.Score)
	assert.Equal(t, api.FairnessComponents{Payment: 100, Suspension: 100, Rating: 100, Disputes: 100}, score.Components)
	assert.Empty(t, score.History)
}

func TestPaymentComponent(t *testing.T) {
	workerId := uuid.New()
	db := createDB(t,
		payoutRow(workerId, true),
		payoutRow(workerId, true),
		payoutRow(workerId, false),
	)

	score, err := fairness.NewAggregator(db).Compute(context.Background(), workerId)
	require.NoError(t, err)

	// 2/3 verified rounds to 67
	assert.Equal(t, 67, score.Components.Payment)
	assert.Equal(t, 100, score.Components.Suspension)
}

func TestSuspensionUsesLatestAssessment(t *testing.T) {
	workerId := uuid.New()
	db := createDB(t,
		&database.RiskAssessment{
			Id:           uuid.New(),
			UserId:       workerId,
			Prediction:   predictionJSON(t, api.Prediction{RiskLevel: api.RiskHigh, Score: 0.9}),
			CreationTime: time.Now().Add(-time.Hour),
		},
		&database.RiskAssessment{
			Id:           uuid.New(),
			UserId:       workerId,
			Prediction:   predictionJSON(t, api.Prediction{RiskLevel: api.RiskLow, Score: 0.2}),
			CreationTime: time.Now(),
		},
	)

	score, err := fairness.NewAggregator(db).Compute(context.Background(), workerId)
	require.NoError(t, err)

	assert.Equal(t, 80, score.Components.Suspension)
}

func TestSuspensionClampedAtZero(t *testing.T) {
	workerId := uuid.New()
	db := createDB(t, &database.RiskAssessment{
		Id:           uuid.New(),
		UserId:       workerId,
		Prediction:   predictionJSON(t, api.Prediction{RiskLevel: api.RiskHigh, Score: 1.2}),
		CreationTime: time.Now(),
	})

	score, err := fairness.NewAggregator(db).Compute(context.Background(), workerId)
	require.NoError(t, err)

	assert.Equal(t, 0, score.Components.Suspension)
}

func TestRatingComponent(t *testing.T) {
	workerId := uuid.New()
	db := createDB(t,
		&database.PlatformRating{Id: uuid.New(), UserId: workerId, Platform: "a", PaymentRating: 5, SuspensionRating: 5, SupportRating: 5},
		&database.PlatformRating{Id: uuid.New(), UserId: workerId, Platform: "b", PaymentRating: 10, SuspensionRating: 10, SupportRating: 10},
	)

	score, err := fairness.NewAggregator(db).Compute(context.Background(), workerId)
	require.NoError(t, err)

	// mean of 5 and 10 on the 1-10 scale is 7.5, scaled to 75
	assert.Equal(t, 75, score.Components.Rating)
}

func TestDisputeComponent(t *testing.T) {
	workerId := uuid.New()
	db := createDB(t,
		&database.Dispute{Id: uuid.New(), UserId: workerId, Title: "a", Status: database.DisputeResolved},
		&database.Dispute{Id: uuid.New(), UserId: workerId, Title: "b", Status: database.DisputeOpen},
	)

	score, err := fairness.NewAggregator(db).Compute(context.Background(), workerId)
	require.NoError(t, err)

	assert.Equal(t, 50, score.Components.Disputes)
}

func TestWeightedComposite(t *testing.T) {
	workerId := uuid.New()
	db := createDB(t,
		payoutRow(workerId, false),
		&database.RiskAssessment{
			Id:           uuid.New(),
			UserId:       workerId,
			Prediction:   predictionJSON(t, api.Prediction{Score: 0.5}),
			CreationTime: time.Now(),
		},
		&database.PlatformRating{Id: uuid.New(), UserId: workerId, Platform: "a", PaymentRating: 5, SuspensionRating: 5, SupportRating: 5},
		&database.Dispute{Id: uuid.New(), UserId: workerId, Title: "a", Status: database.DisputeOpen},
	)

	score, err := fairness.NewAggregator(db).Compute(context.Background(), workerId)
	require.NoError(t, err)

	// 0*0.40 + 50*0.25 + 50*0.20 + 0*0.15 = 22.5, rounds to 23
	assert.Equal(t, 23, score.Score)
	assert.Equal(t, api.FairnessComponents{Payment: 0, Suspension: 50, Rating: 50, Disputes: 0}, score.Components)
}

func TestWorkersAreIsolated(t *testing.T) {
	workerId, other := uuid.New(), uuid.New()
	db := createDB(t, payoutRow(other, false))

	score, err := fairness.NewAggregator(db).Compute(context.Background(), workerId)
	require.NoError(t, err)

	assert.Equal(t, 100, score.Score)
}

func TestComputeIsIdempotent(t *testing.T) {
	workerId := uuid.New()
	db := createDB(t,
		payoutRow(workerId, true),
		payoutRow(workerId, false),
		&database.Dispute{Id: uuid.New(), UserId: workerId, Title: "a", Status: database.DisputeOpen},
	)

	agg := fairness.NewAggregator(db)
	first, err := agg.Compute(context.Background(), workerId)
	require.NoError(t, err)
	second, err := agg.Compute(context.Background(), workerId)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScoreBounds(t *testing.T) {
	workerId := uuid.New()
	db := createDB(t,
		payoutRow(workerId, false),
		&database.RiskAssessment{
			Id:           uuid.New(),
			UserId:       workerId,
			Prediction:   predictionJSON(t, api.Prediction{Score: 0.99}),
			CreationTime: time.Now(),
		},
		&database.PlatformRating{Id: uuid.New(), UserId: workerId, Platform: "a", PaymentRating: 1, SuspensionRating: 1, SupportRating: 1},
		&database.Dispute{Id: uuid.New(), UserId: workerId, Title: "a", Status: database.DisputeOpen},
	)

	score, err := fairness.NewAggregator(db).Compute(context.Background(), workerId)
	require.NoError(t, err)

	for _, v := range []int{score.Score, score.Components.Payment, score.Components.Suspension, score.Components.Rating, score.Components.Disputes} {
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 100)
	}
}

func TestWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, fairness.WeightPayment+fairness.WeightSuspension+fairness.WeightRating+fairness.WeightDisputes, 1e-9)
}
