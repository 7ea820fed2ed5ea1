package api

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"gigfair-backend/internal/database"
	"gigfair-backend/internal/messaging"
	"gigfair-backend/internal/payout"
	"gigfair-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func (s *BackendService) SubmitPayout(r *http.Request) (any, error) {
	workerId, err := WorkerId(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SubmitPayoutRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Platform == "" || req.Period == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "platform and period are required")
	}

	result := payout.Verify(req.PlatformStatement, req.ActualReceived)

	statement, err := json.Marshal(req.PlatformStatement)
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "unable to encode platform statement")
	}
	issues, err := json.Marshal(result.Issues)
	if err != nil {
		slog.Error("error encoding payout issues", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to record payout")
	}

	ctx := r.Context()

	record := database.Payout{
		Id:             uuid.New(),
		UserId:         workerId,
		Platform:       req.Platform,
		Period:         req.Period,
		Statement:      datatypes.JSON(statement),
		ActualReceived: req.ActualReceived,
		Verified:       result.Verified,
		Delta:          result.Delta,
		Issues:         datatypes.JSON(issues),
		CreationTime:   time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.Error("error creating payout", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to record payout")
	}

	if !result.Verified {
		s.publishAnomaly(ctx, messaging.AnomalyTaskPayload{
			WorkerId: workerId,
			Type:     database.AnomalyPaymentDelta,
			Details: map[string]any{
				"expected": result.Expected,
				"actual":   req.ActualReceived,
				"delta":    result.Delta,
			},
			Score:   math.Abs(result.Delta),
			Reasons: []string{"payment mismatch detected"},
		})
	}

	return api.SubmitPayoutResponse{
		Verified: result.Verified,
		Expected: result.Expected,
		Delta:    result.Delta,
		Issues:   result.Issues,
	}, nil
}

func (s *BackendService) GetPayouts(r *http.Request) (any, error) {
	workerId, err := URLParamUUID(r, "worker_id")
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestQueryParams[ListParams](r)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(r.Context()).
		Where("user_id = ?", workerId).
		Order("period DESC")
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	payouts := []database.Payout{}
	if err := query.Find(&payouts).Error; err != nil {
		slog.Error("error listing payouts", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving payouts")
	}

	return struct {
		Items []database.Payout `json:"items"`
	}{Items: payouts}, nil
}
