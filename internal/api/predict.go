package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"gigfair-backend/internal/database"
	"gigfair-backend/internal/messaging"
	"gigfair-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func (s *BackendService) PredictSuspension(r *http.Request) (any, error) {
	workerId, err := WorkerId(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.PredictRequest](r)
	if err != nil {
		return nil, err
	}
	if req.RecentStats == nil {
		return nil, CodedErrorf(http.StatusBadRequest, "missing recentStats")
	}

	ctx := r.Context()

	prediction := s.predictor.Predict(ctx, *req.RecentStats)

	// The prediction is delivered to the caller even if the audit trail
	// fails to persist.
	if err := s.saveAssessment(r, workerId, *req.RecentStats, prediction); err != nil {
		slog.Error("error saving risk assessment", "worker_id", workerId, "error", err)
	}

	if prediction.RiskLevel == api.RiskHigh {
		s.publishAnomaly(ctx, messaging.AnomalyTaskPayload{
			WorkerId: workerId,
			Type:     database.AnomalySuspensionRisk,
			Details: map[string]any{
				"riskLevel": prediction.RiskLevel,
				"score":     prediction.Score,
			},
			Score:   prediction.Score,
			Reasons: prediction.Reasons,
		})
	}

	return prediction, nil
}

func (s *BackendService) saveAssessment(r *http.Request, workerId uuid.UUID, stats api.RecentStats, prediction api.Prediction) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	predictionJSON, err := json.Marshal(prediction)
	if err != nil {
		return err
	}

	assessment := database.RiskAssessment{
		Id:           uuid.New(),
		UserId:       workerId,
		Stats:        datatypes.JSON(statsJSON),
		Prediction:   datatypes.JSON(predictionJSON),
		CreationTime: time.Now().UTC(),
	}

	return s.db.WithContext(r.Context()).Create(&assessment).Error
}

func (s *BackendService) GetPredictionHistory(r *http.Request) (any, error) {
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
		Order("creation_time DESC")
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	history := []database.RiskAssessment{}
	if err := query.Find(&history).Error; err != nil {
		slog.Error("error listing risk assessments", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving prediction history")
	}

	return struct {
		Items []database.RiskAssessment `json:"items"`
	}{Items: history}, nil
}
