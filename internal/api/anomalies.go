package api

import (
	"errors"
	"log/slog"
	"net/http"

	"gigfair-backend/internal/database"

	"gorm.io/gorm"
)

func (s *BackendService) GetAnomalies(r *http.Request) (any, error) {
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

	anomalies := []database.Anomaly{}
	if err := query.Find(&anomalies).Error; err != nil {
		slog.Error("error listing anomalies", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving anomalies")
	}

	return struct {
		Items []database.Anomaly `json:"items"`
	}{Items: anomalies}, nil
}

func (s *BackendService) AcknowledgeAnomaly(r *http.Request) (any, error) {
	workerId, err := WorkerId(r)
	if err != nil {
		return nil, err
	}

	anomalyId, err := URLParamUUID(r, "anomaly_id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var record database.Anomaly
	if err := s.db.WithContext(ctx).First(&record, "id = ? AND user_id = ?", anomalyId, workerId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "anomaly not found")
		}
		slog.Error("error getting anomaly", "anomaly_id", anomalyId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving anomaly")
	}

	if !record.Acknowledged {
		err := s.db.WithContext(ctx).
			Model(&database.Anomaly{Id: record.Id}).
			Update("acknowledged", true).Error
		if err != nil {
			slog.Error("error acknowledging anomaly", "anomaly_id", anomalyId, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "failed to acknowledge anomaly")
		}
	}

	return struct {
		Ok bool `json:"ok"`
	}{Ok: true}, nil
}
