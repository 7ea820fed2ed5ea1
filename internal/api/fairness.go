package api

import (
	"log/slog"
	"net/http"
)

func (s *BackendService) GetFairnessScore(r *http.Request) (any, error) {
	workerId, err := URLParamUUID(r, "worker_id")
	if err != nil {
		return nil, err
	}

	score, err := s.fairness.Compute(r.Context(), workerId)
	if err != nil {
		slog.Error("error computing fairness score", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing fairness score")
	}

	return score, nil
}
