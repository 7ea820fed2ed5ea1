package api

import (
	"errors"
	"log/slog"
	"net/http"

	"gigfair-backend/internal/database"
	"gigfair-backend/internal/dispute"
	"gigfair-backend/pkg/api"

	"gorm.io/gorm"
)

func (s *BackendService) CreateDispute(r *http.Request) (any, error) {
	workerId, err := WorkerId(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.CreateDisputeRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Title == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "title is required")
	}

	ctx := r.Context()

	workerName := req.UserName
	if workerName == "" {
		var user database.User
		if err := s.db.WithContext(ctx).First(&user, "id = ?", workerId).Error; err == nil {
			workerName = user.Name
		}
	}

	disputeId, letter, err := s.assembler.Assemble(ctx, dispute.Input{
		WorkerId:       workerId,
		WorkerName:     workerName,
		Platform:       req.Platform,
		Title:          req.Title,
		Description:    req.Description,
		EvidenceIds:    req.EvidenceIds,
		GenerateAppeal: req.GenerateAppeal,
	})
	if err != nil {
		slog.Error("error creating dispute", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to create dispute")
	}

	return api.CreateDisputeResponse{DisputeId: disputeId, AppealLetter: letter}, nil
}

func (s *BackendService) GetDisputes(r *http.Request) (any, error) {
	workerId, err := URLParamUUID(r, "worker_id")
	if err != nil {
		return nil, err
	}

	disputes := []database.Dispute{}
	err = s.db.WithContext(r.Context()).
		Where("user_id = ?", workerId).
		Order("creation_time DESC").
		Find(&disputes).Error
	if err != nil {
		slog.Error("error listing disputes", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving disputes")
	}

	return struct {
		Items []database.Dispute `json:"items"`
	}{Items: disputes}, nil
}

// ResolveDispute is the open-to-resolved transition. Dispute status is the
// only mutable field on the record.
func (s *BackendService) ResolveDispute(r *http.Request) (any, error) {
	workerId, err := WorkerId(r)
	if err != nil {
		return nil, err
	}

	disputeId, err := URLParamUUID(r, "dispute_id")
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var record database.Dispute
	if err := s.db.WithContext(ctx).First(&record, "id = ? AND user_id = ?", disputeId, workerId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "dispute not found")
		}
		slog.Error("error getting dispute", "dispute_id", disputeId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving dispute")
	}

	if record.Status != database.DisputeResolved {
		err := s.db.WithContext(ctx).
			Model(&database.Dispute{Id: record.Id}).
			Update("status", database.DisputeResolved).Error
		if err != nil {
			slog.Error("error resolving dispute", "dispute_id", disputeId, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "failed to resolve dispute")
		}
	}

	return struct {
		Ok bool `json:"ok"`
	}{Ok: true}, nil
}
