package api

import (
	"errors"
	"log/slog"
	"net/http"

	"gigfair-backend/internal/database"
	"gigfair-backend/pkg/api"

	"gorm.io/gorm"
)

func (s *BackendService) GetMe(r *http.Request) (any, error) {
	workerId, err := WorkerId(r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	var user database.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", workerId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "user not found")
		}
		slog.Error("error getting user", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving user")
	}

	score, err := s.fairness.Compute(ctx, workerId)
	if err != nil {
		slog.Error("error computing fairness summary", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing fairness summary")
	}

	return api.ProfileResponse{
		Id:              user.Id,
		Name:            user.Name,
		Phone:           user.Phone,
		Role:            user.Role,
		Language:        user.Language,
		FairnessSummary: score,
	}, nil
}

func (s *BackendService) UpdateMe(r *http.Request) (any, error) {
	workerId, err := WorkerId(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.UpdateProfileRequest](r)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Language != "" {
		updates["language"] = req.Language
	}

	ctx := r.Context()

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).
			Model(&database.User{Id: workerId}).
			Updates(updates).Error
		if err != nil {
			slog.Error("error updating user", "worker_id", workerId, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "failed to update profile")
		}
	}

	var user database.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", workerId).Error; err != nil {
		slog.Error("error getting user after update", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving user")
	}

	return api.UserInfo{Id: user.Id, Name: user.Name, Phone: user.Phone}, nil
}
