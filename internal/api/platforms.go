package api

import (
	"log/slog"
	"net/http"
	"time"

	"gigfair-backend/internal/database"
	"gigfair-backend/pkg/api"

	"github.com/google/uuid"
)

func validRating(r int) bool {
	return r >= 1 && r <= 10
}

func (s *BackendService) RatePlatform(r *http.Request) (any, error) {
	workerId, err := WorkerId(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.RatePlatformRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Platform == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "platform is required")
	}
	if !validRating(req.Ratings.Payment) || !validRating(req.Ratings.Suspension) || !validRating(req.Ratings.Support) {
		return nil, CodedErrorf(http.StatusBadRequest, "ratings must be between 1 and 10")
	}

	rating := database.PlatformRating{
		Id:               uuid.New(),
		UserId:           workerId,
		Platform:         req.Platform,
		PaymentRating:    req.Ratings.Payment,
		SuspensionRating: req.Ratings.Suspension,
		SupportRating:    req.Ratings.Support,
		Comment:          req.Comment,
		CreationTime:     time.Now().UTC(),
	}

	if err := s.db.WithContext(r.Context()).Create(&rating).Error; err != nil {
		slog.Error("error saving platform rating", "worker_id", workerId, "platform", req.Platform, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save rating")
	}

	return rating, nil
}

// GetPlatformIndex averages every rating ever submitted, grouped by platform.
// It is intentionally not scoped to the calling worker.
func (s *BackendService) GetPlatformIndex(r *http.Request) (any, error) {
	entries := []api.PlatformIndexEntry{}
	err := s.db.WithContext(r.Context()).
		Model(&database.PlatformRating{}).
		Select("platform, AVG(payment_rating) AS avg_payment, AVG(suspension_rating) AS avg_suspension, AVG(support_rating) AS avg_support, COUNT(*) AS count").
		Group("platform").
		Order("platform ASC").
		Scan(&entries).Error
	if err != nil {
		slog.Error("error computing platform index", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error computing platform index")
	}

	return struct {
		Items []api.PlatformIndexEntry `json:"items"`
	}{Items: entries}, nil
}

func (s *BackendService) GetWorkerRatings(r *http.Request) (any, error) {
	workerId, err := URLParamUUID(r, "worker_id")
	if err != nil {
		return nil, err
	}

	ratings := []database.PlatformRating{}
	err = s.db.WithContext(r.Context()).
		Where("user_id = ?", workerId).
		Order("creation_time DESC").
		Find(&ratings).Error
	if err != nil {
		slog.Error("error listing ratings", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving ratings")
	}

	return struct {
		Items []database.PlatformRating `json:"items"`
	}{Items: ratings}, nil
}
