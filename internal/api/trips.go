package api

import (
	"log/slog"
	"net/http"
	"time"

	"gigfair-backend/internal/database"
	"gigfair-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func (s *BackendService) CreateTrip(r *http.Request) (any, error) {
	workerId, err := WorkerId(r)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.CreateTripRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Platform == "" || req.TripId == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "platform and tripId are required")
	}

	trip := database.Trip{
		Id:           uuid.New(),
		UserId:       workerId,
		Platform:     req.Platform,
		TripId:       req.TripId,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		GpsPath:      datatypes.JSON(req.GpsPath),
		Meta:         datatypes.JSON(req.Meta),
		CreationTime: time.Now().UTC(),
	}

	if err := s.db.WithContext(r.Context()).Create(&trip).Error; err != nil {
		slog.Error("error saving trip", "worker_id", workerId, "trip_id", req.TripId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save trip")
	}

	return api.CreateTripResponse{Id: trip.Id}, nil
}

func (s *BackendService) GetTrips(r *http.Request) (any, error) {
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
		Order("start_time DESC")
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	trips := []database.Trip{}
	if err := query.Find(&trips).Error; err != nil {
		slog.Error("error listing trips", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving trips")
	}

	return struct {
		Items []database.Trip `json:"items"`
	}{Items: trips}, nil
}
