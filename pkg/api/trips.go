package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CreateTripRequest struct {
	Platform  string          `json:"platform"`
	TripId    string          `json:"tripId"`
	StartTime time.Time       `json:"startTime"`
	EndTime   time.Time       `json:"endTime"`
	GpsPath   json.RawMessage `json:"gpsPath"`
	Meta      json.RawMessage `json:"meta"`
}

type CreateTripResponse struct {
	Id uuid.UUID `json:"id"`
}

type UploadEvidenceResponse struct {
	EvidenceId uuid.UUID `json:"evidenceId"`
	Sha256     string    `json:"sha256"`
	StorageUrl string    `json:"storageUrl"`
}
