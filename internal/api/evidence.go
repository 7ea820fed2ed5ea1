package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"gigfair-backend/internal/database"
	"gigfair-backend/pkg/api"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const maxEvidenceUploadSize = 32 << 20

func (s *BackendService) UploadEvidence(r *http.Request) (any, error) {
	workerId, err := WorkerId(r)
	if err != nil {
		return nil, err
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxEvidenceUploadSize)
	if err := r.ParseMultipartForm(maxEvidenceUploadSize); err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "invalid multipart request: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, CodedErrorf(http.StatusBadRequest, "missing file field: %v", err)
	}
	defer file.Close()

	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, CodedErrorf(http.StatusBadRequest, "tags must be a json array of strings")
		}
	}

	evidenceId := uuid.New()
	key := fmt.Sprintf("evidence/%s/%s", evidenceId, filepath.Base(header.Filename))

	hash := sha256.New()
	url, err := s.objects.PutObject(r.Context(), key, io.TeeReader(file, hash))
	if err != nil {
		slog.Error("error storing evidence object", "worker_id", workerId, "key", key, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to store evidence")
	}
	digest := hex.EncodeToString(hash.Sum(nil))

	tagsJson, err := json.Marshal(tags)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to encode tags")
	}

	evidence := database.Evidence{
		Id:           evidenceId,
		UserId:       workerId,
		TripId:       r.FormValue("tripId"),
		StorageUrl:   url,
		Sha256:       digest,
		Tags:         datatypes.JSON(tagsJson),
		CreationTime: time.Now().UTC(),
	}

	if err := s.db.WithContext(r.Context()).Create(&evidence).Error; err != nil {
		slog.Error("error saving evidence record", "worker_id", workerId, "evidence_id", evidenceId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save evidence")
	}

	return api.UploadEvidenceResponse{
		EvidenceId: evidence.Id,
		Sha256:     evidence.Sha256,
		StorageUrl: evidence.StorageUrl,
	}, nil
}

func (s *BackendService) GetEvidence(r *http.Request) (any, error) {
	workerId, err := URLParamUUID(r, "worker_id")
	if err != nil {
		return nil, err
	}

	evidence := []database.Evidence{}
	err = s.db.WithContext(r.Context()).
		Where("user_id = ?", workerId).
		Order("creation_time DESC").
		Find(&evidence).Error
	if err != nil {
		slog.Error("error listing evidence", "worker_id", workerId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving evidence")
	}

	return struct {
		Items []database.Evidence `json:"items"`
	}{Items: evidence}, nil
}
