package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"gigfair-backend/internal/database"
	"gigfair-backend/internal/export"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExportCase writes the dispute case file as a plain text attachment. It is a
// raw handler because the response is a file download, not json.
func (s *BackendService) ExportCase(w http.ResponseWriter, r *http.Request) {
	workerId, err := WorkerId(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	disputeId, err := URLParamUUID(r, "dispute_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	var record database.Dispute
	if err := s.db.WithContext(ctx).First(&record, "id = ? AND user_id = ?", disputeId, workerId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "dispute not found", http.StatusNotFound)
			return
		}
		slog.Error("error getting dispute for export", "dispute_id", disputeId, "error", err)
		http.Error(w, "error retrieving dispute", http.StatusInternalServerError)
		return
	}

	var evidenceIds []uuid.UUID
	if len(record.EvidenceIds) > 0 {
		if err := json.Unmarshal(record.EvidenceIds, &evidenceIds); err != nil {
			slog.Error("error decoding dispute evidence ids", "dispute_id", disputeId, "error", err)
		}
	}

	evidence := []database.Evidence{}
	if len(evidenceIds) > 0 {
		err := s.db.WithContext(ctx).
			Where("user_id = ? AND id IN ?", workerId, evidenceIds).
			Order("creation_time ASC").
			Find(&evidence).Error
		if err != nil {
			slog.Error("error loading dispute evidence", "dispute_id", disputeId, "error", err)
			http.Error(w, "error retrieving evidence", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=case_%s.txt", record.Id))

	if err := export.WriteCaseFile(w, record, evidence); err != nil {
		slog.Error("error writing case file", "dispute_id", disputeId, "error", err)
	}
}
