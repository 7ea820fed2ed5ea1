package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gigfair-backend/internal/database"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnomalyWorker drains the anomaly queue and persists anomaly records.
// Anomalies are audit records, not primary state: a failed insert is logged
// and the message acked, never retried into a poison loop.
type AnomalyWorker struct {
	db       *gorm.DB
	receiver Receiver
}

func NewAnomalyWorker(db *gorm.DB, receiver Receiver) *AnomalyWorker {
	return &AnomalyWorker{db: db, receiver: receiver}
}

// Run consumes until the context is cancelled or the receiver's task
// channel closes.
func (w *AnomalyWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-w.receiver.Tasks():
			if !ok {
				return
			}
			w.handleTask(ctx, task)
		}
	}
}

func (w *AnomalyWorker) handleTask(ctx context.Context, task Task) {
	var payload AnomalyTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error("error decoding anomaly task payload", "error", err)
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting anomaly task", "error", err)
		}
		return
	}

	if err := w.recordAnomaly(ctx, payload); err != nil {
		slog.Error("error persisting anomaly record", "worker_id", payload.WorkerId, "type", payload.Type, "error", err)
	}

	if err := task.Ack(); err != nil {
		slog.Error("error acking anomaly task", "error", err)
	}
}

func (w *AnomalyWorker) recordAnomaly(ctx context.Context, payload AnomalyTaskPayload) error {
	details, err := json.Marshal(payload.Details)
	if err != nil {
		return err
	}
	reasons, err := json.Marshal(payload.Reasons)
	if err != nil {
		return err
	}

	anomaly := database.Anomaly{
		Id:           uuid.New(),
		UserId:       payload.WorkerId,
		Type:         payload.Type,
		Details:      datatypes.JSON(details),
		Score:        payload.Score,
		Reasons:      datatypes.JSON(reasons),
		CreationTime: time.Now().UTC(),
	}

	return w.db.WithContext(ctx).Create(&anomaly).Error
}
