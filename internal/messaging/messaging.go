package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	AnomalyQueue    = "anomaly_queue"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// AnomalyTaskPayload is the queued side effect emitted when payout
// verification or risk prediction flags an out-of-bounds condition. The
// anomaly record is written by the worker, decoupled from the request that
// detected it.
type AnomalyTaskPayload struct {
	WorkerId uuid.UUID
	Type     string
	Details  map[string]any
	Score    float64
	Reasons  []string
}

type Publisher interface {
	PublishAnomalyTask(ctx context.Context, payload AnomalyTaskPayload) error

	Close()
}

type Receiver interface {
	Tasks() <-chan Task

	Close()
}
