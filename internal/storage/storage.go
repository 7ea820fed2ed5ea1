package storage

import (
	"context"
	"io"
)

// ObjectStore is the durable home for uploaded evidence files. PutObject
// returns the retrieval URL recorded alongside the evidence's integrity
// hash.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data io.Reader) (string, error)

	GetObject(ctx context.Context, key string) ([]byte, error)
}
