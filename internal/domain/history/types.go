package history

import (
	"context"
	"time"
)

// Record is one persisted summary. It is never updated after insert.
type Record struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"userId"`
	Transcript string    `json:"transcript"`
	Prompt     string    `json:"prompt"`
	Summary    string    `json:"summary"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SaveRequest is the payload accepted by Save.
type SaveRequest struct {
	Transcript string `json:"transcript"`
	Prompt     string `json:"prompt,omitempty"`
	Summary    string `json:"summary"`
}

// Repository persists records. Append assigns ID and CreatedAt, overwriting any
// caller values. ListFor orders by CreatedAt descending. FindByID reports a
// malformed id as not found.
type Repository interface {
	Append(ctx context.Context, record Record) (string, error)
	ListFor(ctx context.Context, ownerID string) ([]Record, error)
	FindByID(ctx context.Context, id string) (Record, bool, error)
}
