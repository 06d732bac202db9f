package audittrail

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry records one domain mutation: what changed, who did it, and a JSON
// Patch (RFC 6902) from the before snapshot to the after snapshot.
type Entry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	UserID     uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Before     json.RawMessage
	After      json.RawMessage
	Patch      json.RawMessage
	CreatedAt  time.Time
}

type FindParams struct {
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

type Repository interface {
	List(ctx context.Context, params *FindParams) ([]*Entry, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, entry *Entry) error
}
