package report

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Channel  Channel
	Status   Status
	Category string
	Q        string
	Limit    int
	Offset   int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Report, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (Report, error)
	Create(ctx context.Context, r Report) (Report, error)
	// Update persists only the mutable tracking columns. The immutable
	// intake content is deliberately absent from the UPDATE statement so
	// even a buggy caller cannot rewrite it.
	Update(ctx context.Context, r Report) (Report, error)
}
