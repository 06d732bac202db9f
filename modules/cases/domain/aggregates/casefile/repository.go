package casefile

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	Q             string
	Status        Status
	Stage         Stage
	IncludeMerged bool
	Limit         int
	Offset        int
}

type Repository interface {
	Count(ctx context.Context, params *FindParams) (int64, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Case, error)
	GetByID(ctx context.Context, id uuid.UUID) (Case, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Case, error)
	ListMergedInto(ctx context.Context, targetID uuid.UUID) ([]Case, error)
	Create(ctx context.Context, entity Case) (Case, error)
	Update(ctx context.Context, entity Case) (Case, error)

	LinkReport(ctx context.Context, link ReportLink) (ReportLink, error)
	ListReportLinks(ctx context.Context, caseID uuid.UUID) ([]ReportLink, error)
}
