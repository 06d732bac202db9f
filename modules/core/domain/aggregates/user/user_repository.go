package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/pkg/repo"
)

type Field string

const (
	FirstNameField Field = "firstName"
	LastNameField  Field = "lastName"
	EmailField     Field = "email"
	CreatedAtField Field = "createdAt"
	UpdatedAtField Field = "updatedAt"
)

type FindParams struct {
	Search  string
	Limit   int
	Offset  int
	SortBy  repo.SortBy[Field]
	Filters []repo.FieldFilter[Field]
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]User, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	GetAll(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, data User) (User, error)
	Update(ctx context.Context, data User) error
	Delete(ctx context.Context, id uuid.UUID) error
}
