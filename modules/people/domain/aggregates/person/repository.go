package person

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("person not found")
	ErrExternalRefTaken = errors.New("external ref already used in tenant")
	ErrAnonymousExists  = errors.New("tenant already has an anonymous placeholder")
)

type FindParams struct {
	Q      string
	Type   Type
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Person, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (Person, error)
	GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]Person, error)
	GetAnonymous(ctx context.Context) (Person, error)
	Create(ctx context.Context, p Person) (Person, error)
	Update(ctx context.Context, p Person) (Person, error)
}
