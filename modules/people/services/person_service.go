package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/people/domain/aggregates/person"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/eventbus"
	"github.com/caseweave/caseweave/pkg/serrors"
)

var (
	ErrPersonMergeSelf     = serrors.NewError("PERSON_MERGE_SELF", "a person cannot be merged into itself", "People.Errors.MergeSelf")
	ErrPersonAlreadyMerged = serrors.NewError("PERSON_ALREADY_MERGED", "person is already merged", "People.Errors.AlreadyMerged")
	ErrMergeTargetMerged   = serrors.NewError("PERSON_MERGE_TARGET_MERGED", "merge target is itself merged", "People.Errors.MergeTargetMerged")
)

type PersonService struct {
	repo      person.Repository
	publisher eventbus.EventBus
}

func NewPersonService(repo person.Repository, publisher eventbus.EventBus) *PersonService {
	return &PersonService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *PersonService) GetPaginated(ctx context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	if err := authorizePeople(ctx, personsAuthzObject, "list"); err != nil {
		return nil, 0, err
	}
	if params != nil {
		params.Q = strings.TrimSpace(params.Q)
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *PersonService) GetByID(ctx context.Context, id uuid.UUID) (person.Person, error) {
	if err := authorizePeople(ctx, personsAuthzObject, "view"); err != nil {
		return person.Person{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// GetManyByIDs is an internal read used when other components need names
// for a set of person ids. It is not guarded; callers went through their
// own authorization already.
func (s *PersonService) GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]person.Person, error) {
	return s.repo.GetManyByIDs(ctx, ids)
}

func (s *PersonService) Create(ctx context.Context, dto *person.CreateDTO) (person.Person, error) {
	if err := authorizePeople(ctx, personsAuthzObject, "create"); err != nil {
		return person.Person{}, err
	}
	if dto == nil {
		return person.Person{}, errors.New("missing dto")
	}
	dto.Normalize()

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return person.Person{}, err
	}
	entity := dto.ToEntity(tenantID)

	createdEvent := person.NewCreatedEvent(ctx, entity)

	var created person.Person
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		created, innerErr = s.repo.Create(txCtx, entity)
		return innerErr
	})
	if err != nil {
		return person.Person{}, err
	}
	createdEvent.Result = created

	s.publisher.Publish(createdEvent)

	return created, nil
}

func (s *PersonService) Update(ctx context.Context, id uuid.UUID, dto *person.UpdateDTO) (person.Person, error) {
	if err := authorizePeople(ctx, personsAuthzObject, "update"); err != nil {
		return person.Person{}, err
	}
	if dto == nil {
		return person.Person{}, errors.New("missing dto")
	}
	dto.Normalize()

	var updated person.Person
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		entity, innerErr := s.repo.GetByID(txCtx, id)
		if innerErr != nil {
			return innerErr
		}
		updated, innerErr = s.repo.Update(txCtx, dto.Apply(entity))
		return innerErr
	})
	if err != nil {
		return person.Person{}, err
	}

	updatedEvent := person.NewUpdatedEvent(ctx, updated)
	updatedEvent.Result = updated

	s.publisher.Publish(updatedEvent)

	return updated, nil
}

// MarkMerged tombstones a duplicate person record. Associations keep
// pointing at the tombstoned record; case consolidation is a separate
// concern and does not run here.
func (s *PersonService) MarkMerged(ctx context.Context, id, intoID uuid.UUID) (person.Person, error) {
	if err := authorizePeople(ctx, personsAuthzObject, "merge"); err != nil {
		return person.Person{}, err
	}
	if id == intoID {
		return person.Person{}, ErrPersonMergeSelf
	}

	var merged person.Person
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		entity, innerErr := s.repo.GetByID(txCtx, id)
		if innerErr != nil {
			return innerErr
		}
		if entity.IsMerged() {
			return ErrPersonAlreadyMerged
		}
		target, innerErr := s.repo.GetByID(txCtx, intoID)
		if innerErr != nil {
			return innerErr
		}
		if target.IsMerged() {
			return ErrMergeTargetMerged
		}
		merged, innerErr = s.repo.Update(txCtx, entity.MarkMerged(target.ID()))
		return innerErr
	})
	if err != nil {
		return person.Person{}, err
	}

	mergedEvent := person.NewMergedEvent(ctx, merged)
	mergedEvent.Result = merged

	s.publisher.Publish(mergedEvent)

	return merged, nil
}

// GetOrCreateAnonymous returns the tenant's anonymous placeholder, creating
// it on first use. Concurrent first calls race on the partial unique index;
// the loser re-reads.
func (s *PersonService) GetOrCreateAnonymous(ctx context.Context) (person.Person, error) {
	existing, err := s.repo.GetAnonymous(ctx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, person.ErrNotFound) {
		return person.Person{}, err
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return person.Person{}, err
	}

	var created person.Person
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		created, innerErr = s.repo.Create(txCtx, person.NewAnonymous(tenantID))
		return innerErr
	})
	if err != nil {
		if errors.Is(err, person.ErrAnonymousExists) {
			return s.repo.GetAnonymous(ctx)
		}
		return person.Person{}, err
	}

	createdEvent := person.NewCreatedEvent(ctx, created)
	createdEvent.Result = created
	s.publisher.Publish(createdEvent)

	return created, nil
}
