package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/pkg/authz"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/eventbus"
)

var usersAuthzObject = authz.ObjectName("core", "users")

func authorizeUsers(ctx context.Context, action string) error {
	return authorizeCore(ctx, usersAuthzObject, action)
}

type UserService struct {
	repo      user.Repository
	publisher eventbus.EventBus
}

func NewUserService(repo user.Repository, publisher eventbus.EventBus) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *UserService) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	return s.repo.Count(ctx, params)
}

func (s *UserService) GetAll(ctx context.Context) ([]user.User, error) {
	return s.repo.GetAll(ctx)
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	if err := authorizeUsers(ctx, "view"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetPaginated(ctx context.Context, params *user.FindParams) ([]user.User, error) {
	if err := authorizeUsers(ctx, "list"); err != nil {
		return nil, err
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *UserService) GetPaginatedWithTotal(ctx context.Context, params *user.FindParams) ([]user.User, int64, error) {
	if err := authorizeUsers(ctx, "list"); err != nil {
		return nil, 0, err
	}
	us, err := s.repo.GetPaginated(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return us, total, nil
}

func (s *UserService) Create(ctx context.Context, data user.User) (user.User, error) {
	if err := authorizeUsers(ctx, "create"); err != nil {
		return nil, err
	}

	sender, _ := composables.UseUser(ctx)
	createdEvent := user.NewCreatedEvent(sender, data)

	var createdUser user.User
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if created, err := s.repo.Create(txCtx, data); err != nil {
			return err
		} else {
			createdUser = created
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	createdEvent.Result = createdUser

	s.publisher.Publish(createdEvent)

	return createdUser, nil
}

func (s *UserService) Update(ctx context.Context, data user.User) (user.User, error) {
	if err := authorizeUsers(ctx, "update"); err != nil {
		return nil, err
	}

	sender, _ := composables.UseUser(ctx)
	updatedEvent := user.NewUpdatedEvent(sender, data)

	var updatedUser user.User
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, data); err != nil {
			return err
		}
		if userAfterUpdate, err := s.repo.GetByID(txCtx, data.ID()); err != nil {
			return err
		} else {
			updatedUser = userAfterUpdate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updatedEvent.Result = updatedUser

	s.publisher.Publish(updatedEvent)

	return updatedUser, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (user.User, error) {
	if err := authorizeUsers(ctx, "delete"); err != nil {
		return nil, err
	}

	sender, _ := composables.UseUser(ctx)
	deletedEvent := user.NewDeletedEvent(sender)

	var deletedUser user.User
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		entity, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		deletedUser = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	deletedEvent.Result = deletedUser

	s.publisher.Publish(deletedEvent)

	return deletedUser, nil
}
