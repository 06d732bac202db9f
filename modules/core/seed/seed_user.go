package seed

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/modules/core/infrastructure/persistence"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/configuration"
)

type userSeeder struct {
	user user.User
}

func UserSeedFunc(usr user.User) application.SeedFunc {
	s := &userSeeder{user: usr}
	return s.CreateUser
}

func (s *userSeeder) CreateUser(ctx context.Context, app application.Application) error {
	if _, err := composables.UseTenantID(ctx); err != nil {
		return errors.Wrapf(err, "failed to get tenant from context")
	}

	userRepository := persistence.NewUserRepository()
	foundUser, err := userRepository.GetByEmail(ctx, s.user.Email().Value())
	if err != nil && !errors.Is(err, persistence.ErrUserNotFound) {
		return err
	}

	logger := configuration.Use().Logger()
	if foundUser != nil {
		logger.Infof("User %s already exists", s.user.Email().Value())
		return nil
	}

	logger.Infof("Creating user %s", s.user.Email().Value())
	_, err = userRepository.Create(ctx, s.user)
	return err
}
