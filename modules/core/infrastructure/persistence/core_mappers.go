package persistence

import (
	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/modules/core/domain/value_objects/internet"
	"github.com/caseweave/caseweave/modules/core/infrastructure/persistence/models"
)

func ToDomainUser(dbUser *models.User) (user.User, error) {
	email, err := internet.NewEmail(dbUser.Email)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(dbUser.ID)
	if err != nil {
		return nil, err
	}

	tenantID, err := uuid.Parse(dbUser.TenantID)
	if err != nil {
		return nil, err
	}

	return user.New(
		dbUser.FirstName,
		dbUser.LastName,
		email,
		user.UILanguage(dbUser.UILanguage),
		user.WithID(id),
		user.WithTenantID(tenantID),
		user.WithCreatedAt(dbUser.CreatedAt),
		user.WithUpdatedAt(dbUser.UpdatedAt),
	), nil
}

func toDBUser(entity user.User) *models.User {
	return &models.User{
		ID:         entity.ID().String(),
		TenantID:   entity.TenantID().String(),
		FirstName:  entity.FirstName(),
		LastName:   entity.LastName(),
		Email:      entity.Email().Value(),
		UILanguage: string(entity.UILanguage()),
		CreatedAt:  entity.CreatedAt(),
		UpdatedAt:  entity.UpdatedAt(),
	}
}
