package persistence

import (
	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/people/domain/aggregates/person"
	"github.com/caseweave/caseweave/modules/people/infrastructure/persistence/models"
	"github.com/caseweave/caseweave/pkg/mapping"
)

func ToDomainPerson(row *models.Person) (person.Person, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return person.Person{}, err
	}

	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return person.Person{}, err
	}

	mergedInto := uuid.Nil
	if row.MergedIntoID.Valid {
		mergedInto, err = uuid.Parse(row.MergedIntoID.String)
		if err != nil {
			return person.Person{}, err
		}
	}

	return person.Hydrate(
		id,
		tenantID,
		person.Type(row.Type),
		person.Source(row.Source),
		person.Status(row.Status),
		row.FirstName,
		row.LastName,
		row.DisplayName,
		row.Email.String,
		row.ExternalRef.String,
		mergedInto,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDBPerson(entity person.Person) *models.Person {
	row := &models.Person{
		ID:          entity.ID().String(),
		TenantID:    entity.TenantID().String(),
		Type:        string(entity.Type()),
		Source:      string(entity.Source()),
		Status:      string(entity.Status()),
		FirstName:   entity.FirstName(),
		LastName:    entity.LastName(),
		DisplayName: entity.DisplayName(),
		Email:       mapping.ValueToSQLNullString(entity.Email()),
		ExternalRef: mapping.ValueToSQLNullString(entity.ExternalRef()),
		CreatedAt:   entity.CreatedAt(),
		UpdatedAt:   entity.UpdatedAt(),
	}
	if entity.MergedIntoID() != uuid.Nil {
		row.MergedIntoID = mapping.ValueToSQLNullString(entity.MergedIntoID().String())
	}
	return row
}
