package association

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists the four association tables. Getters return only
// non-removed rows unless stated otherwise; Update persists whatever
// mutable state the aggregate carries, including soft removal.
type Repository interface {
	CreatePersonCase(ctx context.Context, entity PersonCase) (PersonCase, error)
	GetPersonCaseByID(ctx context.Context, id uuid.UUID) (PersonCase, error)
	UpdatePersonCase(ctx context.Context, entity PersonCase) (PersonCase, error)
	ListPersonCaseForCase(ctx context.Context, caseID uuid.UUID) ([]PersonCase, error)
	ListPersonCaseForPerson(ctx context.Context, personID uuid.UUID) ([]PersonCase, error)

	CreatePersonReport(ctx context.Context, entity PersonReport) (PersonReport, error)
	GetPersonReportByID(ctx context.Context, id uuid.UUID) (PersonReport, error)
	UpdatePersonReport(ctx context.Context, entity PersonReport) (PersonReport, error)
	ListPersonReportForReport(ctx context.Context, reportID uuid.UUID) ([]PersonReport, error)
	ListPersonReportForPerson(ctx context.Context, personID uuid.UUID) ([]PersonReport, error)

	CreateCaseCase(ctx context.Context, entity CaseCase) (CaseCase, error)
	GetCaseCaseByID(ctx context.Context, id uuid.UUID) (CaseCase, error)
	UpdateCaseCase(ctx context.Context, entity CaseCase) (CaseCase, error)
	ListCaseCaseForCase(ctx context.Context, caseID uuid.UUID) ([]CaseCase, error)

	CreatePersonPerson(ctx context.Context, entity PersonPerson) (PersonPerson, error)
	GetPersonPersonByID(ctx context.Context, id uuid.UUID) (PersonPerson, error)
	UpdatePersonPerson(ctx context.Context, entity PersonPerson) (PersonPerson, error)
	ListPersonPersonForPerson(ctx context.Context, personID uuid.UUID) ([]PersonPerson, error)
}
