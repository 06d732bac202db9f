package persistence

import (
	"time"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/infrastructure/persistence/models"
	"github.com/caseweave/caseweave/pkg/mapping"
)

func parseOptionalUUID(v string, valid bool) (uuid.UUID, error) {
	if !valid || v == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(v)
}

func optionalTime(v time.Time, valid bool) time.Time {
	if !valid {
		return time.Time{}
	}
	return v
}

func ToDomainCase(row *models.Case) (casefile.Case, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return casefile.Case{}, err
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return casefile.Case{}, err
	}
	mergedInto, err := parseOptionalUUID(row.MergedIntoCaseID.String, row.MergedIntoCaseID.Valid)
	if err != nil {
		return casefile.Case{}, err
	}
	mergedBy, err := parseOptionalUUID(row.MergedBy.String, row.MergedBy.Valid)
	if err != nil {
		return casefile.Case{}, err
	}

	return casefile.Hydrate(
		id,
		tenantID,
		row.CaseNumber,
		row.Title,
		casefile.Status(row.Status),
		casefile.Stage(row.Stage),
		casefile.Outcome(row.Outcome.String),
		row.IsMerged,
		mergedInto,
		optionalTime(row.MergedAt.Time, row.MergedAt.Valid),
		mergedBy,
		row.MergedReason.String,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDBCase(entity casefile.Case) *models.Case {
	row := &models.Case{
		ID:         entity.ID().String(),
		TenantID:   entity.TenantID().String(),
		CaseNumber: entity.CaseNumber(),
		Title:      entity.Title(),
		Status:     string(entity.Status()),
		Stage:      string(entity.Stage()),
		Outcome:    mapping.ValueToSQLNullString(string(entity.Outcome())),
		IsMerged:   entity.IsMerged(),
		CreatedAt:  entity.CreatedAt(),
		UpdatedAt:  entity.UpdatedAt(),
	}
	if entity.IsMerged() {
		row.MergedIntoCaseID = mapping.ValueToSQLNullString(entity.MergedIntoCaseID().String())
		row.MergedAt = mapping.ValueToSQLNullTime(entity.MergedAt())
		row.MergedBy = mapping.ValueToSQLNullString(entity.MergedBy().String())
		row.MergedReason = mapping.ValueToSQLNullString(entity.MergedReason())
	}
	return row
}

func ToDomainPersonCase(row *models.PersonCaseAssociation) (association.PersonCase, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return association.PersonCase{}, err
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return association.PersonCase{}, err
	}
	personID, err := uuid.Parse(row.PersonID)
	if err != nil {
		return association.PersonCase{}, err
	}
	caseID, err := uuid.Parse(row.CaseID)
	if err != nil {
		return association.PersonCase{}, err
	}
	removedBy, err := parseOptionalUUID(row.RemovedBy.String, row.RemovedBy.Valid)
	if err != nil {
		return association.PersonCase{}, err
	}

	return association.HydratePersonCase(
		id, tenantID, personID, caseID,
		association.Label(row.Label),
		association.EvidentiaryStatus(row.Status.String),
		optionalTime(row.StartedAt.Time, row.StartedAt.Valid),
		optionalTime(row.EndedAt.Time, row.EndedAt.Valid),
		row.EndedReason.String,
		optionalTime(row.RemovedAt.Time, row.RemovedAt.Valid),
		removedBy,
		row.RemovedReason.String,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDBPersonCase(entity association.PersonCase) *models.PersonCaseAssociation {
	row := &models.PersonCaseAssociation{
		ID:        entity.ID().String(),
		TenantID:  entity.TenantID().String(),
		PersonID:  entity.PersonID().String(),
		CaseID:    entity.CaseID().String(),
		Label:     string(entity.Label()),
		Status:    mapping.ValueToSQLNullString(string(entity.Status())),
		StartedAt: mapping.ValueToSQLNullTime(entity.StartedAt()),
		EndedAt:   mapping.ValueToSQLNullTime(entity.EndedAt()),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
	row.EndedReason = mapping.ValueToSQLNullString(entity.EndedReason())
	if entity.IsRemoved() {
		row.RemovedAt = mapping.ValueToSQLNullTime(entity.RemovedAt())
		row.RemovedBy = mapping.ValueToSQLNullString(entity.RemovedBy().String())
		row.RemovedReason = mapping.ValueToSQLNullString(entity.RemovedReason())
	}
	return row
}

func ToDomainPersonReport(row *models.PersonReportAssociation) (association.PersonReport, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return association.PersonReport{}, err
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return association.PersonReport{}, err
	}
	personID, err := uuid.Parse(row.PersonID)
	if err != nil {
		return association.PersonReport{}, err
	}
	reportID, err := uuid.Parse(row.ReportID)
	if err != nil {
		return association.PersonReport{}, err
	}
	removedBy, err := parseOptionalUUID(row.RemovedBy.String, row.RemovedBy.Valid)
	if err != nil {
		return association.PersonReport{}, err
	}

	return association.HydratePersonReport(
		id, tenantID, personID, reportID,
		association.Label(row.Label),
		association.EvidentiaryStatus(row.Status),
		optionalTime(row.RemovedAt.Time, row.RemovedAt.Valid),
		removedBy,
		row.RemovedReason.String,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDBPersonReport(entity association.PersonReport) *models.PersonReportAssociation {
	row := &models.PersonReportAssociation{
		ID:        entity.ID().String(),
		TenantID:  entity.TenantID().String(),
		PersonID:  entity.PersonID().String(),
		ReportID:  entity.ReportID().String(),
		Label:     string(entity.Label()),
		Status:    string(entity.Status()),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
	if entity.IsRemoved() {
		row.RemovedAt = mapping.ValueToSQLNullTime(entity.RemovedAt())
		row.RemovedBy = mapping.ValueToSQLNullString(entity.RemovedBy().String())
		row.RemovedReason = mapping.ValueToSQLNullString(entity.RemovedReason())
	}
	return row
}

func ToDomainCaseCase(row *models.CaseCaseAssociation) (association.CaseCase, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return association.CaseCase{}, err
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return association.CaseCase{}, err
	}
	subjectCaseID, err := uuid.Parse(row.SubjectCaseID)
	if err != nil {
		return association.CaseCase{}, err
	}
	objectCaseID, err := uuid.Parse(row.ObjectCaseID)
	if err != nil {
		return association.CaseCase{}, err
	}
	removedBy, err := parseOptionalUUID(row.RemovedBy.String, row.RemovedBy.Valid)
	if err != nil {
		return association.CaseCase{}, err
	}

	return association.HydrateCaseCase(
		id, tenantID, subjectCaseID, objectCaseID,
		association.Label(row.Label),
		optionalTime(row.RemovedAt.Time, row.RemovedAt.Valid),
		removedBy,
		row.RemovedReason.String,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDBCaseCase(entity association.CaseCase) *models.CaseCaseAssociation {
	row := &models.CaseCaseAssociation{
		ID:            entity.ID().String(),
		TenantID:      entity.TenantID().String(),
		SubjectCaseID: entity.SubjectCaseID().String(),
		ObjectCaseID:  entity.ObjectCaseID().String(),
		Label:         string(entity.Label()),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}
	if entity.IsRemoved() {
		row.RemovedAt = mapping.ValueToSQLNullTime(entity.RemovedAt())
		row.RemovedBy = mapping.ValueToSQLNullString(entity.RemovedBy().String())
		row.RemovedReason = mapping.ValueToSQLNullString(entity.RemovedReason())
	}
	return row
}

func ToDomainPersonPerson(row *models.PersonPersonAssociation) (association.PersonPerson, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return association.PersonPerson{}, err
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return association.PersonPerson{}, err
	}
	personAID, err := uuid.Parse(row.PersonAID)
	if err != nil {
		return association.PersonPerson{}, err
	}
	personBID, err := uuid.Parse(row.PersonBID)
	if err != nil {
		return association.PersonPerson{}, err
	}
	removedBy, err := parseOptionalUUID(row.RemovedBy.String, row.RemovedBy.Valid)
	if err != nil {
		return association.PersonPerson{}, err
	}

	return association.HydratePersonPerson(
		id, tenantID, personAID, personBID,
		association.Label(row.Label),
		optionalTime(row.RemovedAt.Time, row.RemovedAt.Valid),
		removedBy,
		row.RemovedReason.String,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDBPersonPerson(entity association.PersonPerson) *models.PersonPersonAssociation {
	row := &models.PersonPersonAssociation{
		ID:        entity.ID().String(),
		TenantID:  entity.TenantID().String(),
		PersonAID: entity.PersonAID().String(),
		PersonBID: entity.PersonBID().String(),
		Label:     string(entity.Label()),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
	if entity.IsRemoved() {
		row.RemovedAt = mapping.ValueToSQLNullTime(entity.RemovedAt())
		row.RemovedBy = mapping.ValueToSQLNullString(entity.RemovedBy().String())
		row.RemovedReason = mapping.ValueToSQLNullString(entity.RemovedReason())
	}
	return row
}

func ToDomainReportLink(row *models.CaseReport) (casefile.ReportLink, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return casefile.ReportLink{}, err
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return casefile.ReportLink{}, err
	}
	caseID, err := uuid.Parse(row.CaseID)
	if err != nil {
		return casefile.ReportLink{}, err
	}
	reportID, err := uuid.Parse(row.ReportID)
	if err != nil {
		return casefile.ReportLink{}, err
	}

	return casefile.HydrateReportLink(
		id, tenantID, caseID, reportID,
		casefile.ReportLinkLabel(row.Label),
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func toDBReportLink(entity casefile.ReportLink) *models.CaseReport {
	return &models.CaseReport{
		ID:        entity.ID().String(),
		TenantID:  entity.TenantID().String(),
		CaseID:    entity.CaseID().String(),
		ReportID:  entity.ReportID().String(),
		Label:     string(entity.Label()),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
}
