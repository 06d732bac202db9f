package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/infrastructure/persistence/models"
	"github.com/caseweave/caseweave/pkg/composables"
)

const (
	personCaseFindQuery = `
        SELECT
            a.id,
            a.tenant_id,
            a.person_id,
            a.case_id,
            a.label,
            a.status,
            a.started_at,
            a.ended_at,
            a.ended_reason,
            a.removed_at,
            a.removed_by,
            a.removed_reason,
            a.created_at,
            a.updated_at
        FROM person_case_associations a`

	personCaseInsertQuery = `
        INSERT INTO person_case_associations (
            id, tenant_id, person_id, case_id, label, status, started_at,
            ended_at, ended_reason, removed_at, removed_by, removed_reason,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	personCaseUpdateQuery = `
        UPDATE person_case_associations
        SET case_id = $1, status = $2, ended_at = $3, ended_reason = $4,
            removed_at = $5, removed_by = $6, removed_reason = $7, updated_at = $8
        WHERE id = $9 AND tenant_id = $10`

	personReportFindQuery = `
        SELECT
            a.id,
            a.tenant_id,
            a.person_id,
            a.report_id,
            a.label,
            a.status,
            a.removed_at,
            a.removed_by,
            a.removed_reason,
            a.created_at,
            a.updated_at
        FROM person_report_associations a`

	personReportInsertQuery = `
        INSERT INTO person_report_associations (
            id, tenant_id, person_id, report_id, label, status,
            removed_at, removed_by, removed_reason, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	personReportUpdateQuery = `
        UPDATE person_report_associations
        SET status = $1, removed_at = $2, removed_by = $3, removed_reason = $4, updated_at = $5
        WHERE id = $6 AND tenant_id = $7`

	caseCaseFindQuery = `
        SELECT
            a.id,
            a.tenant_id,
            a.subject_case_id,
            a.object_case_id,
            a.label,
            a.removed_at,
            a.removed_by,
            a.removed_reason,
            a.created_at,
            a.updated_at
        FROM case_case_associations a`

	caseCaseInsertQuery = `
        INSERT INTO case_case_associations (
            id, tenant_id, subject_case_id, object_case_id, label,
            removed_at, removed_by, removed_reason, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	caseCaseUpdateQuery = `
        UPDATE case_case_associations
        SET subject_case_id = $1, object_case_id = $2,
            removed_at = $3, removed_by = $4, removed_reason = $5, updated_at = $6
        WHERE id = $7 AND tenant_id = $8`

	personPersonFindQuery = `
        SELECT
            a.id,
            a.tenant_id,
            a.person_a_id,
            a.person_b_id,
            a.label,
            a.removed_at,
            a.removed_by,
            a.removed_reason,
            a.created_at,
            a.updated_at
        FROM person_person_associations a`

	personPersonInsertQuery = `
        INSERT INTO person_person_associations (
            id, tenant_id, person_a_id, person_b_id, label,
            removed_at, removed_by, removed_reason, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	personPersonUpdateQuery = `
        UPDATE person_person_associations
        SET removed_at = $1, removed_by = $2, removed_reason = $3, updated_at = $4
        WHERE id = $5 AND tenant_id = $6`
)

type PgAssociationRepository struct{}

func NewAssociationRepository() association.Repository {
	return &PgAssociationRepository{}
}

// mapAssociationPgError turns unique violations from any of the four
// partial indexes into the duplicate sentinel.
func mapAssociationPgError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return association.ErrDuplicate
	}
	return errors.Wrap(err, msg)
}

func (g *PgAssociationRepository) CreatePersonCase(ctx context.Context, entity association.PersonCase) (association.PersonCase, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return association.PersonCase{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonCase{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBPersonCase(entity)
	row.TenantID = tenantID.String()

	if _, err := tx.Exec(
		ctx,
		personCaseInsertQuery,
		row.ID,
		row.TenantID,
		row.PersonID,
		row.CaseID,
		row.Label,
		row.Status,
		row.StartedAt,
		row.EndedAt,
		row.EndedReason,
		row.RemovedAt,
		row.RemovedBy,
		row.RemovedReason,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		return association.PersonCase{}, mapAssociationPgError(err, "failed to create person-case association")
	}

	return g.GetPersonCaseByID(ctx, entity.ID())
}

func (g *PgAssociationRepository) GetPersonCaseByID(ctx context.Context, id uuid.UUID) (association.PersonCase, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonCase{}, errors.Wrap(err, "failed to get tenant from context")
	}

	items, err := g.queryPersonCase(ctx, personCaseFindQuery+" WHERE a.id = $1 AND a.tenant_id = $2", id, tenantID)
	if err != nil {
		return association.PersonCase{}, errors.Wrap(err, fmt.Sprintf("failed to query person-case association with id: %s", id))
	}
	if len(items) == 0 {
		return association.PersonCase{}, fmt.Errorf("id: %s: %w", id, association.ErrNotFound)
	}
	return items[0], nil
}

func (g *PgAssociationRepository) UpdatePersonCase(ctx context.Context, entity association.PersonCase) (association.PersonCase, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return association.PersonCase{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonCase{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBPersonCase(entity)
	if _, err := tx.Exec(
		ctx,
		personCaseUpdateQuery,
		row.CaseID,
		row.Status,
		row.EndedAt,
		row.EndedReason,
		row.RemovedAt,
		row.RemovedBy,
		row.RemovedReason,
		row.UpdatedAt,
		row.ID,
		tenantID.String(),
	); err != nil {
		return association.PersonCase{}, mapAssociationPgError(err, "failed to update person-case association")
	}

	return g.GetPersonCaseByID(ctx, entity.ID())
}

func (g *PgAssociationRepository) ListPersonCaseForCase(ctx context.Context, caseID uuid.UUID) ([]association.PersonCase, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return g.queryPersonCase(
		ctx,
		personCaseFindQuery+" WHERE a.case_id = $1 AND a.tenant_id = $2 AND a.removed_at IS NULL ORDER BY a.created_at",
		caseID, tenantID,
	)
}

func (g *PgAssociationRepository) ListPersonCaseForPerson(ctx context.Context, personID uuid.UUID) ([]association.PersonCase, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return g.queryPersonCase(
		ctx,
		personCaseFindQuery+" WHERE a.person_id = $1 AND a.tenant_id = $2 AND a.removed_at IS NULL ORDER BY a.created_at",
		personID, tenantID,
	)
}

func (g *PgAssociationRepository) queryPersonCase(ctx context.Context, query string, args ...interface{}) ([]association.PersonCase, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var items []association.PersonCase
	for rows.Next() {
		var row models.PersonCaseAssociation
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.PersonID,
			&row.CaseID,
			&row.Label,
			&row.Status,
			&row.StartedAt,
			&row.EndedAt,
			&row.EndedReason,
			&row.RemovedAt,
			&row.RemovedBy,
			&row.RemovedReason,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan person-case row")
		}
		entity, err := ToDomainPersonCase(&row)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map person-case row")
		}
		items = append(items, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return items, nil
}

func (g *PgAssociationRepository) CreatePersonReport(ctx context.Context, entity association.PersonReport) (association.PersonReport, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return association.PersonReport{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonReport{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBPersonReport(entity)
	row.TenantID = tenantID.String()

	if _, err := tx.Exec(
		ctx,
		personReportInsertQuery,
		row.ID,
		row.TenantID,
		row.PersonID,
		row.ReportID,
		row.Label,
		row.Status,
		row.RemovedAt,
		row.RemovedBy,
		row.RemovedReason,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		return association.PersonReport{}, mapAssociationPgError(err, "failed to create person-report association")
	}

	return g.GetPersonReportByID(ctx, entity.ID())
}

func (g *PgAssociationRepository) GetPersonReportByID(ctx context.Context, id uuid.UUID) (association.PersonReport, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonReport{}, errors.Wrap(err, "failed to get tenant from context")
	}

	items, err := g.queryPersonReport(ctx, personReportFindQuery+" WHERE a.id = $1 AND a.tenant_id = $2", id, tenantID)
	if err != nil {
		return association.PersonReport{}, errors.Wrap(err, fmt.Sprintf("failed to query person-report association with id: %s", id))
	}
	if len(items) == 0 {
		return association.PersonReport{}, fmt.Errorf("id: %s: %w", id, association.ErrNotFound)
	}
	return items[0], nil
}

func (g *PgAssociationRepository) UpdatePersonReport(ctx context.Context, entity association.PersonReport) (association.PersonReport, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return association.PersonReport{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonReport{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBPersonReport(entity)
	if _, err := tx.Exec(
		ctx,
		personReportUpdateQuery,
		row.Status,
		row.RemovedAt,
		row.RemovedBy,
		row.RemovedReason,
		row.UpdatedAt,
		row.ID,
		tenantID.String(),
	); err != nil {
		return association.PersonReport{}, mapAssociationPgError(err, "failed to update person-report association")
	}

	return g.GetPersonReportByID(ctx, entity.ID())
}

func (g *PgAssociationRepository) ListPersonReportForReport(ctx context.Context, reportID uuid.UUID) ([]association.PersonReport, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return g.queryPersonReport(
		ctx,
		personReportFindQuery+" WHERE a.report_id = $1 AND a.tenant_id = $2 AND a.removed_at IS NULL ORDER BY a.created_at",
		reportID, tenantID,
	)
}

func (g *PgAssociationRepository) ListPersonReportForPerson(ctx context.Context, personID uuid.UUID) ([]association.PersonReport, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return g.queryPersonReport(
		ctx,
		personReportFindQuery+" WHERE a.person_id = $1 AND a.tenant_id = $2 AND a.removed_at IS NULL ORDER BY a.created_at",
		personID, tenantID,
	)
}

func (g *PgAssociationRepository) queryPersonReport(ctx context.Context, query string, args ...interface{}) ([]association.PersonReport, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var items []association.PersonReport
	for rows.Next() {
		var row models.PersonReportAssociation
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.PersonID,
			&row.ReportID,
			&row.Label,
			&row.Status,
			&row.RemovedAt,
			&row.RemovedBy,
			&row.RemovedReason,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan person-report row")
		}
		entity, err := ToDomainPersonReport(&row)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map person-report row")
		}
		items = append(items, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return items, nil
}

func (g *PgAssociationRepository) CreateCaseCase(ctx context.Context, entity association.CaseCase) (association.CaseCase, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return association.CaseCase{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.CaseCase{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBCaseCase(entity)
	row.TenantID = tenantID.String()

	if _, err := tx.Exec(
		ctx,
		caseCaseInsertQuery,
		row.ID,
		row.TenantID,
		row.SubjectCaseID,
		row.ObjectCaseID,
		row.Label,
		row.RemovedAt,
		row.RemovedBy,
		row.RemovedReason,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		return association.CaseCase{}, mapAssociationPgError(err, "failed to create case-case association")
	}

	return g.GetCaseCaseByID(ctx, entity.ID())
}

func (g *PgAssociationRepository) GetCaseCaseByID(ctx context.Context, id uuid.UUID) (association.CaseCase, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.CaseCase{}, errors.Wrap(err, "failed to get tenant from context")
	}

	items, err := g.queryCaseCase(ctx, caseCaseFindQuery+" WHERE a.id = $1 AND a.tenant_id = $2", id, tenantID)
	if err != nil {
		return association.CaseCase{}, errors.Wrap(err, fmt.Sprintf("failed to query case-case association with id: %s", id))
	}
	if len(items) == 0 {
		return association.CaseCase{}, fmt.Errorf("id: %s: %w", id, association.ErrNotFound)
	}
	return items[0], nil
}

func (g *PgAssociationRepository) UpdateCaseCase(ctx context.Context, entity association.CaseCase) (association.CaseCase, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return association.CaseCase{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.CaseCase{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBCaseCase(entity)
	if _, err := tx.Exec(
		ctx,
		caseCaseUpdateQuery,
		row.SubjectCaseID,
		row.ObjectCaseID,
		row.RemovedAt,
		row.RemovedBy,
		row.RemovedReason,
		row.UpdatedAt,
		row.ID,
		tenantID.String(),
	); err != nil {
		return association.CaseCase{}, mapAssociationPgError(err, "failed to update case-case association")
	}

	return g.GetCaseCaseByID(ctx, entity.ID())
}

func (g *PgAssociationRepository) ListCaseCaseForCase(ctx context.Context, caseID uuid.UUID) ([]association.CaseCase, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return g.queryCaseCase(
		ctx,
		caseCaseFindQuery+" WHERE (a.subject_case_id = $1 OR a.object_case_id = $1) AND a.tenant_id = $2 AND a.removed_at IS NULL ORDER BY a.created_at",
		caseID, tenantID,
	)
}

func (g *PgAssociationRepository) queryCaseCase(ctx context.Context, query string, args ...interface{}) ([]association.CaseCase, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var items []association.CaseCase
	for rows.Next() {
		var row models.CaseCaseAssociation
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.SubjectCaseID,
			&row.ObjectCaseID,
			&row.Label,
			&row.RemovedAt,
			&row.RemovedBy,
			&row.RemovedReason,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan case-case row")
		}
		entity, err := ToDomainCaseCase(&row)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map case-case row")
		}
		items = append(items, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return items, nil
}

func (g *PgAssociationRepository) CreatePersonPerson(ctx context.Context, entity association.PersonPerson) (association.PersonPerson, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return association.PersonPerson{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonPerson{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBPersonPerson(entity)
	row.TenantID = tenantID.String()

	if _, err := tx.Exec(
		ctx,
		personPersonInsertQuery,
		row.ID,
		row.TenantID,
		row.PersonAID,
		row.PersonBID,
		row.Label,
		row.RemovedAt,
		row.RemovedBy,
		row.RemovedReason,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		return association.PersonPerson{}, mapAssociationPgError(err, "failed to create person-person association")
	}

	return g.GetPersonPersonByID(ctx, entity.ID())
}

func (g *PgAssociationRepository) GetPersonPersonByID(ctx context.Context, id uuid.UUID) (association.PersonPerson, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonPerson{}, errors.Wrap(err, "failed to get tenant from context")
	}

	items, err := g.queryPersonPerson(ctx, personPersonFindQuery+" WHERE a.id = $1 AND a.tenant_id = $2", id, tenantID)
	if err != nil {
		return association.PersonPerson{}, errors.Wrap(err, fmt.Sprintf("failed to query person-person association with id: %s", id))
	}
	if len(items) == 0 {
		return association.PersonPerson{}, fmt.Errorf("id: %s: %w", id, association.ErrNotFound)
	}
	return items[0], nil
}

func (g *PgAssociationRepository) UpdatePersonPerson(ctx context.Context, entity association.PersonPerson) (association.PersonPerson, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return association.PersonPerson{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonPerson{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBPersonPerson(entity)
	if _, err := tx.Exec(
		ctx,
		personPersonUpdateQuery,
		row.RemovedAt,
		row.RemovedBy,
		row.RemovedReason,
		row.UpdatedAt,
		row.ID,
		tenantID.String(),
	); err != nil {
		return association.PersonPerson{}, mapAssociationPgError(err, "failed to update person-person association")
	}

	return g.GetPersonPersonByID(ctx, entity.ID())
}

func (g *PgAssociationRepository) ListPersonPersonForPerson(ctx context.Context, personID uuid.UUID) ([]association.PersonPerson, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}
	return g.queryPersonPerson(
		ctx,
		personPersonFindQuery+" WHERE (a.person_a_id = $1 OR a.person_b_id = $1) AND a.tenant_id = $2 AND a.removed_at IS NULL ORDER BY a.created_at",
		personID, tenantID,
	)
}

func (g *PgAssociationRepository) queryPersonPerson(ctx context.Context, query string, args ...interface{}) ([]association.PersonPerson, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var items []association.PersonPerson
	for rows.Next() {
		var row models.PersonPersonAssociation
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.PersonAID,
			&row.PersonBID,
			&row.Label,
			&row.RemovedAt,
			&row.RemovedBy,
			&row.RemovedReason,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan person-person row")
		}
		entity, err := ToDomainPersonPerson(&row)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map person-person row")
		}
		items = append(items, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return items, nil
}
