package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/infrastructure/persistence/models"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/repo"
)

const (
	caseFindQuery = `
        SELECT
            c.id,
            c.tenant_id,
            c.case_number,
            c.title,
            c.status,
            c.stage,
            c.outcome,
            c.is_merged,
            c.merged_into_case_id,
            c.merged_at,
            c.merged_by,
            c.merged_reason,
            c.created_at,
            c.updated_at
        FROM cases c`

	caseCountQuery = `SELECT COUNT(c.id) FROM cases c`

	caseInsertQuery = `
        INSERT INTO cases (
            id, tenant_id, case_number, title, status, stage, outcome,
            is_merged, merged_into_case_id, merged_at, merged_by, merged_reason,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	caseUpdateQuery = `
        UPDATE cases
        SET title = $1, status = $2, stage = $3, outcome = $4,
            is_merged = $5, merged_into_case_id = $6, merged_at = $7,
            merged_by = $8, merged_reason = $9, updated_at = $10
        WHERE id = $11 AND tenant_id = $12`

	reportLinkFindQuery = `
        SELECT
            cr.id,
            cr.tenant_id,
            cr.case_id,
            cr.report_id,
            cr.label,
            cr.created_at,
            cr.updated_at
        FROM case_reports cr`

	reportLinkInsertQuery = `
        INSERT INTO case_reports (
            id, tenant_id, case_id, report_id, label, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

type PgCaseRepository struct{}

func NewCaseRepository() casefile.Repository {
	return &PgCaseRepository{}
}

func (g *PgCaseRepository) buildCaseFilters(ctx context.Context, params *casefile.FindParams) ([]string, []interface{}, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get tenant from context")
	}

	where := []string{"c.tenant_id = $1"}
	args := []interface{}{tenantID}

	if !params.IncludeMerged {
		where = append(where, "c.is_merged = FALSE")
	}

	if params.Status != "" {
		where = append(where, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, string(params.Status))
	}

	if params.Stage != "" {
		where = append(where, fmt.Sprintf("c.stage = $%d", len(args)+1))
		args = append(args, string(params.Stage))
	}

	if params.Q != "" {
		index := len(args) + 1
		where = append(where, fmt.Sprintf("(c.case_number ILIKE $%d OR c.title ILIKE $%d)", index, index))
		args = append(args, "%"+params.Q+"%")
	}

	return where, args, nil
}

func (g *PgCaseRepository) Count(ctx context.Context, params *casefile.FindParams) (int64, error) {
	if params == nil {
		params = &casefile.FindParams{}
	}

	where, args, err := g.buildCaseFilters(ctx, params)
	if err != nil {
		return 0, err
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	query := repo.Join(caseCountQuery, repo.JoinWhere(where...))
	var total int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "failed to count cases")
	}
	return total, nil
}

func (g *PgCaseRepository) GetPaginated(ctx context.Context, params *casefile.FindParams) ([]casefile.Case, error) {
	if params == nil {
		params = &casefile.FindParams{}
	}

	where, args, err := g.buildCaseFilters(ctx, params)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := repo.Join(
		caseFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY c.created_at DESC, c.id",
		repo.FormatLimitOffset(limit, offset),
	)
	cases, err := g.queryCases(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get paginated cases")
	}
	return cases, nil
}

func (g *PgCaseRepository) GetByID(ctx context.Context, id uuid.UUID) (casefile.Case, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return casefile.Case{}, errors.Wrap(err, "failed to get tenant from context")
	}

	cases, err := g.queryCases(ctx, caseFindQuery+" WHERE c.id = $1 AND c.tenant_id = $2", id, tenantID)
	if err != nil {
		return casefile.Case{}, errors.Wrap(err, fmt.Sprintf("failed to query case with id: %s", id))
	}

	if len(cases) == 0 {
		return casefile.Case{}, fmt.Errorf("id: %s: %w", id, casefile.ErrNotFound)
	}

	return cases[0], nil
}

func (g *PgCaseRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]casefile.Case, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	cases, err := g.queryCases(ctx, caseFindQuery+" WHERE c.tenant_id = $1 AND c.id = ANY($2)", tenantID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query cases by ids")
	}
	return cases, nil
}

func (g *PgCaseRepository) ListMergedInto(ctx context.Context, targetID uuid.UUID) ([]casefile.Case, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	cases, err := g.queryCases(
		ctx,
		caseFindQuery+" WHERE c.tenant_id = $1 AND c.merged_into_case_id = $2 ORDER BY c.merged_at DESC",
		tenantID,
		targetID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query merged cases")
	}
	return cases, nil
}

func (g *PgCaseRepository) Create(ctx context.Context, entity casefile.Case) (casefile.Case, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return casefile.Case{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return casefile.Case{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBCase(entity)
	row.TenantID = tenantID.String()

	if _, err := tx.Exec(
		ctx,
		caseInsertQuery,
		row.ID,
		row.TenantID,
		row.CaseNumber,
		row.Title,
		row.Status,
		row.Stage,
		row.Outcome,
		row.IsMerged,
		row.MergedIntoCaseID,
		row.MergedAt,
		row.MergedBy,
		row.MergedReason,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		return casefile.Case{}, mapCasePgError(err, "failed to create case")
	}

	return g.GetByID(ctx, entity.ID())
}

func (g *PgCaseRepository) Update(ctx context.Context, entity casefile.Case) (casefile.Case, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return casefile.Case{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return casefile.Case{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBCase(entity)
	if _, err := tx.Exec(
		ctx,
		caseUpdateQuery,
		row.Title,
		row.Status,
		row.Stage,
		row.Outcome,
		row.IsMerged,
		row.MergedIntoCaseID,
		row.MergedAt,
		row.MergedBy,
		row.MergedReason,
		row.UpdatedAt,
		row.ID,
		tenantID.String(),
	); err != nil {
		return casefile.Case{}, mapCasePgError(err, "failed to update case")
	}

	return g.GetByID(ctx, entity.ID())
}

func (g *PgCaseRepository) LinkReport(ctx context.Context, link casefile.ReportLink) (casefile.ReportLink, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return casefile.ReportLink{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return casefile.ReportLink{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBReportLink(link)
	row.TenantID = tenantID.String()

	if _, err := tx.Exec(
		ctx,
		reportLinkInsertQuery,
		row.ID,
		row.TenantID,
		row.CaseID,
		row.ReportID,
		row.Label,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return casefile.ReportLink{}, casefile.ErrReportAlreadyLinked
		}
		return casefile.ReportLink{}, errors.Wrap(err, "failed to link report to case")
	}

	return link, nil
}

func (g *PgCaseRepository) ListReportLinks(ctx context.Context, caseID uuid.UUID) ([]casefile.ReportLink, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	rows, err := tx.Query(ctx, reportLinkFindQuery+" WHERE cr.case_id = $1 AND cr.tenant_id = $2 AND cr.removed_at IS NULL ORDER BY cr.created_at", caseID, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query report links")
	}
	defer rows.Close()

	var links []casefile.ReportLink
	for rows.Next() {
		var row models.CaseReport
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.CaseID,
			&row.ReportID,
			&row.Label,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan report link row")
		}
		link, err := ToDomainReportLink(&row)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map report link row")
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return links, nil
}

func mapCasePgError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "cases_tenant_case_number_key" {
			return casefile.ErrCaseNumberTaken
		}
	}
	return errors.Wrap(err, msg)
}

func (g *PgCaseRepository) queryCases(ctx context.Context, query string, args ...interface{}) ([]casefile.Case, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var cases []casefile.Case
	for rows.Next() {
		var row models.Case
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.CaseNumber,
			&row.Title,
			&row.Status,
			&row.Stage,
			&row.Outcome,
			&row.IsMerged,
			&row.MergedIntoCaseID,
			&row.MergedAt,
			&row.MergedBy,
			&row.MergedReason,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan case row")
		}
		entity, err := ToDomainCase(&row)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map case row")
		}
		cases = append(cases, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return cases, nil
}
