package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caseweave/caseweave/modules/intake/domain/aggregates/report"
	"github.com/caseweave/caseweave/modules/intake/infrastructure/persistence/models"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/mapping"
	"github.com/caseweave/caseweave/pkg/repo"
)

const (
	reportFindQuery = `
        SELECT
            r.id,
            r.tenant_id,
            r.report_number,
            r.channel,
            r.narrative,
            r.category,
            r.severity,
            r.status,
            r.qa_outcome,
            r.assigned_to_id,
            r.detected_language,
            r.confirmed_language,
            r.status_changed_at,
            r.status_changed_by,
            r.created_at,
            r.updated_at
        FROM reports r`

	reportCountQuery = `SELECT COUNT(r.id) FROM reports r`

	reportInsertQuery = `
        INSERT INTO reports (
            id, tenant_id, report_number, channel, narrative, category, severity,
            status, qa_outcome, assigned_to_id, detected_language, confirmed_language,
            status_changed_at, status_changed_by, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	// The intake content columns are absent on purpose: the immutable set
	// cannot be rewritten through this repository even by mistake.
	reportUpdateQuery = `
        UPDATE reports
        SET status = $1, qa_outcome = $2, assigned_to_id = $3, confirmed_language = $4,
            status_changed_at = $5, status_changed_by = $6, updated_at = $7
        WHERE id = $8 AND tenant_id = $9`

	hotlineDetailsInsertQuery = `
        INSERT INTO report_hotline_details (report_id, operator_name, call_reference, callback_number, received_call_at)
        VALUES ($1, $2, $3, $4, $5)`

	webFormDetailsInsertQuery = `
        INSERT INTO report_web_form_details (report_id, form_version, submitter_ip, user_agent, submitted_at)
        VALUES ($1, $2, $3, $4, $5)`

	disclosureDetailsInsertQuery = `
        INSERT INTO report_disclosure_details (report_id, discloser_role, relationship, location_name, disclosed_at)
        VALUES ($1, $2, $3, $4, $5)`
)

type PgReportRepository struct{}

func NewReportRepository() report.Repository {
	return &PgReportRepository{}
}

func (g *PgReportRepository) buildReportFilters(ctx context.Context, params *report.FindParams) ([]string, []interface{}, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get tenant from context")
	}

	where := []string{"r.tenant_id = $1"}
	args := []interface{}{tenantID}

	if params.Channel != "" {
		where = append(where, fmt.Sprintf("r.channel = $%d", len(args)+1))
		args = append(args, string(params.Channel))
	}
	if params.Status != "" {
		where = append(where, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, string(params.Status))
	}
	if params.Category != "" {
		where = append(where, fmt.Sprintf("r.category = $%d", len(args)+1))
		args = append(args, params.Category)
	}
	if params.Q != "" {
		index := len(args) + 1
		where = append(
			where,
			fmt.Sprintf("(r.report_number ILIKE $%d OR r.narrative ILIKE $%d)", index, index),
		)
		args = append(args, "%"+params.Q+"%")
	}

	return where, args, nil
}

func (g *PgReportRepository) GetPaginated(ctx context.Context, params *report.FindParams) ([]report.Report, int64, error) {
	if params == nil {
		params = &report.FindParams{}
	}

	where, args, err := g.buildReportFilters(ctx, params)
	if err != nil {
		return nil, 0, err
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
		reportFindQuery,
		repo.JoinWhere(where...),
		"ORDER BY r.created_at DESC, r.id",
		repo.FormatLimitOffset(limit, offset),
	)
	reports, err := g.queryReports(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get paginated reports")
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to get transaction")
	}

	countQuery := repo.Join(reportCountQuery, repo.JoinWhere(where...))
	var total int64
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count reports")
	}

	return reports, total, nil
}

func (g *PgReportRepository) GetByID(ctx context.Context, id uuid.UUID) (report.Report, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return report.Report{}, errors.Wrap(err, "failed to get tenant from context")
	}

	reports, err := g.queryReports(ctx, reportFindQuery+" WHERE r.id = $1 AND r.tenant_id = $2", id, tenantID)
	if err != nil {
		return report.Report{}, errors.Wrap(err, fmt.Sprintf("failed to query report with id: %s", id))
	}
	if len(reports) == 0 {
		return report.Report{}, fmt.Errorf("id: %s: %w", id, report.ErrNotFound)
	}

	return reports[0], nil
}

func (g *PgReportRepository) Create(ctx context.Context, data report.Report) (report.Report, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return report.Report{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return report.Report{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBReport(data)
	row.TenantID = tenantID.String()

	if _, err := tx.Exec(
		ctx,
		reportInsertQuery,
		row.ID,
		row.TenantID,
		row.ReportNumber,
		row.Channel,
		row.Narrative,
		row.Category,
		row.Severity,
		row.Status,
		row.QAOutcome,
		row.AssignedToID,
		row.DetectedLanguage,
		row.ConfirmedLanguage,
		row.StatusChangedAt,
		row.StatusChangedBy,
		row.CreatedAt,
		row.UpdatedAt,
	); err != nil {
		return report.Report{}, mapReportPgError(err, "failed to create report")
	}

	if err := g.insertExtension(ctx, row.ID, data.Extension()); err != nil {
		return report.Report{}, err
	}

	return g.GetByID(ctx, data.ID())
}

func (g *PgReportRepository) insertExtension(ctx context.Context, reportID string, ext report.Extension) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	switch details := ext.(type) {
	case report.HotlineDetails:
		_, err = tx.Exec(
			ctx,
			hotlineDetailsInsertQuery,
			reportID,
			details.OperatorName,
			mapping.ValueToSQLNullString(details.CallReference),
			mapping.ValueToSQLNullString(details.CallbackNumber),
			mapping.ValueToSQLNullTime(details.ReceivedCallAt),
		)
	case report.WebFormDetails:
		_, err = tx.Exec(
			ctx,
			webFormDetailsInsertQuery,
			reportID,
			details.FormVersion,
			mapping.ValueToSQLNullString(details.SubmitterIP),
			mapping.ValueToSQLNullString(details.UserAgent),
			mapping.ValueToSQLNullTime(details.SubmittedAt),
		)
	case report.DisclosureDetails:
		_, err = tx.Exec(
			ctx,
			disclosureDetailsInsertQuery,
			reportID,
			details.DiscloserRole,
			mapping.ValueToSQLNullString(details.Relationship),
			mapping.ValueToSQLNullString(details.LocationName),
			mapping.ValueToSQLNullTime(details.DisclosedAt),
		)
	default:
		return fmt.Errorf("report %s: missing channel extension", reportID)
	}
	if err != nil {
		return errors.Wrap(err, "failed to insert report extension")
	}
	return nil
}

func (g *PgReportRepository) Update(ctx context.Context, data report.Report) (report.Report, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return report.Report{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return report.Report{}, errors.Wrap(err, "failed to get tenant from context")
	}

	row := toDBReport(data)
	if _, err := tx.Exec(
		ctx,
		reportUpdateQuery,
		row.Status,
		row.QAOutcome,
		row.AssignedToID,
		row.ConfirmedLanguage,
		row.StatusChangedAt,
		row.StatusChangedBy,
		row.UpdatedAt,
		row.ID,
		tenantID.String(),
	); err != nil {
		return report.Report{}, mapReportPgError(err, "failed to update report")
	}

	return g.GetByID(ctx, data.ID())
}

func (g *PgReportRepository) queryReports(ctx context.Context, query string, args ...interface{}) ([]report.Report, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var dbRows []models.Report
	for rows.Next() {
		var row models.Report
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.ReportNumber,
			&row.Channel,
			&row.Narrative,
			&row.Category,
			&row.Severity,
			&row.Status,
			&row.QAOutcome,
			&row.AssignedToID,
			&row.DetectedLanguage,
			&row.ConfirmedLanguage,
			&row.StatusChangedAt,
			&row.StatusChangedBy,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan report row")
		}
		dbRows = append(dbRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	reports := make([]report.Report, 0, len(dbRows))
	for i := range dbRows {
		ext, err := g.queryExtension(ctx, &dbRows[i])
		if err != nil {
			return nil, err
		}
		entity, err := ToDomainReport(&dbRows[i], ext)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map report row")
		}
		reports = append(reports, entity)
	}

	return reports, nil
}

func (g *PgReportRepository) queryExtension(ctx context.Context, row *models.Report) (report.Extension, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	switch report.Channel(row.Channel) {
	case report.ChannelHotline:
		var ext models.ReportHotlineDetails
		err = tx.QueryRow(
			ctx,
			`SELECT report_id, operator_name, call_reference, callback_number, received_call_at
             FROM report_hotline_details WHERE report_id = $1`,
			row.ID,
		).Scan(&ext.ReportID, &ext.OperatorName, &ext.CallReference, &ext.CallbackNumber, &ext.ReceivedCallAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to query hotline details")
		}
		return toDomainExtension(report.ChannelHotline, &ext, nil, nil), nil
	case report.ChannelWebForm:
		var ext models.ReportWebFormDetails
		err = tx.QueryRow(
			ctx,
			`SELECT report_id, form_version, submitter_ip, user_agent, submitted_at
             FROM report_web_form_details WHERE report_id = $1`,
			row.ID,
		).Scan(&ext.ReportID, &ext.FormVersion, &ext.SubmitterIP, &ext.UserAgent, &ext.SubmittedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to query web form details")
		}
		return toDomainExtension(report.ChannelWebForm, nil, &ext, nil), nil
	case report.ChannelDisclosure:
		var ext models.ReportDisclosureDetails
		err = tx.QueryRow(
			ctx,
			`SELECT report_id, discloser_role, relationship, location_name, disclosed_at
             FROM report_disclosure_details WHERE report_id = $1`,
			row.ID,
		).Scan(&ext.ReportID, &ext.DiscloserRole, &ext.Relationship, &ext.LocationName, &ext.DisclosedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to query disclosure details")
		}
		return toDomainExtension(report.ChannelDisclosure, nil, nil, &ext), nil
	}
	return nil, fmt.Errorf("report %s: unknown channel %q", row.ID, row.Channel)
}

func mapReportPgError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "reports_tenant_report_number_key" {
			return report.ErrReportNumberTaken
		}
	}
	return errors.Wrap(err, msg)
}
