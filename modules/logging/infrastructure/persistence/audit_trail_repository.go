package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/logging/domain/entities/audittrail"
	"github.com/caseweave/caseweave/modules/logging/infrastructure/persistence/models"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/repo"
)

type AuditTrailRepository struct{}

func NewAuditTrailRepository() audittrail.Repository {
	return &AuditTrailRepository{}
}

func (r *AuditTrailRepository) List(ctx context.Context, params *audittrail.FindParams) ([]*audittrail.Entry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildAuditTrailFilters(params, tenantID)
	query := `
		SELECT id, tenant_id, user_id, action, entity_type, entity_id, before, after, patch, created_at
		FROM audit_trail
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*audittrail.Entry
	for rows.Next() {
		var row models.AuditEntry
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.UserID,
			&row.Action,
			&row.EntityType,
			&row.EntityID,
			&row.Before,
			&row.After,
			&row.Patch,
			&row.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainAuditEntry(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *AuditTrailRepository) Count(ctx context.Context, params *audittrail.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	where, args := buildAuditTrailFilters(params, tenantID)

	var count int64
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM audit_trail
		WHERE `+strings.Join(where, " AND "),
		args...,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AuditTrailRepository) Create(ctx context.Context, entry *audittrail.Entry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.TenantID == uuid.Nil {
		entry.TenantID = tenantID
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	dbRow := toDBAuditEntry(entry)

	_, err = tx.Exec(
		ctx,
		`INSERT INTO audit_trail (id, tenant_id, user_id, action, entity_type, entity_id, before, after, patch, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		dbRow.ID,
		dbRow.TenantID,
		dbRow.UserID,
		dbRow.Action,
		dbRow.EntityType,
		dbRow.EntityID,
		dbRow.Before,
		dbRow.After,
		dbRow.Patch,
		dbRow.CreatedAt,
	)
	return err
}

func buildAuditTrailFilters(params *audittrail.FindParams, tenantID uuid.UUID) ([]string, []interface{}) {
	where := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	argPos := 2
	if params == nil {
		return where, args
	}

	if params.UserID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, *params.UserID)
		argPos++
	}
	if action := strings.TrimSpace(params.Action); action != "" {
		where = append(where, fmt.Sprintf("action = $%d", argPos))
		args = append(args, action)
		argPos++
	}
	if entityType := strings.TrimSpace(params.EntityType); entityType != "" {
		where = append(where, fmt.Sprintf("entity_type = $%d", argPos))
		args = append(args, entityType)
		argPos++
	}
	if params.EntityID != nil {
		where = append(where, fmt.Sprintf("entity_id = $%d", argPos))
		args = append(args, *params.EntityID)
		argPos++
	}
	if params.From != nil && !params.From.IsZero() {
		where = append(where, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *params.From)
		argPos++
	}
	if params.To != nil && !params.To.IsZero() {
		where = append(where, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *params.To)
	}
	return where, args
}
