package persistence

import (
	"bytes"
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/pkg/composables"
)

const (
	supersededByMerge = "SUPERSEDED_BY_MERGE"

	advisoryLockQuery = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

	supersedePersonCaseQuery = `
        UPDATE person_case_associations src
        SET removed_at = $1, removed_by = $2, removed_reason = $3, updated_at = $1
        WHERE src.tenant_id = $4 AND src.case_id = $5 AND src.removed_at IS NULL
          AND EXISTS (
              SELECT 1 FROM person_case_associations tgt
              WHERE tgt.tenant_id = src.tenant_id
                AND tgt.case_id = $6
                AND tgt.person_id = src.person_id
                AND tgt.label = src.label
                AND tgt.removed_at IS NULL
          )`

	movePersonCaseQuery = `
        UPDATE person_case_associations
        SET case_id = $1, updated_at = $2
        WHERE tenant_id = $3 AND case_id = $4 AND removed_at IS NULL`

	supersedePairEdgesQuery = `
        UPDATE case_case_associations
        SET removed_at = $1, removed_by = $2, removed_reason = $3, updated_at = $1
        WHERE tenant_id = $4 AND removed_at IS NULL
          AND ((subject_case_id = $5 AND object_case_id = $6)
            OR (subject_case_id = $6 AND object_case_id = $5))`

	supersedeCaseCaseDuplicatesQuery = `
        UPDATE case_case_associations src
        SET removed_at = $1, removed_by = $2, removed_reason = $3, updated_at = $1
        WHERE src.tenant_id = $4 AND src.removed_at IS NULL
          AND (src.subject_case_id = $5 OR src.object_case_id = $5)
          AND EXISTS (
              SELECT 1 FROM case_case_associations tgt
              WHERE tgt.tenant_id = src.tenant_id
                AND tgt.removed_at IS NULL
                AND tgt.id <> src.id
                AND tgt.label = src.label
                AND tgt.subject_case_id = (CASE WHEN src.subject_case_id = $5 THEN $6 ELSE src.subject_case_id END)
                AND tgt.object_case_id = (CASE WHEN src.object_case_id = $5 THEN $6 ELSE src.object_case_id END)
          )`

	moveCaseCaseSubjectQuery = `
        UPDATE case_case_associations
        SET subject_case_id = $1, updated_at = $2
        WHERE tenant_id = $3 AND subject_case_id = $4 AND removed_at IS NULL`

	moveCaseCaseObjectQuery = `
        UPDATE case_case_associations
        SET object_case_id = $1, updated_at = $2
        WHERE tenant_id = $3 AND object_case_id = $4 AND removed_at IS NULL`

	supersedeReportLinksQuery = `
        UPDATE case_reports src
        SET removed_at = $1, removed_by = $2, removed_reason = $3, updated_at = $1
        WHERE src.tenant_id = $4 AND src.case_id = $5 AND src.removed_at IS NULL
          AND EXISTS (
              SELECT 1 FROM case_reports tgt
              WHERE tgt.tenant_id = src.tenant_id
                AND tgt.case_id = $6
                AND tgt.report_id = src.report_id
                AND tgt.removed_at IS NULL
          )`

	relabelReportLinksQuery = `
        UPDATE case_reports
        SET case_id = $1, label = 'MERGED_FROM', updated_at = $2
        WHERE tenant_id = $3 AND case_id = $4 AND removed_at IS NULL`
)

var subordinateMoveQueries = map[string]string{
	"subjects":       `UPDATE case_subjects SET case_id = $1, updated_at = $2 WHERE tenant_id = $3 AND case_id = $4`,
	"investigations": `UPDATE case_investigations SET case_id = $1, updated_at = $2 WHERE tenant_id = $3 AND case_id = $4`,
	"messages":       `UPDATE case_messages SET case_id = $1, updated_at = $2 WHERE tenant_id = $3 AND case_id = $4`,
	"interactions":   `UPDATE case_interactions SET case_id = $1, updated_at = $2 WHERE tenant_id = $3 AND case_id = $4`,
}

type PgMergeRepository struct{}

func NewMergeRepository() casefile.MergeRepository {
	return &PgMergeRepository{}
}

func (g *PgMergeRepository) LockCasePair(ctx context.Context, a, b uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	// Stable lock order prevents two opposing merges from deadlocking.
	first, second := a, b
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}
	if _, err := tx.Exec(ctx, advisoryLockQuery, first.String()); err != nil {
		return errors.Wrap(err, "failed to lock first case")
	}
	if _, err := tx.Exec(ctx, advisoryLockQuery, second.String()); err != nil {
		return errors.Wrap(err, "failed to lock second case")
	}
	return nil
}

func (g *PgMergeRepository) RepointPersonAssociations(ctx context.Context, source, target, actor uuid.UUID, at time.Time) (int64, int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get tenant from context")
	}

	superseded, err := tx.Exec(ctx, supersedePersonCaseQuery, at, actor.String(), supersededByMerge, tenantID, source, target)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to supersede duplicate person-case associations")
	}

	moved, err := tx.Exec(ctx, movePersonCaseQuery, target, at, tenantID, source)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to repoint person-case associations")
	}

	return moved.RowsAffected(), superseded.RowsAffected(), nil
}

func (g *PgMergeRepository) RepointCaseAssociations(ctx context.Context, source, target, actor uuid.UUID, at time.Time) (int64, int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get tenant from context")
	}

	pairEdges, err := tx.Exec(ctx, supersedePairEdgesQuery, at, actor.String(), supersededByMerge, tenantID, source, target)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to supersede source-target edges")
	}

	duplicates, err := tx.Exec(ctx, supersedeCaseCaseDuplicatesQuery, at, actor.String(), supersededByMerge, tenantID, source, target)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to supersede duplicate case-case associations")
	}

	movedSubject, err := tx.Exec(ctx, moveCaseCaseSubjectQuery, target, at, tenantID, source)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to repoint case-case subjects")
	}

	movedObject, err := tx.Exec(ctx, moveCaseCaseObjectQuery, target, at, tenantID, source)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to repoint case-case objects")
	}

	moved := movedSubject.RowsAffected() + movedObject.RowsAffected()
	superseded := pairEdges.RowsAffected() + duplicates.RowsAffected()
	return moved, superseded, nil
}

func (g *PgMergeRepository) RelabelReportLinks(ctx context.Context, source, target, actor uuid.UUID, at time.Time) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get tenant from context")
	}

	if _, err := tx.Exec(ctx, supersedeReportLinksQuery, at, actor.String(), supersededByMerge, tenantID, source, target); err != nil {
		return 0, errors.Wrap(err, "failed to supersede duplicate report links")
	}

	moved, err := tx.Exec(ctx, relabelReportLinksQuery, target, at, tenantID, source)
	if err != nil {
		return 0, errors.Wrap(err, "failed to relabel report links")
	}
	return moved.RowsAffected(), nil
}

func (g *PgMergeRepository) RepointSubordinates(ctx context.Context, source, target uuid.UUID, at time.Time) (casefile.SubordinateCounts, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return casefile.SubordinateCounts{}, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return casefile.SubordinateCounts{}, errors.Wrap(err, "failed to get tenant from context")
	}

	var counts casefile.SubordinateCounts
	for name, query := range subordinateMoveQueries {
		tag, err := tx.Exec(ctx, query, target, at, tenantID, source)
		if err != nil {
			return casefile.SubordinateCounts{}, errors.Wrap(err, "failed to repoint case "+name)
		}
		switch name {
		case "subjects":
			counts.Subjects = tag.RowsAffected()
		case "investigations":
			counts.Investigations = tag.RowsAffected()
		case "messages":
			counts.Messages = tag.RowsAffected()
		case "interactions":
			counts.Interactions = tag.RowsAffected()
		}
	}
	return counts, nil
}
