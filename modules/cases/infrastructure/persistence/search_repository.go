package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/cases/domain/projection"
	"github.com/caseweave/caseweave/pkg/composables"
)

const (
	searchUpsertQuery = `
        INSERT INTO case_search_index (
            case_id, tenant_id, document, person_ids, subject_person_ids,
            witness_person_ids, reporter_person_ids, version, indexed_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8)
        ON CONFLICT (case_id) DO UPDATE SET
            document = EXCLUDED.document,
            person_ids = EXCLUDED.person_ids,
            subject_person_ids = EXCLUDED.subject_person_ids,
            witness_person_ids = EXCLUDED.witness_person_ids,
            reporter_person_ids = EXCLUDED.reporter_person_ids,
            version = case_search_index.version + 1,
            indexed_at = EXCLUDED.indexed_at`

	searchSelectQuery = `
        SELECT s.case_id, s.tenant_id, s.document, s.version, s.indexed_at
        FROM case_search_index s`

	searchDeleteQuery = `DELETE FROM case_search_index WHERE case_id = $1 AND tenant_id = $2`

	searchListIDsQuery = `SELECT s.case_id FROM case_search_index s WHERE s.tenant_id = $1 ORDER BY s.case_id`
)

type PgSearchRepository struct{}

func NewSearchRepository() projection.Repository {
	return &PgSearchRepository{}
}

func (g *PgSearchRepository) Upsert(ctx context.Context, doc projection.Document) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}

	doc.Flatten()
	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal search document")
	}

	if _, err := tx.Exec(
		ctx,
		searchUpsertQuery,
		doc.CaseID,
		tenantID,
		payload,
		doc.PersonIDs,
		doc.SubjectPersonIDs,
		doc.WitnessPersonIDs,
		doc.ReporterPersonIDs,
		time.Now(),
	); err != nil {
		return errors.Wrap(err, "failed to upsert search document")
	}
	return nil
}

func (g *PgSearchRepository) GetByCaseID(ctx context.Context, caseID uuid.UUID) (projection.Document, error) {
	docs, _, err := g.queryDocuments(ctx, searchSelectQuery+" WHERE s.case_id = $1 AND s.tenant_id = $2", func(ctx context.Context) ([]interface{}, error) {
		tenantID, err := composables.UseTenantID(ctx)
		if err != nil {
			return nil, err
		}
		return []interface{}{caseID, tenantID}, nil
	})
	if err != nil {
		return projection.Document{}, err
	}
	if len(docs) == 0 {
		return projection.Document{}, fmt.Errorf("case: %s: %w", caseID, projection.ErrNotFound)
	}
	return docs[0], nil
}

func (g *PgSearchRepository) Delete(ctx context.Context, caseID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}

	if _, err := tx.Exec(ctx, searchDeleteQuery, caseID, tenantID); err != nil {
		return errors.Wrap(err, "failed to delete search document")
	}
	return nil
}

func (g *PgSearchRepository) ListCaseIDs(ctx context.Context) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	rows, err := tx.Query(ctx, searchListIDsQuery, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list indexed case ids")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed to scan case id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}
	return ids, nil
}

func (g *PgSearchRepository) FindByPersonID(ctx context.Context, personID uuid.UUID, roleFilter []string) ([]projection.CaseMatch, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	docs, indexedAt, err := g.queryDocuments(
		ctx,
		searchSelectQuery+" WHERE s.tenant_id = $1 AND s.person_ids && ARRAY[$2]::uuid[]",
		func(context.Context) ([]interface{}, error) {
			return []interface{}{tenantID, personID}, nil
		},
	)
	if err != nil {
		return nil, err
	}

	matches := make([]projection.CaseMatch, 0, len(docs))
	for i, doc := range docs {
		match := buildMatch(doc, indexedAt[i], personID, roleFilter)
		if match.MatchCount > 0 {
			matches = append(matches, match)
		}
	}
	rankMatches(matches)
	return matches, nil
}

func (g *PgSearchRepository) FindByCombination(ctx context.Context, criteria []projection.CombinationCriterion) ([]projection.CaseMatch, error) {
	if len(criteria) == 0 {
		return nil, nil
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get tenant from context")
	}

	// One containment predicate per criterion, ANDed: each must be
	// satisfied by a single nested person entry of the same document. A
	// criterion with several allowed roles expands to an OR of
	// single-entry containments.
	where := "s.tenant_id = $1"
	args := []interface{}{tenantID}
	for _, criterion := range criteria {
		var alternatives []string
		if len(criterion.Roles) == 0 {
			entry, err := containmentEntry(criterion.PersonID, "")
			if err != nil {
				return nil, err
			}
			args = append(args, entry)
			alternatives = append(alternatives, fmt.Sprintf("s.document->'associations'->'persons' @> $%d::jsonb", len(args)))
		} else {
			for _, role := range criterion.Roles {
				entry, err := containmentEntry(criterion.PersonID, role)
				if err != nil {
					return nil, err
				}
				args = append(args, entry)
				alternatives = append(alternatives, fmt.Sprintf("s.document->'associations'->'persons' @> $%d::jsonb", len(args)))
			}
		}
		where += " AND (" + joinOr(alternatives) + ")"
	}

	docs, indexedAt, err := g.queryDocuments(ctx, searchSelectQuery+" WHERE "+where, func(context.Context) ([]interface{}, error) {
		return args, nil
	})
	if err != nil {
		return nil, err
	}

	matches := make([]projection.CaseMatch, 0, len(docs))
	for i, doc := range docs {
		match := projection.CaseMatch{
			CaseID:     doc.CaseID,
			CaseNumber: doc.CaseNumber,
			Title:      doc.Title,
			Status:     doc.Status,
			Stage:      doc.Stage,
			IsMerged:   doc.IsMerged,
			MatchCount: len(criteria),
			IndexedAt:  indexedAt[i],
		}
		matches = append(matches, match)
	}
	rankMatches(matches)
	return matches, nil
}

func (g *PgSearchRepository) CountReporterEntries(ctx context.Context, personID, excludingReportID uuid.UUID) (int, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get tenant from context")
	}

	docs, _, err := g.queryDocuments(
		ctx,
		searchSelectQuery+" WHERE s.tenant_id = $1 AND s.reporter_person_ids && ARRAY[$2]::uuid[]",
		func(context.Context) ([]interface{}, error) {
			return []interface{}{tenantID, personID}, nil
		},
	)
	if err != nil {
		return 0, err
	}

	seen := make(map[uuid.UUID]struct{})
	for _, doc := range docs {
		for _, link := range doc.Associations.LinkedReports {
			if link.ReporterPersonID != personID {
				continue
			}
			if link.ReportID == excludingReportID {
				continue
			}
			seen[link.ReportID] = struct{}{}
		}
	}
	return len(seen), nil
}

func containmentEntry(personID uuid.UUID, role string) (string, error) {
	entry := map[string]string{"personId": personID.String()}
	if role != "" {
		entry["label"] = role
	}
	payload, err := json.Marshal([]map[string]string{entry})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal containment entry")
	}
	return string(payload), nil
}

func joinOr(alternatives []string) string {
	out := ""
	for i, alt := range alternatives {
		if i > 0 {
			out += " OR "
		}
		out += alt
	}
	return out
}

func buildMatch(doc projection.Document, indexedAt time.Time, personID uuid.UUID, roleFilter []string) projection.CaseMatch {
	allowed := func(label string) bool {
		if len(roleFilter) == 0 {
			return true
		}
		for _, role := range roleFilter {
			if role == label {
				return true
			}
		}
		return false
	}

	match := projection.CaseMatch{
		CaseID:     doc.CaseID,
		CaseNumber: doc.CaseNumber,
		Title:      doc.Title,
		Status:     doc.Status,
		Stage:      doc.Stage,
		IsMerged:   doc.IsMerged,
		IndexedAt:  indexedAt,
	}
	for _, entry := range doc.Associations.Persons {
		if entry.PersonID != personID || !allowed(entry.Label) {
			continue
		}
		match.MatchCount++
		match.Roles = appendUniqueString(match.Roles, entry.Label)
	}
	return match
}

func appendUniqueString(items []string, v string) []string {
	for _, existing := range items {
		if existing == v {
			return items
		}
	}
	return append(items, v)
}

func rankMatches(matches []projection.CaseMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchCount != matches[j].MatchCount {
			return matches[i].MatchCount > matches[j].MatchCount
		}
		return matches[i].IndexedAt.After(matches[j].IndexedAt)
	})
}

func (g *PgSearchRepository) queryDocuments(
	ctx context.Context,
	query string,
	argsFn func(context.Context) ([]interface{}, error),
) ([]projection.Document, []time.Time, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to get transaction")
	}

	args, err := argsFn(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to build query arguments")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var (
		docs      []projection.Document
		indexedAt []time.Time
	)
	for rows.Next() {
		var (
			caseID   uuid.UUID
			tenantID uuid.UUID
			payload  []byte
			version  int64
			at       time.Time
		)
		if err := rows.Scan(&caseID, &tenantID, &payload, &version, &at); err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan search row")
		}
		var doc projection.Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, nil, errors.Wrap(err, "failed to unmarshal search document")
		}
		docs = append(docs, doc)
		indexedAt = append(indexedAt, at)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "row iteration error")
	}
	return docs, indexedAt, nil
}
