package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/domain/projection"
	"github.com/caseweave/caseweave/modules/people/domain/aggregates/person"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/configuration"
)

var (
	patternIndexProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cases",
		Subsystem: "pattern_index",
		Name:      "documents_total",
		Help:      "Pattern index documents rebuilt, by result.",
	}, []string{"result"})

	patternIndexDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cases",
		Subsystem: "pattern_index",
		Name:      "rebuild_seconds",
		Help:      "Time spent rebuilding a single pattern index document.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})
)

// PatternIndexService keeps the per-case search documents in step with the
// relational store. Every reindex is a full rebuild of one document; partial
// patches would drift the moment a merge rewrites associations in bulk.
type PatternIndexService struct {
	cases   casefile.Repository
	assocs  association.Repository
	persons person.Repository
	search  projection.Repository
}

func NewPatternIndexService(
	cases casefile.Repository,
	assocs association.Repository,
	persons person.Repository,
	search projection.Repository,
) *PatternIndexService {
	return &PatternIndexService{
		cases:   cases,
		assocs:  assocs,
		persons: persons,
		search:  search,
	}
}

// Reindex rebuilds the search document for one case. A case that no longer
// exists gets its document deleted instead.
func (s *PatternIndexService) Reindex(ctx context.Context, tenantID, caseID uuid.UUID) error {
	if !configuration.Use().PatternIndex.Enabled {
		return nil
	}

	start := time.Now()
	ctx = composables.WithTenantID(ctx, tenantID)

	err := inTx(ctx, func(txCtx context.Context) error {
		entity, innerErr := s.cases.GetByID(txCtx, caseID)
		if innerErr != nil {
			if errors.Is(innerErr, casefile.ErrNotFound) {
				return s.search.Delete(txCtx, caseID)
			}
			return innerErr
		}

		doc, innerErr := s.buildDocument(txCtx, entity)
		if innerErr != nil {
			return innerErr
		}
		return s.search.Upsert(txCtx, doc)
	})

	patternIndexDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		patternIndexProcessed.WithLabelValues("error").Inc()
		return err
	}
	patternIndexProcessed.WithLabelValues("ok").Inc()
	return nil
}

func (s *PatternIndexService) buildDocument(ctx context.Context, entity casefile.Case) (projection.Document, error) {
	doc := projection.Document{
		CaseID:     entity.ID(),
		CaseNumber: entity.CaseNumber(),
		Title:      entity.Title(),
		Status:     string(entity.Status()),
		Stage:      string(entity.Stage()),
		IsMerged:   entity.IsMerged(),
	}

	personAssocs, err := s.assocs.ListPersonCaseForCase(ctx, entity.ID())
	if err != nil {
		return projection.Document{}, err
	}

	names, err := s.personNames(ctx, personAssocs)
	if err != nil {
		return projection.Document{}, err
	}
	for _, a := range personAssocs {
		doc.Associations.Persons = append(doc.Associations.Persons, projection.PersonEntry{
			PersonID:          a.PersonID(),
			PersonName:        names[a.PersonID()],
			Label:             string(a.Label()),
			EvidentiaryStatus: string(a.Status()),
		})
	}

	links, err := s.cases.ListReportLinks(ctx, entity.ID())
	if err != nil {
		return projection.Document{}, err
	}
	for _, link := range links {
		reporter, innerErr := s.reporterFor(ctx, link.ReportID())
		if innerErr != nil {
			return projection.Document{}, innerErr
		}
		doc.Associations.LinkedReports = append(doc.Associations.LinkedReports, projection.ReportEntry{
			ReportID:         link.ReportID(),
			Label:            string(link.Label()),
			ReporterPersonID: reporter,
		})
	}

	edges, err := s.assocs.ListCaseCaseForCase(ctx, entity.ID())
	if err != nil {
		return projection.Document{}, err
	}
	for _, edge := range edges {
		linked := projection.CaseEntry{Label: string(edge.Label())}
		if edge.SubjectCaseID() == entity.ID() {
			linked.CaseID = edge.ObjectCaseID()
			linked.Direction = projection.DirectionOutbound
		} else {
			linked.CaseID = edge.SubjectCaseID()
			linked.Direction = projection.DirectionInbound
		}
		doc.Associations.LinkedCases = append(doc.Associations.LinkedCases, linked)
	}

	doc.Flatten()
	return doc, nil
}

func (s *PatternIndexService) personNames(ctx context.Context, assocs []association.PersonCase) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(assocs))
	seen := make(map[uuid.UUID]struct{}, len(assocs))
	for _, a := range assocs {
		if _, ok := seen[a.PersonID()]; ok {
			continue
		}
		seen[a.PersonID()] = struct{}{}
		ids = append(ids, a.PersonID())
	}
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	people, err := s.persons.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(people))
	for _, p := range people {
		names[p.ID()] = p.DisplayName()
	}
	return names, nil
}

// reporterFor resolves the REPORTER of a linked report, uuid.Nil when the
// report was filed anonymously or the association was removed.
func (s *PatternIndexService) reporterFor(ctx context.Context, reportID uuid.UUID) (uuid.UUID, error) {
	assocs, err := s.assocs.ListPersonReportForReport(ctx, reportID)
	if err != nil {
		return uuid.Nil, err
	}
	for _, a := range assocs {
		if a.Label() == association.LabelReporter {
			return a.PersonID(), nil
		}
	}
	return uuid.Nil, nil
}

// RebuildTenant reindexes every case of the tenant in batches. Used by the
// pattern-index CLI after bulk imports or schema changes.
func (s *PatternIndexService) RebuildTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	ctx = composables.WithTenantID(ctx, tenantID)
	batchSize := configuration.Use().PatternIndex.RebuildBatchSize
	if batchSize <= 0 {
		batchSize = 200
	}

	total := 0
	for offset := 0; ; offset += batchSize {
		var batch []casefile.Case
		err := inTx(ctx, func(txCtx context.Context) error {
			var innerErr error
			batch, innerErr = s.cases.GetPaginated(txCtx, &casefile.FindParams{
				IncludeMerged: true,
				Limit:         batchSize,
				Offset:        offset,
			})
			return innerErr
		})
		if err != nil {
			return total, err
		}
		if len(batch) == 0 {
			return total, nil
		}

		for _, entity := range batch {
			if err := s.Reindex(ctx, tenantID, entity.ID()); err != nil {
				return total, err
			}
			total++
		}
		if len(batch) < batchSize {
			return total, nil
		}
	}
}

// VerifyResult lists drift between the relational store and the index.
type VerifyResult struct {
	Missing  []uuid.UUID `json:"missing"`
	Orphaned []uuid.UUID `json:"orphaned"`
}

// Verify reports cases without a document and documents without a case.
func (s *PatternIndexService) Verify(ctx context.Context, tenantID uuid.UUID) (VerifyResult, error) {
	ctx = composables.WithTenantID(ctx, tenantID)

	var result VerifyResult
	err := inTx(ctx, func(txCtx context.Context) error {
		indexed, innerErr := s.search.ListCaseIDs(txCtx)
		if innerErr != nil {
			return innerErr
		}
		indexedSet := make(map[uuid.UUID]struct{}, len(indexed))
		for _, id := range indexed {
			indexedSet[id] = struct{}{}
		}

		caseSet := make(map[uuid.UUID]struct{})
		batchSize := configuration.Use().PatternIndex.RebuildBatchSize
		if batchSize <= 0 {
			batchSize = 200
		}
		for offset := 0; ; offset += batchSize {
			batch, batchErr := s.cases.GetPaginated(txCtx, &casefile.FindParams{
				IncludeMerged: true,
				Limit:         batchSize,
				Offset:        offset,
			})
			if batchErr != nil {
				return batchErr
			}
			for _, entity := range batch {
				caseSet[entity.ID()] = struct{}{}
				if _, ok := indexedSet[entity.ID()]; !ok {
					result.Missing = append(result.Missing, entity.ID())
				}
			}
			if len(batch) < batchSize {
				break
			}
		}

		for _, id := range indexed {
			if _, ok := caseSet[id]; !ok {
				result.Orphaned = append(result.Orphaned, id)
			}
		}
		return nil
	})
	if err != nil {
		return VerifyResult{}, err
	}
	return result, nil
}
