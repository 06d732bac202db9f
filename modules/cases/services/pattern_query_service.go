package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/caseweave/caseweave/modules/cases/domain/projection"
)

// PatternQueryService answers cross-entity pattern questions from the
// search projection. It never touches the relational tables, so answers
// are at most one relay cycle stale.
type PatternQueryService struct {
	search projection.Repository
}

func NewPatternQueryService(search projection.Repository) *PatternQueryService {
	return &PatternQueryService{search: search}
}

// FindCasesInvolvingPerson lists cases the person appears on, optionally
// restricted to roles. nameQuery, when set, fuzzy-matches against the
// person names recorded on each case document; UI search passes the
// half-typed name here.
func (s *PatternQueryService) FindCasesInvolvingPerson(ctx context.Context, personID uuid.UUID, roleFilter []string, nameQuery string) ([]projection.CaseMatch, error) {
	if err := authorizeCases(ctx, patternsAuthzObject, "list"); err != nil {
		return nil, err
	}

	var matches []projection.CaseMatch
	err := inTx(ctx, func(txCtx context.Context) error {
		found, innerErr := s.search.FindByPersonID(txCtx, personID, roleFilter)
		if innerErr != nil {
			return innerErr
		}

		nameQuery = strings.TrimSpace(nameQuery)
		if nameQuery == "" {
			matches = found
			return nil
		}

		for _, m := range found {
			doc, docErr := s.search.GetByCaseID(txCtx, m.CaseID)
			if docErr != nil {
				return docErr
			}
			for _, entry := range doc.Associations.Persons {
				if entry.PersonID == personID && fuzzy.MatchNormalizedFold(nameQuery, entry.PersonName) {
					matches = append(matches, m)
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapCasesError(err)
	}
	return matches, nil
}

// FindCasesWithPersonCombination finds cases where every criterion is
// satisfied by a single nested person entry on the same document. Two
// criteria met by different cases never match.
func (s *PatternQueryService) FindCasesWithPersonCombination(ctx context.Context, criteria []projection.CombinationCriterion) ([]projection.CaseMatch, error) {
	if err := authorizeCases(ctx, patternsAuthzObject, "list"); err != nil {
		return nil, err
	}
	if len(criteria) == 0 {
		return nil, nil
	}

	var matches []projection.CaseMatch
	err := inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		matches, innerErr = s.search.FindByCombination(txCtx, criteria)
		return innerErr
	})
	if err != nil {
		return nil, mapCasesError(err)
	}
	return matches, nil
}

// GetReporterHistory counts prior reports attributed to the person,
// excluding the report currently on screen.
func (s *PatternQueryService) GetReporterHistory(ctx context.Context, personID, excludingReportID uuid.UUID) (*projection.ReporterHistory, error) {
	if err := authorizeCases(ctx, patternsAuthzObject, "view"); err != nil {
		return nil, err
	}

	var count int
	err := inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		count, innerErr = s.search.CountReporterEntries(txCtx, personID, excludingReportID)
		return innerErr
	})
	if err != nil {
		return nil, mapCasesError(err)
	}

	history := &projection.ReporterHistory{
		PersonID:      personID,
		PreviousCount: count,
	}
	switch count {
	case 0:
		history.Summary = "no previous reports"
	case 1:
		history.Summary = "1 previous report"
	default:
		history.Summary = fmt.Sprintf("%d previous reports", count)
	}
	return history, nil
}
