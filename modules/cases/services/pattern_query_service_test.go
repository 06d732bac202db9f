package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/domain/projection"
)

func TestPatternQueryService_CombinationRequiresSameDocument(t *testing.T) {
	store := newMemStore()
	useMemTx(t, store)
	search := newFakeSearchRepo()
	svc := NewPatternQueryService(search)
	tenantID := uuid.New()
	ctx := testCtx(tenantID)

	personA := uuid.New()
	personB := uuid.New()

	together := uuid.New()
	require.NoError(t, search.Upsert(ctx, projection.Document{
		CaseID:     together,
		CaseNumber: "CASE-300",
		Associations: projection.Associations{Persons: []projection.PersonEntry{
			{PersonID: personA, Label: "SUBJECT"},
			{PersonID: personB, Label: "WITNESS"},
		}},
	}))

	// A and B appear with the right roles, but on two different cases.
	require.NoError(t, search.Upsert(ctx, projection.Document{
		CaseID:     uuid.New(),
		CaseNumber: "CASE-301",
		Associations: projection.Associations{Persons: []projection.PersonEntry{
			{PersonID: personA, Label: "SUBJECT"},
		}},
	}))
	require.NoError(t, search.Upsert(ctx, projection.Document{
		CaseID:     uuid.New(),
		CaseNumber: "CASE-302",
		Associations: projection.Associations{Persons: []projection.PersonEntry{
			{PersonID: personB, Label: "WITNESS"},
		}},
	}))

	matches, err := svc.FindCasesWithPersonCombination(ctx, []projection.CombinationCriterion{
		{PersonID: personA, Roles: []string{"SUBJECT"}},
		{PersonID: personB, Roles: []string{"WITNESS"}},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, together, matches[0].CaseID)

	// Same people, roles swapped: no single entry satisfies either criterion.
	matches, err = svc.FindCasesWithPersonCombination(ctx, []projection.CombinationCriterion{
		{PersonID: personA, Roles: []string{"WITNESS"}},
		{PersonID: personB, Roles: []string{"SUBJECT"}},
	})
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestPatternQueryService_FindCasesInvolvingPersonRoleFilterAndFuzzyName(t *testing.T) {
	store := newMemStore()
	useMemTx(t, store)
	search := newFakeSearchRepo()
	svc := NewPatternQueryService(search)
	tenantID := uuid.New()
	ctx := testCtx(tenantID)

	personID := uuid.New()
	asSubject := uuid.New()
	require.NoError(t, search.Upsert(ctx, projection.Document{
		CaseID:     asSubject,
		CaseNumber: "CASE-310",
		Associations: projection.Associations{Persons: []projection.PersonEntry{
			{PersonID: personID, PersonName: "Margarethe Olsen", Label: "SUBJECT"},
		}},
	}))
	require.NoError(t, search.Upsert(ctx, projection.Document{
		CaseID:     uuid.New(),
		CaseNumber: "CASE-311",
		Associations: projection.Associations{Persons: []projection.PersonEntry{
			{PersonID: personID, PersonName: "Margarethe Olsen", Label: "WITNESS"},
		}},
	}))

	matches, err := svc.FindCasesInvolvingPerson(ctx, personID, []string{"SUBJECT"}, "")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, asSubject, matches[0].CaseID)
	require.Equal(t, []string{"SUBJECT"}, matches[0].Roles)

	matches, err = svc.FindCasesInvolvingPerson(ctx, personID, nil, "margrethe")
	require.NoError(t, err)
	require.Len(t, matches, 2, "fuzzy name match tolerates the misspelling")

	matches, err = svc.FindCasesInvolvingPerson(ctx, personID, nil, "zzzz")
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestPatternQueryService_ReporterHistorySummary(t *testing.T) {
	store := newMemStore()
	useMemTx(t, store)
	search := newFakeSearchRepo()
	svc := NewPatternQueryService(search)
	tenantID := uuid.New()
	ctx := testCtx(tenantID)

	personID := uuid.New()
	current := uuid.New()
	previous := uuid.New()
	require.NoError(t, search.Upsert(ctx, projection.Document{
		CaseID: uuid.New(),
		Associations: projection.Associations{LinkedReports: []projection.ReportEntry{
			{ReportID: current, Label: "LINKED", ReporterPersonID: personID},
			{ReportID: previous, Label: "LINKED", ReporterPersonID: personID},
		}},
	}))

	history, err := svc.GetReporterHistory(ctx, personID, current)
	require.NoError(t, err)
	require.Equal(t, 1, history.PreviousCount)
	require.Equal(t, "1 previous report", history.Summary)

	history, err = svc.GetReporterHistory(ctx, uuid.New(), uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, 0, history.PreviousCount)
	require.Equal(t, "no previous reports", history.Summary)
}

// End-to-end consolidation scenario: C1 (SUBJECT=P1) merged into C2
// (REPORTER=P1, SUBJECT=P2); the surviving case carries all three
// associations and reporter history still resolves through C2.
func TestConsolidationScenarioEndToEnd(t *testing.T) {
	store := newMemStore()
	useMemTx(t, store)
	tenantID := uuid.New()
	ctx := testCtx(tenantID)

	caseRepo := &fakeCaseRepo{s: store}
	assocRepo := &fakeAssocRepo{s: store}
	persons := newFakePersonRepo()
	search := newFakeSearchRepo()
	publisher := &stubOutbox{}

	mergeSvc := NewMergeService(caseRepo, &fakeMergeRepo{s: store}, assocRepo, publisher, nil)
	indexSvc := NewPatternIndexService(caseRepo, assocRepo, persons, search)
	querySvc := NewPatternQueryService(search)

	p1 := persons.add(tenantID, "Pat", "One")
	p2 := persons.add(tenantID, "Quinn", "Two")

	c1 := casefile.New(tenantID, "C1", "first complaint")
	c2 := casefile.New(tenantID, "C2", "second complaint")
	store.cases[c1.ID()] = c1
	store.cases[c2.ID()] = c2

	mustPersonCase := func(personID, caseID uuid.UUID, label association.Label) {
		a, err := association.NewPersonCase(tenantID, personID, caseID, label, time.Time{})
		require.NoError(t, err)
		store.personCase[a.ID()] = a
	}
	mustPersonCase(p1.ID(), c1.ID(), association.LabelSubject)
	mustPersonCase(p1.ID(), c2.ID(), association.LabelReporter)
	mustPersonCase(p2.ID(), c2.ID(), association.LabelSubject)

	// Each case grew out of a report filed by P1.
	report1 := uuid.New()
	report2 := uuid.New()
	for caseID, reportID := range map[uuid.UUID]uuid.UUID{c1.ID(): report1, c2.ID(): report2} {
		link := casefile.NewReportLink(tenantID, caseID, reportID)
		store.links[link.ID()] = memReportLink{link: link}
		a, err := association.NewPersonReport(tenantID, p1.ID(), reportID, association.LabelReporter)
		require.NoError(t, err)
		store.personReport[a.ID()] = a
	}

	result, err := mergeSvc.Merge(ctx, c1.ID(), c2.ID(), "duplicate report")
	require.NoError(t, err)
	require.Equal(t, int64(1), result.PersonAssociations)
	require.Equal(t, int64(1), result.ReportLinks)

	tombstone := store.cases[c1.ID()]
	require.True(t, tombstone.IsMerged())
	require.Equal(t, c2.ID(), tombstone.MergedIntoCaseID())

	require.NoError(t, indexSvc.Reindex(ctx, tenantID, c1.ID()))
	require.NoError(t, indexSvc.Reindex(ctx, tenantID, c2.ID()))

	doc, err := search.GetByCaseID(ctx, c2.ID())
	require.NoError(t, err)
	labels := map[string]int{}
	for _, entry := range doc.Associations.Persons {
		labels[entry.Label]++
	}
	require.Equal(t, map[string]int{"SUBJECT": 2, "REPORTER": 1}, labels)
	require.Len(t, doc.Associations.LinkedReports, 2, "both reports now hang off C2")

	history, err := querySvc.GetReporterHistory(ctx, p1.ID(), uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, 2, history.PreviousCount, "both reporter entries resolve under the surviving case")

	matches, err := querySvc.FindCasesWithPersonCombination(ctx, []projection.CombinationCriterion{
		{PersonID: p1.ID(), Roles: []string{"SUBJECT"}},
		{PersonID: p2.ID(), Roles: []string{"SUBJECT"}},
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, c2.ID(), matches[0].CaseID)
}
