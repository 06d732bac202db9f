package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/domain/events"
)

type mergeFixture struct {
	store     *memStore
	svc       *MergeService
	mergeRepo *fakeMergeRepo
	publisher *stubOutbox
	tenantID  uuid.UUID
}

func newMergeFixture(t *testing.T) *mergeFixture {
	t.Helper()
	store := newMemStore()
	useMemTx(t, store)
	mergeRepo := &fakeMergeRepo{s: store}
	publisher := &stubOutbox{}
	svc := NewMergeService(&fakeCaseRepo{s: store}, mergeRepo, &fakeAssocRepo{s: store}, publisher, nil)
	return &mergeFixture{
		store:     store,
		svc:       svc,
		mergeRepo: mergeRepo,
		publisher: publisher,
		tenantID:  uuid.New(),
	}
}

func (f *mergeFixture) addCase(number string) casefile.Case {
	c := casefile.New(f.tenantID, number, number)
	f.store.cases[c.ID()] = c
	return c
}

func (f *mergeFixture) addPersonCase(t *testing.T, personID, caseID uuid.UUID, label association.Label) association.PersonCase {
	t.Helper()
	a, err := association.NewPersonCase(f.tenantID, personID, caseID, label, time.Time{})
	require.NoError(t, err)
	f.store.personCase[a.ID()] = a
	return a
}

func TestMergeService_SelfMergeRejected(t *testing.T) {
	f := newMergeFixture(t)
	ctx := testCtx(f.tenantID)

	id := uuid.New()
	_, err := f.svc.Merge(ctx, id, id, "dup")
	requireServiceError(t, err, http.StatusConflict, "MERGE_SELF")
	require.Empty(t, f.mergeRepo.lockCalls, "no lock may be taken for a rejected self-merge")
}

func TestMergeService_TombstoneExclusion(t *testing.T) {
	f := newMergeFixture(t)
	ctx := testCtx(f.tenantID)

	target := f.addCase("CASE-100")
	graveyard := f.addCase("CASE-101")
	source := casefile.New(f.tenantID, "CASE-102", "already gone").MarkMerged(graveyard.ID(), uuid.New(), "earlier merge", time.Now())
	f.store.cases[source.ID()] = source

	_, err := f.svc.Merge(ctx, source.ID(), target.ID(), "again")
	requireServiceError(t, err, http.StatusConflict, "CASE_ALREADY_MERGED")

	_, err = f.svc.Merge(ctx, target.ID(), source.ID(), "into tombstone")
	requireServiceError(t, err, http.StatusConflict, "CASE_ALREADY_MERGED")

	_, err = f.svc.Merge(ctx, uuid.New(), target.ID(), "missing source")
	requireServiceError(t, err, http.StatusNotFound, "CASE_NOT_FOUND")
}

func TestMergeService_MovesSupersedesAndTombstones(t *testing.T) {
	f := newMergeFixture(t)
	ctx := testCtx(f.tenantID)

	source := f.addCase("CASE-110")
	target := f.addCase("CASE-111")
	bystander := f.addCase("CASE-112")

	shared := uuid.New()
	onlyOnSource := uuid.New()
	f.addPersonCase(t, shared, source.ID(), association.LabelSubject)
	f.addPersonCase(t, shared, target.ID(), association.LabelSubject)
	moved := f.addPersonCase(t, onlyOnSource, source.ID(), association.LabelWitness)

	pairEdge, err := association.NewCaseCase(f.tenantID, source.ID(), target.ID(), association.LabelRelated)
	require.NoError(t, err)
	f.store.caseCase[pairEdge.ID()] = pairEdge
	outEdge, err := association.NewCaseCase(f.tenantID, source.ID(), bystander.ID(), association.LabelRelated)
	require.NoError(t, err)
	f.store.caseCase[outEdge.ID()] = outEdge

	link := casefile.NewReportLink(f.tenantID, source.ID(), uuid.New())
	f.store.links[link.ID()] = memReportLink{link: link}
	f.store.subordinates[source.ID()] = casefile.SubordinateCounts{Subjects: 2, Messages: 3}

	result, err := f.svc.Merge(ctx, source.ID(), target.ID(), "confirmed duplicate")
	require.NoError(t, err)

	require.Equal(t, int64(1), result.PersonAssociations, "only the non-colliding person row moves")
	require.Equal(t, int64(1), result.CaseAssociations)
	require.Equal(t, int64(2), result.SupersededAssociations, "shared person row and the pair edge are superseded")
	require.Equal(t, int64(1), result.ReportLinks)
	require.Equal(t, int64(2), result.Subjects)
	require.Equal(t, int64(3), result.Messages)

	tombstone := f.store.cases[source.ID()]
	require.True(t, tombstone.IsMerged())
	require.Equal(t, target.ID(), tombstone.MergedIntoCaseID())
	require.Equal(t, "confirmed duplicate", tombstone.MergedReason())
	require.Equal(t, casefile.StatusClosed, tombstone.Status())
	require.Equal(t, casefile.OutcomeMerged, tombstone.Outcome())

	require.Equal(t, target.ID(), f.store.personCase[moved.ID()].CaseID())
	require.Equal(t, "SUPERSEDED_BY_MERGE", f.store.caseCase[pairEdge.ID()].RemovedReason())

	relabeled := f.store.links[link.ID()]
	require.Equal(t, target.ID(), relabeled.link.CaseID())
	require.Equal(t, casefile.ReportLinkMergedFrom, relabeled.link.Label())

	var mergedEdge association.CaseCase
	for _, edge := range f.store.caseCase {
		if edge.Label() == association.LabelMergedFrom && !edge.IsRemoved() {
			mergedEdge = edge
		}
	}
	require.False(t, mergedEdge.IsZero(), "merge must leave a MERGED_FROM edge behind")
	require.Equal(t, target.ID(), mergedEdge.SubjectCaseID())
	require.Equal(t, source.ID(), mergedEdge.ObjectCaseID())

	require.Equal(t, []string{events.TopicCaseMergedV1, events.TopicCaseChangedV1}, f.publisher.topics())

	first, second := association.CanonicalPair(source.ID(), target.ID())
	require.Equal(t, [][2]uuid.UUID{{first, second}}, f.mergeRepo.lockCalls)
}

func TestMergeService_InjectedFailureRollsBackThenCleanRetry(t *testing.T) {
	f := newMergeFixture(t)
	ctx := testCtx(f.tenantID)

	source := f.addCase("CASE-120")
	target := f.addCase("CASE-121")
	a := f.addPersonCase(t, uuid.New(), source.ID(), association.LabelSubject)
	link := casefile.NewReportLink(f.tenantID, source.ID(), uuid.New())
	f.store.links[link.ID()] = memReportLink{link: link}

	f.mergeRepo.failAt = "links"
	_, err := f.svc.Merge(ctx, source.ID(), target.ID(), "dup")
	require.Error(t, err)

	// The failed attempt must leave no trace: associations still on the
	// source, no tombstone, no outbox events.
	require.False(t, f.store.cases[source.ID()].IsMerged())
	require.Equal(t, source.ID(), f.store.personCase[a.ID()].CaseID())
	require.Equal(t, source.ID(), f.store.links[link.ID()].link.CaseID())
	require.Empty(t, f.publisher.messages)

	f.mergeRepo.failAt = ""
	result, err := f.svc.Merge(ctx, source.ID(), target.ID(), "dup")
	require.NoError(t, err)
	require.Equal(t, int64(1), result.PersonAssociations)
	require.Equal(t, int64(1), result.ReportLinks)
	require.True(t, f.store.cases[source.ID()].IsMerged())
}

func TestMergeService_GetMergeHistory(t *testing.T) {
	f := newMergeFixture(t)
	ctx := testCtx(f.tenantID)

	target := f.addCase("CASE-130")
	first := f.addCase("CASE-131")
	second := f.addCase("CASE-132")

	_, err := f.svc.Merge(ctx, first.ID(), target.ID(), "dup one")
	require.NoError(t, err)
	_, err = f.svc.Merge(ctx, second.ID(), target.ID(), "dup two")
	require.NoError(t, err)

	history, err := f.svc.GetMergeHistory(ctx, target.ID())
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, c := range history {
		require.True(t, c.IsMerged())
		require.Equal(t, target.ID(), c.MergedIntoCaseID())
	}
}

func TestMergeService_ResolvePrimaryWalksChain(t *testing.T) {
	f := newMergeFixture(t)
	ctx := testCtx(f.tenantID)

	terminal := f.addCase("CASE-140")
	previous := terminal
	var head casefile.Case
	for i := 0; i < 5; i++ {
		c := casefile.New(f.tenantID, uuid.NewString(), "link in chain").MarkMerged(previous.ID(), uuid.New(), "chain", time.Now())
		f.store.cases[c.ID()] = c
		previous = c
		head = c
	}

	resolved, err := f.svc.ResolvePrimary(ctx, head.ID())
	require.NoError(t, err)
	require.Equal(t, terminal.ID(), resolved.ID())
	require.False(t, resolved.IsMerged())
}

func TestMergeService_ResolvePrimaryTerminatesOnCycle(t *testing.T) {
	f := newMergeFixture(t)
	ctx := testCtx(f.tenantID)

	// Two tombstones pointing at each other cannot happen through the
	// service, but the walk still has to terminate on corrupted data.
	a := casefile.New(f.tenantID, "CASE-150", "a")
	b := casefile.New(f.tenantID, "CASE-151", "b")
	a = a.MarkMerged(b.ID(), uuid.New(), "cycle", time.Now())
	b = b.MarkMerged(a.ID(), uuid.New(), "cycle", time.Now())
	f.store.cases[a.ID()] = a
	f.store.cases[b.ID()] = b

	resolved, err := f.svc.ResolvePrimary(ctx, a.ID())
	require.NoError(t, err)
	require.Contains(t, []uuid.UUID{a.ID(), b.ID()}, resolved.ID())
	require.True(t, resolved.IsMerged(), "a cycle has no terminal, the last visited tombstone comes back")
}
