package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/domain/events"
	"github.com/caseweave/caseweave/pkg/authz"
)

func denyCasesAuthz(t *testing.T, wantObject, wantAction string) {
	t.Helper()
	t.Cleanup(func() { authorizeCasesFn = defaultAuthorizeCases })
	authorizeCasesFn = func(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
		require.Equal(t, wantObject, object)
		require.Equal(t, wantAction, action)
		return errors.New("forbidden")
	}
}

func TestCaseService_AuthorizeCreateDenied(t *testing.T) {
	denyCasesAuthz(t, casesAuthzObject, "create")

	store := newMemStore()
	useMemTx(t, store)
	svc := NewCaseService(&fakeCaseRepo{s: store}, &stubOutbox{}, nil)

	_, err := svc.Create(testCtx(uuid.New()), &casefile.CreateDTO{CaseNumber: "X", Title: "x"})
	require.Error(t, err)
	require.Empty(t, store.cases)
}

func TestCaseService_CreateEnforcesCaseNumberUniqueness(t *testing.T) {
	store := newMemStore()
	useMemTx(t, store)
	publisher := &stubOutbox{}
	svc := NewCaseService(&fakeCaseRepo{s: store}, publisher, nil)
	ctx := testCtx(uuid.New())

	created, err := svc.Create(ctx, &casefile.CreateDTO{CaseNumber: "CASE-400", Title: "one"})
	require.NoError(t, err)
	require.Equal(t, casefile.StatusOpen, created.Status())
	require.Equal(t, casefile.StageIntake, created.Stage())
	require.Equal(t, []string{events.TopicCaseChangedV1}, publisher.topics())

	_, err = svc.Create(ctx, &casefile.CreateDTO{CaseNumber: "CASE-400", Title: "two"})
	requireServiceError(t, err, http.StatusConflict, "CASE_NUMBER_CONFLICT")
	require.Len(t, publisher.messages, 1, "failed create enqueues nothing")
}

func TestCaseService_UpdateAdvancesForwardOnly(t *testing.T) {
	store := newMemStore()
	useMemTx(t, store)
	svc := NewCaseService(&fakeCaseRepo{s: store}, &stubOutbox{}, nil)
	tenantID := uuid.New()
	ctx := testCtx(tenantID)

	c := casefile.New(tenantID, "CASE-410", "pipeline")
	store.cases[c.ID()] = c

	updated, err := svc.Update(ctx, c.ID(), &casefile.UpdateDTO{Stage: "INVESTIGATION"})
	require.NoError(t, err)
	require.Equal(t, casefile.StageInvestigation, updated.Stage())

	_, err = svc.Update(ctx, c.ID(), &casefile.UpdateDTO{Stage: "TRIAGE"})
	var stageErr *casefile.StageTransitionError
	require.ErrorAs(t, err, &stageErr)

	closed, err := svc.Update(ctx, c.ID(), &casefile.UpdateDTO{Outcome: "SUBSTANTIATED"})
	require.NoError(t, err)
	require.Equal(t, casefile.StatusClosed, closed.Status())
	require.Equal(t, casefile.OutcomeSubstantiated, closed.Outcome())
}

func TestCaseService_LinkReport(t *testing.T) {
	store := newMemStore()
	useMemTx(t, store)
	svc := NewCaseService(&fakeCaseRepo{s: store}, &stubOutbox{}, nil)
	tenantID := uuid.New()
	ctx := testCtx(tenantID)

	c := casefile.New(tenantID, "CASE-420", "linked")
	store.cases[c.ID()] = c
	reportID := uuid.New()

	link, err := svc.LinkReport(ctx, c.ID(), reportID)
	require.NoError(t, err)
	require.Equal(t, casefile.ReportLinkLinked, link.Label())

	_, err = svc.LinkReport(ctx, c.ID(), reportID)
	requireServiceError(t, err, http.StatusConflict, "REPORT_ALREADY_LINKED")

	tomb := casefile.New(tenantID, "CASE-421", "gone").MarkMerged(c.ID(), uuid.New(), "dup", time.Now())
	store.cases[tomb.ID()] = tomb
	_, err = svc.LinkReport(ctx, tomb.ID(), uuid.New())
	requireServiceError(t, err, http.StatusConflict, "CASE_ALREADY_MERGED")

	links, err := svc.ListReportLinks(ctx, c.ID())
	require.NoError(t, err)
	require.Len(t, links, 1)
}

func TestCaseService_GetPaginatedExcludesTombstonesByDefault(t *testing.T) {
	store := newMemStore()
	useMemTx(t, store)
	svc := NewCaseService(&fakeCaseRepo{s: store}, &stubOutbox{}, nil)
	tenantID := uuid.New()
	ctx := testCtx(tenantID)

	live := casefile.New(tenantID, "CASE-430", "live")
	store.cases[live.ID()] = live
	tomb := casefile.New(tenantID, "CASE-431", "merged").MarkMerged(live.ID(), uuid.New(), "dup", time.Now())
	store.cases[tomb.ID()] = tomb

	items, total, err := svc.GetPaginated(ctx, &casefile.FindParams{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	require.Equal(t, live.ID(), items[0].ID())

	items, total, err = svc.GetPaginated(ctx, &casefile.FindParams{IncludeMerged: true})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)
}
