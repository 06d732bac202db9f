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

func newAssociationFixture(t *testing.T) (*memStore, *AssociationService, *stubOutbox, uuid.UUID) {
	t.Helper()
	store := newMemStore()
	useMemTx(t, store)
	publisher := &stubOutbox{}
	svc := NewAssociationService(&fakeAssocRepo{s: store}, &fakeCaseRepo{s: store}, publisher, nil)
	tenantID := uuid.New()
	return store, svc, publisher, tenantID
}

func requireServiceError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	require.Equal(t, status, svcErr.Status)
	require.Equal(t, code, svcErr.Code)
}

func TestAssociationService_DuplicateEvidentiaryRejected(t *testing.T) {
	store, svc, publisher, tenantID := newAssociationFixture(t)
	ctx := testCtx(tenantID)

	c := casefile.New(tenantID, "CASE-001", "first")
	store.cases[c.ID()] = c
	personID := uuid.New()

	dto := &association.CreatePersonCaseDTO{PersonID: personID.String(), Label: "SUBJECT"}
	created, err := svc.CreatePersonCase(ctx, c.ID(), dto)
	require.NoError(t, err)
	require.Equal(t, association.StatusActive, created.Status())
	require.Equal(t, []string{events.TopicAssociationChangedV1}, publisher.topics())

	_, err = svc.CreatePersonCase(ctx, c.ID(), &association.CreatePersonCaseDTO{PersonID: personID.String(), Label: "SUBJECT"})
	requireServiceError(t, err, http.StatusConflict, "ASSOCIATION_DUPLICATE")

	// A different label for the same pair is a different association.
	_, err = svc.CreatePersonCase(ctx, c.ID(), &association.CreatePersonCaseDTO{PersonID: personID.String(), Label: "WITNESS"})
	require.NoError(t, err)
}

func TestAssociationService_SymmetricCanonicalizationCollision(t *testing.T) {
	_, svc, _, tenantID := newAssociationFixture(t)
	ctx := testCtx(tenantID)

	personA := uuid.New()
	personB := uuid.New()

	created, err := svc.CreatePersonPerson(ctx, personA, &association.CreatePersonPersonDTO{
		OtherPersonID: personB.String(),
		Label:         "SPOUSE",
	})
	require.NoError(t, err)

	first, second := association.CanonicalPair(personA, personB)
	require.Equal(t, first, created.PersonAID())
	require.Equal(t, second, created.PersonBID())

	// The reversed pair canonicalizes onto the same row and conflicts.
	_, err = svc.CreatePersonPerson(ctx, personB, &association.CreatePersonPersonDTO{
		OtherPersonID: personA.String(),
		Label:         "SPOUSE",
	})
	requireServiceError(t, err, http.StatusConflict, "ASSOCIATION_DUPLICATE")
}

func TestAssociationService_EvidentiaryPermanence(t *testing.T) {
	store, svc, _, tenantID := newAssociationFixture(t)
	ctx := testCtx(tenantID)

	c := casefile.New(tenantID, "CASE-002", "standing")
	store.cases[c.ID()] = c

	created, err := svc.CreatePersonCase(ctx, c.ID(), &association.CreatePersonCaseDTO{
		PersonID: uuid.New().String(),
		Label:    "SUBJECT",
	})
	require.NoError(t, err)

	err = svc.UpdateStatus(ctx, association.KindPersonCase, created.ID(), &association.UpdateStatusDTO{Status: "CLEARED"})
	require.NoError(t, err)

	err = svc.Remove(ctx, association.KindPersonCase, created.ID(), &association.RemoveDTO{Reason: "entered in error"})
	require.NoError(t, err)

	// The row survives removal for audit; it just stops appearing in lists
	// and refuses further status changes.
	stored := store.personCase[created.ID()]
	require.True(t, stored.IsRemoved())
	require.Equal(t, "entered in error", stored.RemovedReason())
	require.Equal(t, association.StatusCleared, stored.Status())

	listed, err := svc.ListForCase(ctx, c.ID())
	require.NoError(t, err)
	require.Empty(t, listed.Persons)

	err = svc.UpdateStatus(ctx, association.KindPersonCase, created.ID(), &association.UpdateStatusDTO{Status: "ACTIVE"})
	requireServiceError(t, err, http.StatusConflict, "ASSOCIATION_REMOVED")
}

func TestAssociationService_RoleBoundedness(t *testing.T) {
	store, svc, _, tenantID := newAssociationFixture(t)
	ctx := testCtx(tenantID)

	c := casefile.New(tenantID, "CASE-003", "roles")
	store.cases[c.ID()] = c

	started := time.Now().Add(-48 * time.Hour)
	role, err := svc.CreatePersonCase(ctx, c.ID(), &association.CreatePersonCaseDTO{
		PersonID:  uuid.New().String(),
		Label:     "INVESTIGATOR",
		StartedAt: &started,
	})
	require.NoError(t, err)
	require.Equal(t, association.EvidentiaryStatus(""), role.Status())
	require.Equal(t, started, role.StartedAt())

	// Roles carry a window, not a status.
	err = svc.UpdateStatus(ctx, association.KindPersonCase, role.ID(), &association.UpdateStatusDTO{Status: "CLEARED"})
	requireServiceError(t, err, http.StatusBadRequest, "ASSOCIATION_CLASSIFICATION")

	// An end without a reason never reaches the store.
	ended := time.Now()
	err = svc.EndRole(ctx, role.ID(), &association.EndRoleDTO{EndedAt: &ended})
	requireServiceError(t, err, http.StatusUnprocessableEntity, "ASSOCIATION_END_REASON_REQUIRED")
	require.True(t, store.personCase[role.ID()].EndedAt().IsZero())

	err = svc.EndRole(ctx, role.ID(), &association.EndRoleDTO{EndedAt: &ended, Reason: "  "})
	requireServiceError(t, err, http.StatusUnprocessableEntity, "ASSOCIATION_END_REASON_REQUIRED")

	err = svc.EndRole(ctx, role.ID(), &association.EndRoleDTO{EndedAt: &ended, Reason: "reassigned"})
	require.NoError(t, err)

	stored := store.personCase[role.ID()]
	require.Equal(t, ended, stored.EndedAt())
	require.Equal(t, "reassigned", stored.EndedReason())

	// Evidentiary rows never gain a window.
	evid, err := svc.CreatePersonCase(ctx, c.ID(), &association.CreatePersonCaseDTO{
		PersonID: uuid.New().String(),
		Label:    "WITNESS",
	})
	require.NoError(t, err)
	err = svc.EndRole(ctx, evid.ID(), &association.EndRoleDTO{Reason: "n/a"})
	requireServiceError(t, err, http.StatusBadRequest, "ASSOCIATION_CLASSIFICATION")
}

func TestAssociationService_TombstoneAcceptsNoNewAssociations(t *testing.T) {
	store, svc, _, tenantID := newAssociationFixture(t)
	ctx := testCtx(tenantID)

	target := casefile.New(tenantID, "CASE-004", "survivor")
	source := casefile.New(tenantID, "CASE-005", "absorbed").MarkMerged(target.ID(), uuid.New(), "duplicate", time.Now())
	store.cases[target.ID()] = target
	store.cases[source.ID()] = source

	_, err := svc.CreatePersonCase(ctx, source.ID(), &association.CreatePersonCaseDTO{
		PersonID: uuid.New().String(),
		Label:    "SUBJECT",
	})
	requireServiceError(t, err, http.StatusConflict, "CASE_ALREADY_MERGED")

	_, err = svc.CreateCaseCase(ctx, target.ID(), &association.CreateCaseCaseDTO{
		ObjectCaseID: source.ID().String(),
		Label:        "RELATED",
	})
	requireServiceError(t, err, http.StatusConflict, "CASE_ALREADY_MERGED")
}

func TestAssociationService_UpdateStatusRejectsKindsWithoutStatus(t *testing.T) {
	_, svc, _, tenantID := newAssociationFixture(t)
	ctx := testCtx(tenantID)

	err := svc.UpdateStatus(ctx, association.KindCaseCase, uuid.New(), &association.UpdateStatusDTO{Status: "ACTIVE"})
	requireServiceError(t, err, http.StatusBadRequest, "ASSOCIATION_CLASSIFICATION")
}

func TestAssociationService_RemoveEmitsEventAndRollsBackTogether(t *testing.T) {
	store, svc, publisher, tenantID := newAssociationFixture(t)
	ctx := testCtx(tenantID)

	reportID := uuid.New()
	created, err := svc.CreatePersonReport(ctx, reportID, &association.CreatePersonReportDTO{
		PersonID: uuid.New().String(),
		Label:    "REPORTER",
	})
	require.NoError(t, err)

	err = svc.Remove(ctx, association.KindPersonReport, created.ID(), &association.RemoveDTO{Reason: "withdrawn"})
	require.NoError(t, err)

	require.Len(t, publisher.messages, 2)
	require.Equal(t, events.TopicAssociationChangedV1, publisher.messages[1].Topic)
	require.True(t, store.personReport[created.ID()].IsRemoved())

	listed, err := svc.ListForReport(ctx, reportID)
	require.NoError(t, err)
	require.Empty(t, listed)
}
