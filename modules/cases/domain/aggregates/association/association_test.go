package association_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
)

func TestPersonCaseLabelClassification(t *testing.T) {
	tenantID := uuid.New()
	personID := uuid.New()
	caseID := uuid.New()

	t.Run("evidentiary starts active without window", func(t *testing.T) {
		a, err := association.NewPersonCase(tenantID, personID, caseID, association.LabelSubject, time.Time{})
		require.NoError(t, err)
		require.Equal(t, association.StatusActive, a.Status())
		require.True(t, a.StartedAt().IsZero())
		require.True(t, a.IsEvidentiary())
	})

	t.Run("role starts with window and no status", func(t *testing.T) {
		started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		a, err := association.NewPersonCase(tenantID, personID, caseID, association.LabelInvestigator, started)
		require.NoError(t, err)
		require.Empty(t, a.Status())
		require.Equal(t, started, a.StartedAt())
		require.True(t, a.IsRole())
	})

	t.Run("role started defaults to now", func(t *testing.T) {
		a, err := association.NewPersonCase(tenantID, personID, caseID, association.LabelLegalCounsel, time.Time{})
		require.NoError(t, err)
		require.False(t, a.StartedAt().IsZero())
	})

	t.Run("foreign label rejected", func(t *testing.T) {
		_, err := association.NewPersonCase(tenantID, personID, caseID, association.LabelSpouse, time.Time{})
		var kindErr *association.LabelKindError
		require.ErrorAs(t, err, &kindErr)
		require.Equal(t, association.KindPersonCase, kindErr.Kind)
	})
}

func TestPersonCaseStatusAndRoleBoundaries(t *testing.T) {
	tenantID := uuid.New()

	evidentiary, err := association.NewPersonCase(tenantID, uuid.New(), uuid.New(), association.LabelWitness, time.Time{})
	require.NoError(t, err)
	role, err := association.NewPersonCase(tenantID, uuid.New(), uuid.New(), association.LabelInvestigator, time.Time{})
	require.NoError(t, err)

	t.Run("evidentiary status moves", func(t *testing.T) {
		updated, err := evidentiary.UpdateStatus(association.StatusCleared)
		require.NoError(t, err)
		require.Equal(t, association.StatusCleared, updated.Status())
	})

	t.Run("evidentiary cannot end", func(t *testing.T) {
		_, err := evidentiary.EndRole(time.Now(), "reassigned")
		var classErr *association.ClassificationError
		require.ErrorAs(t, err, &classErr)
		require.Equal(t, "endRole", classErr.Op)
	})

	t.Run("role cannot change status", func(t *testing.T) {
		_, err := role.UpdateStatus(association.StatusWithdrawn)
		var classErr *association.ClassificationError
		require.ErrorAs(t, err, &classErr)
		require.Equal(t, "updateStatus", classErr.Op)
	})

	t.Run("role ends with reason", func(t *testing.T) {
		endedAt := time.Date(2026, 6, 1, 17, 0, 0, 0, time.UTC)
		ended, err := role.EndRole(endedAt, "rotated off the investigation")
		require.NoError(t, err)
		require.Equal(t, endedAt, ended.EndedAt())
		require.Equal(t, "rotated off the investigation", ended.EndedReason())
	})

	t.Run("removed row refuses mutation", func(t *testing.T) {
		removed := evidentiary.Remove(uuid.New(), "entered in error", time.Now())
		_, err := removed.UpdateStatus(association.StatusSubstantiated)
		require.ErrorIs(t, err, association.ErrRemoved)
	})
}

func TestPersonPersonCanonicalization(t *testing.T) {
	tenantID := uuid.New()
	personA := uuid.New()
	personB := uuid.New()

	forward, err := association.NewPersonPerson(tenantID, personA, personB, association.LabelColleague)
	require.NoError(t, err)
	reverse, err := association.NewPersonPerson(tenantID, personB, personA, association.LabelColleague)
	require.NoError(t, err)

	require.Equal(t, forward.PersonAID(), reverse.PersonAID())
	require.Equal(t, forward.PersonBID(), reverse.PersonBID())

	a, b := forward.PersonAID(), forward.PersonBID()
	require.True(t, bytes.Compare(a[:], b[:]) < 0)
}

func TestCaseCaseLabels(t *testing.T) {
	tenantID := uuid.New()

	_, err := association.NewCaseCase(tenantID, uuid.New(), uuid.New(), association.LabelMergedFrom)
	require.NoError(t, err)

	_, err = association.NewCaseCase(tenantID, uuid.New(), uuid.New(), association.LabelReporter)
	var kindErr *association.LabelKindError
	require.ErrorAs(t, err, &kindErr)
}

func TestPersonReportEvidentiaryOnly(t *testing.T) {
	tenantID := uuid.New()

	a, err := association.NewPersonReport(tenantID, uuid.New(), uuid.New(), association.LabelReporter)
	require.NoError(t, err)
	require.Equal(t, association.StatusActive, a.Status())

	_, err = association.NewPersonReport(tenantID, uuid.New(), uuid.New(), association.LabelInvestigator)
	var kindErr *association.LabelKindError
	require.ErrorAs(t, err, &kindErr)
}
