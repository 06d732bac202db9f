package casefile_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
)

func TestCanAdvance(t *testing.T) {
	cases := []struct {
		name string
		from casefile.Stage
		to   casefile.Stage
		want bool
	}{
		{"forward step", casefile.StageIntake, casefile.StageTriage, true},
		{"skip ahead", casefile.StageTriage, casefile.StageReview, true},
		{"backward", casefile.StageReview, casefile.StageTriage, false},
		{"same stage", casefile.StageIntake, casefile.StageIntake, false},
		{"unknown stage", casefile.Stage("ARCHIVED"), casefile.StageReview, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, casefile.CanAdvance(tc.from, tc.to))
		})
	}
}

func TestAdvanceAndClose(t *testing.T) {
	entity := casefile.New(uuid.New(), "CASE-2026-0001", "Procurement irregularities")
	require.Equal(t, casefile.StatusOpen, entity.Status())
	require.Equal(t, casefile.StageIntake, entity.Stage())

	advanced, err := entity.Advance(casefile.StageInvestigation)
	require.NoError(t, err)
	require.Equal(t, casefile.StageInvestigation, advanced.Stage())

	_, err = advanced.Advance(casefile.StageTriage)
	var stageErr *casefile.StageTransitionError
	require.ErrorAs(t, err, &stageErr)

	closed, err := advanced.Close(casefile.OutcomeSubstantiated)
	require.NoError(t, err)
	require.Equal(t, casefile.StatusClosed, closed.Status())
	require.Equal(t, casefile.StageClosure, closed.Stage())

	_, err = advanced.Close(casefile.OutcomeMerged)
	require.ErrorIs(t, err, casefile.ErrInvalidOutcome)
}

func TestMarkMergedTombstone(t *testing.T) {
	entity := casefile.New(uuid.New(), "CASE-2026-0002", "Expense fraud")
	target := uuid.New()
	actor := uuid.New()
	at := time.Date(2026, 7, 14, 10, 30, 0, 0, time.UTC)

	tombstone := entity.MarkMerged(target, actor, "duplicate intake", at)

	require.True(t, tombstone.IsMerged())
	require.Equal(t, casefile.StatusClosed, tombstone.Status())
	require.Equal(t, casefile.OutcomeMerged, tombstone.Outcome())
	require.Equal(t, target, tombstone.MergedIntoCaseID())
	require.Equal(t, actor, tombstone.MergedBy())
	require.Equal(t, "duplicate intake", tombstone.MergedReason())
	require.Equal(t, at, tombstone.MergedAt())

	_, err := tombstone.Advance(casefile.StageReview)
	require.ErrorIs(t, err, casefile.ErrCaseMerged)
	_, err = tombstone.Close(casefile.OutcomeInconclusive)
	require.ErrorIs(t, err, casefile.ErrCaseMerged)
}
