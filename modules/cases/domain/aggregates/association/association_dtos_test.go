package association_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/pkg/intl"
)

func localizedContext() context.Context {
	return intl.WithLocalizer(context.Background(), intl.NewLocalizer("en"))
}

func TestCreatePersonCaseDTO_Ok(t *testing.T) {
	ctx := localizedContext()
	personID := "0d1c9b48-64f8-4b8e-9d7a-0f4f3f0a8a11"

	t.Run("valid evidentiary", func(t *testing.T) {
		dto := &association.CreatePersonCaseDTO{PersonID: personID, Label: "subject"}
		errs, ok := dto.Ok(ctx)
		require.True(t, ok)
		assert.Empty(t, errs)
	})

	t.Run("foreign label reported on Label", func(t *testing.T) {
		dto := &association.CreatePersonCaseDTO{PersonID: personID, Label: "SPOUSE"}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "Label")
	})

	t.Run("evidentiary rejects window fields", func(t *testing.T) {
		now := time.Now()
		dto := &association.CreatePersonCaseDTO{
			PersonID:  personID,
			Label:     "WITNESS",
			StartedAt: &now,
			EndedAt:   &now,
		}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "StartedAt")
		assert.Contains(t, errs, "EndedAt")
	})

	t.Run("role cannot start already ended", func(t *testing.T) {
		now := time.Now()
		dto := &association.CreatePersonCaseDTO{
			PersonID: personID,
			Label:    "INVESTIGATOR",
			EndedAt:  &now,
		}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "EndedAt")
	})
}

func TestCreateAssociationDTOs_LabelKind(t *testing.T) {
	ctx := localizedContext()
	id := "0d1c9b48-64f8-4b8e-9d7a-0f4f3f0a8a11"

	t.Run("person-report", func(t *testing.T) {
		dto := &association.CreatePersonReportDTO{PersonID: id, Label: "INVESTIGATOR"}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "Label")
	})

	t.Run("case-case", func(t *testing.T) {
		dto := &association.CreateCaseCaseDTO{ObjectCaseID: id, Label: "REPORTER"}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "Label")
	})

	t.Run("person-person", func(t *testing.T) {
		dto := &association.CreatePersonPersonDTO{OtherPersonID: id, Label: "SUBJECT"}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "Label")
	})
}

func TestEndRoleDTO_Ok(t *testing.T) {
	ctx := localizedContext()

	t.Run("reason required", func(t *testing.T) {
		now := time.Now()
		dto := &association.EndRoleDTO{EndedAt: &now}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "Reason")
	})

	t.Run("whitespace reason rejected", func(t *testing.T) {
		dto := &association.EndRoleDTO{Reason: "   "}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "Reason")
	})

	t.Run("valid", func(t *testing.T) {
		dto := &association.EndRoleDTO{Reason: "rotated off the investigation"}
		errs, ok := dto.Ok(ctx)
		require.True(t, ok)
		assert.Empty(t, errs)
	})
}
