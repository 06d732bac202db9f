package dtos_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	core "github.com/caseweave/caseweave/modules/core"
	"github.com/caseweave/caseweave/modules/core/presentation/controllers/dtos"
	"github.com/caseweave/caseweave/pkg/intl"
)

func localizedContext(t *testing.T) context.Context {
	t.Helper()

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	data, err := core.LocaleFiles.ReadFile("presentation/locales/en.json")
	require.NoError(t, err)
	bundle.MustParseMessageFileBytes(data, "en.json")

	return intl.WithLocalizer(context.Background(), i18n.NewLocalizer(bundle, "en"))
}

func TestCreateUserDTO_Ok(t *testing.T) {
	ctx := localizedContext(t)

	t.Run("valid payload", func(t *testing.T) {
		dto := &dtos.CreateUserDTO{
			FirstName: "Ada",
			LastName:  "Byron",
			Email:     "ada@test.com",
			Language:  "en",
		}
		errs, ok := dto.Ok(ctx)
		require.True(t, ok)
		assert.Empty(t, errs)
	})

	t.Run("missing fields are reported per field", func(t *testing.T) {
		dto := &dtos.CreateUserDTO{}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "FirstName")
		assert.Contains(t, errs, "LastName")
		assert.Contains(t, errs, "Email")
		assert.Contains(t, errs, "Language")
		assert.Equal(t, "First name is required", errs["FirstName"])
	})

	t.Run("bad email", func(t *testing.T) {
		dto := &dtos.CreateUserDTO{
			FirstName: "Ada",
			LastName:  "Byron",
			Email:     "not-an-email",
			Language:  "en",
		}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "Email")
	})

	t.Run("unsupported language", func(t *testing.T) {
		dto := &dtos.CreateUserDTO{
			FirstName: "Ada",
			LastName:  "Byron",
			Email:     "ada@test.com",
			Language:  "de",
		}
		errs, ok := dto.Ok(ctx)
		require.False(t, ok)
		assert.Contains(t, errs, "Language")
	})
}

func TestCreateUserDTO_ToEntity(t *testing.T) {
	tenantID := uuid.New()
	dto := &dtos.CreateUserDTO{
		FirstName: "Ada",
		LastName:  "Byron",
		Email:     "Ada@Test.com",
		Language:  "ru",
	}

	entity, err := dto.ToEntity(tenantID)
	require.NoError(t, err)
	assert.Equal(t, tenantID, entity.TenantID())
	assert.Equal(t, "ada@test.com", entity.Email().Value())
	assert.Equal(t, "ru", string(entity.UILanguage()))
}

func TestUpdateUserDTO_Apply(t *testing.T) {
	tenantID := uuid.New()
	createDTO := &dtos.CreateUserDTO{
		FirstName: "Ada",
		LastName:  "Byron",
		Email:     "ada@test.com",
		Language:  "en",
	}
	entity, err := createDTO.ToEntity(tenantID)
	require.NoError(t, err)

	updateDTO := &dtos.UpdateUserDTO{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@test.com",
		Language:  "ru",
	}
	updated, err := updateDTO.Apply(entity)
	require.NoError(t, err)

	assert.Equal(t, entity.ID(), updated.ID())
	assert.Equal(t, "Grace", updated.FirstName())
	assert.Equal(t, "grace@test.com", updated.Email().Value())
	assert.Equal(t, "Ada", entity.FirstName(), "source entity must stay unchanged")
}
