package user_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/modules/core/domain/value_objects/internet"
)

func TestUserNew(t *testing.T) {
	tenantID := uuid.New()
	email := internet.MustParseEmail("analyst@acme.org")

	u := user.New("  Ada ", " Byron ", email, user.UILanguageEN,
		user.WithTenantID(tenantID),
	)

	assert.NotEqual(t, uuid.Nil, u.ID())
	assert.Equal(t, tenantID, u.TenantID())
	assert.Equal(t, "Ada", u.FirstName())
	assert.Equal(t, "Byron", u.LastName())
	assert.Equal(t, "Ada Byron", u.FullName())
	assert.Equal(t, email, u.Email())
	assert.Equal(t, user.UILanguageEN, u.UILanguage())
	assert.False(t, u.CreatedAt().IsZero())
}

func TestUserMutatorsDoNotAliasReceiver(t *testing.T) {
	original := user.New("Ada", "Byron", internet.MustParseEmail("analyst@acme.org"), user.UILanguageEN)

	renamed := original.Rename("Grace", "Hopper")
	assert.Equal(t, "Ada", original.FirstName(), "receiver must stay unchanged")
	assert.Equal(t, "Grace", renamed.FirstName())
	assert.Equal(t, original.ID(), renamed.ID())

	newEmail := internet.MustParseEmail("grace@acme.org")
	withEmail := renamed.SetEmail(newEmail)
	assert.Equal(t, "analyst@acme.org", renamed.Email().Value())
	assert.Equal(t, newEmail, withEmail.Email())

	localized := withEmail.SetUILanguage(user.UILanguageRU)
	assert.Equal(t, user.UILanguageEN, withEmail.UILanguage())
	assert.Equal(t, user.UILanguageRU, localized.UILanguage())
}

func TestNewUILanguage(t *testing.T) {
	lang, err := user.NewUILanguage("ru")
	require.NoError(t, err)
	assert.Equal(t, user.UILanguageRU, lang)

	_, err = user.NewUILanguage("de")
	require.Error(t, err)

	assert.True(t, user.UILanguageEN.IsValid())
	assert.False(t, user.UILanguage("xx").IsValid())
}
