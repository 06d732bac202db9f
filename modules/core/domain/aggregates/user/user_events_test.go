package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/modules/core/domain/value_objects/internet"
)

// The event constructors take the sender explicitly; resolving the actor
// from context is the service layer's job.
func TestUserEventsCarryExplicitSender(t *testing.T) {
	sender := user.New("Ada", "Byron", internet.MustParseEmail("admin@acme.org"), user.UILanguageEN)
	data := user.New("Grace", "Hopper", internet.MustParseEmail("analyst@acme.org"), user.UILanguageEN)

	created := user.NewCreatedEvent(sender, data)
	assert.Equal(t, sender, created.Sender)
	assert.Equal(t, data, created.Data)

	updated := user.NewUpdatedEvent(sender, data)
	assert.Equal(t, sender, updated.Sender)
	assert.Equal(t, data, updated.Data)

	deleted := user.NewDeletedEvent(sender)
	assert.Equal(t, sender, deleted.Sender)

	// A missing actor is represented by a nil sender, not a panic.
	anonymous := user.NewCreatedEvent(nil, data)
	assert.Nil(t, anonymous.Sender)
}
