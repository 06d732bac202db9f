package person

import (
	"context"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/pkg/composables"
)

func NewCreatedEvent(ctx context.Context, data Person) *CreatedEvent {
	sender, _ := composables.UseUser(ctx)
	return &CreatedEvent{
		Sender: sender,
		Data:   data,
	}
}

func NewUpdatedEvent(ctx context.Context, data Person) *UpdatedEvent {
	sender, _ := composables.UseUser(ctx)
	return &UpdatedEvent{
		Sender: sender,
		Data:   data,
	}
}

func NewMergedEvent(ctx context.Context, data Person) *MergedEvent {
	sender, _ := composables.UseUser(ctx)
	return &MergedEvent{
		Sender: sender,
		Data:   data,
	}
}

type CreatedEvent struct {
	Sender user.User
	Data   Person
	Result Person
}

type UpdatedEvent struct {
	Sender user.User
	Data   Person
	Result Person
}

type MergedEvent struct {
	Sender user.User
	Data   Person
	Result Person
}
