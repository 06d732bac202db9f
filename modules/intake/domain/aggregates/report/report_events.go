package report

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/pkg/composables"
)

// CreatedEvent also carries the reporter/subject person ids named at
// intake so the association layer can wire the initial graph edges.
type CreatedEvent struct {
	Sender           user.User
	Data             Report
	ReporterPersonID uuid.UUID
	SubjectPersonIDs []uuid.UUID
	Result           Report
}

type UpdatedEvent struct {
	Sender user.User
	Data   Report
	Result Report
}

type StatusChangedEvent struct {
	Sender user.User
	Data   Report
	From   Status
	To     Status
}

func NewCreatedEvent(ctx context.Context, data Report, reporterID uuid.UUID, subjectIDs []uuid.UUID) *CreatedEvent {
	sender, _ := composables.UseUser(ctx)
	return &CreatedEvent{
		Sender:           sender,
		Data:             data,
		ReporterPersonID: reporterID,
		SubjectPersonIDs: subjectIDs,
	}
}

func NewUpdatedEvent(ctx context.Context, data Report) *UpdatedEvent {
	sender, _ := composables.UseUser(ctx)
	return &UpdatedEvent{
		Sender: sender,
		Data:   data,
	}
}

func NewStatusChangedEvent(ctx context.Context, data Report, from, to Status) *StatusChangedEvent {
	sender, _ := composables.UseUser(ctx)
	return &StatusChangedEvent{
		Sender: sender,
		Data:   data,
		From:   from,
		To:     to,
	}
}
