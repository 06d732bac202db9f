package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/services"
	intakeevents "github.com/caseweave/caseweave/modules/intake/domain/events"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/outbox"
)

// IntakeEventsHandler attaches the people named at intake to the new report
// as associations, so the relationship graph picks them up without intake
// knowing anything about it.
type IntakeEventsHandler struct {
	app    application.Application
	assocs *services.AssociationService
}

func RegisterIntakeEventHandlers(app application.Application) {
	handler := &IntakeEventsHandler{
		app:    app,
		assocs: app.Service(services.AssociationService{}).(*services.AssociationService),
	}
	app.EventPublisher().Subscribe(handler.onReportChangedV1)
}

func (h *IntakeEventsHandler) onReportChangedV1(meta *outbox.Meta, ev *intakeevents.ReportChangedV1) error {
	if h == nil || h.assocs == nil || meta == nil || ev == nil {
		return nil
	}
	if ev.ChangeType != intakeevents.ChangeCreated {
		return nil
	}

	ctx := composables.WithTenantID(composables.WithPool(context.Background(), h.app.DB()), meta.TenantID)

	if ev.ReporterPersonID != uuid.Nil {
		if err := h.attach(ctx, ev.ReportID, ev.ReporterPersonID, association.LabelReporter); err != nil {
			return err
		}
	}
	for _, subjectID := range ev.SubjectPersonIDs {
		if err := h.attach(ctx, ev.ReportID, subjectID, association.LabelSubject); err != nil {
			return err
		}
	}
	return nil
}

// attach tolerates duplicates so a redelivered event converges instead of
// failing the relay.
func (h *IntakeEventsHandler) attach(ctx context.Context, reportID, personID uuid.UUID, label association.Label) error {
	_, err := h.assocs.CreatePersonReport(ctx, reportID, &association.CreatePersonReportDTO{
		PersonID: personID.String(),
		Label:    string(label),
	})
	if err != nil && !errors.Is(err, association.ErrDuplicate) {
		return err
	}
	return nil
}
