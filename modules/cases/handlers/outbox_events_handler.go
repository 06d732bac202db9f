package handlers

import (
	"context"

	"github.com/caseweave/caseweave/modules/cases/domain/events"
	"github.com/caseweave/caseweave/modules/cases/services"
	"github.com/caseweave/caseweave/pkg/application"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/outbox"
)

// OutboxEventsHandler drives the pattern index from relayed cases events.
// Reindex failures propagate back to the relay, which retries with backoff.
type OutboxEventsHandler struct {
	app   application.Application
	index *services.PatternIndexService
}

func RegisterOutboxEventHandlers(app application.Application) {
	handler := &OutboxEventsHandler{
		app:   app,
		index: app.Service(services.PatternIndexService{}).(*services.PatternIndexService),
	}
	app.EventPublisher().Subscribe(handler.onAssociationChangedV1)
	app.EventPublisher().Subscribe(handler.onCaseChangedV1)
	app.EventPublisher().Subscribe(handler.onCaseMergedV1)
}

func (h *OutboxEventsHandler) ctx() context.Context {
	return composables.WithPool(context.Background(), h.app.DB())
}

func (h *OutboxEventsHandler) onAssociationChangedV1(meta *outbox.Meta, ev *events.AssociationChangedV1) error {
	if h == nil || h.index == nil || meta == nil || ev == nil {
		return nil
	}

	ctx := h.ctx()
	switch ev.AssociationType {
	case "PERSON_CASE":
		return h.index.Reindex(ctx, meta.TenantID, ev.ObjectID)
	case "CASE_CASE":
		if err := h.index.Reindex(ctx, meta.TenantID, ev.SubjectID); err != nil {
			return err
		}
		return h.index.Reindex(ctx, meta.TenantID, ev.ObjectID)
	default:
		// Person-report and person-person rows surface on case documents
		// only through linked reports, which arrive as case changes.
		return nil
	}
}

func (h *OutboxEventsHandler) onCaseChangedV1(meta *outbox.Meta, ev *events.CaseChangedV1) error {
	if h == nil || h.index == nil || meta == nil || ev == nil {
		return nil
	}
	return h.index.Reindex(h.ctx(), meta.TenantID, ev.CaseID)
}

func (h *OutboxEventsHandler) onCaseMergedV1(meta *outbox.Meta, ev *events.CaseMergedV1) error {
	if h == nil || h.index == nil || meta == nil || ev == nil {
		return nil
	}

	// Both sides change: the tombstone keeps a document flagged isMerged,
	// the survivor absorbs the moved associations.
	ctx := h.ctx()
	if err := h.index.Reindex(ctx, meta.TenantID, ev.SourceCaseID); err != nil {
		return err
	}
	return h.index.Reindex(ctx, meta.TenantID, ev.TargetCaseID)
}
