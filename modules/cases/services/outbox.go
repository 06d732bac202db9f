package services

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/outbox"
)

// CasesOutboxTable is where every cases-module event is staged; the relay
// drains it after commit.
var CasesOutboxTable = pgx.Identifier{"public", "cases_outbox"}

// enqueueOutbox stages an event in the same transaction as the write that
// produced it. eventID doubles as the idempotency key.
func enqueueOutbox(ctx context.Context, publisher outbox.Publisher, topic string, eventID uuid.UUID, payload any) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get transaction")
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get tenant from context")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event payload")
	}

	if _, err := publisher.Enqueue(ctx, tx, CasesOutboxTable, outbox.Message{
		TenantID: tenantID,
		Topic:    topic,
		EventID:  eventID,
		Payload:  raw,
	}); err != nil {
		return errors.Wrap(err, "failed to enqueue outbox event")
	}
	return nil
}

// actorID resolves the acting user, uuid.Nil for system-initiated work.
func actorID(ctx context.Context) uuid.UUID {
	if actor, err := composables.UseUser(ctx); err == nil && actor != nil {
		return actor.ID()
	}
	return uuid.Nil
}

// Auditor records domain mutations without ever failing the caller. The
// logging module provides the production implementation.
type Auditor interface {
	Record(ctx context.Context, action, entityType string, entityID uuid.UUID, before, after any)
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, string, string, uuid.UUID, any, any) {}

// NopAuditor is used when the logging module is disabled.
func NopAuditor() Auditor { return nopAuditor{} }
