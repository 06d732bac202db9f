package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caseweave/caseweave/modules/cases/domain/events"
	"github.com/caseweave/caseweave/pkg/eventbus"
	"github.com/caseweave/caseweave/pkg/outbox"
)

// Dispatcher decodes cases outbox payloads into their typed events before
// publishing, so handlers subscribe to concrete structs instead of raw JSON.
type Dispatcher struct {
	bus eventbus.EventBusWithError
}

func NewDispatcher(bus eventbus.EventBusWithError) *Dispatcher {
	return &Dispatcher{bus: bus}
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg outbox.DispatchedMessage) error {
	_ = ctx
	if d == nil || d.bus == nil {
		return fmt.Errorf("cases outbox dispatcher: bus is nil")
	}

	switch msg.Meta.Topic {
	case events.TopicAssociationChangedV1:
		var ev events.AssociationChangedV1
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("cases outbox dispatcher: decode payload: %w", err)
		}
		return d.bus.PublishE(&msg.Meta, &ev)
	case events.TopicCaseChangedV1:
		var ev events.CaseChangedV1
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("cases outbox dispatcher: decode payload: %w", err)
		}
		return d.bus.PublishE(&msg.Meta, &ev)
	case events.TopicCaseMergedV1:
		var ev events.CaseMergedV1
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("cases outbox dispatcher: decode payload: %w", err)
		}
		return d.bus.PublishE(&msg.Meta, &ev)
	default:
		return fmt.Errorf("cases outbox dispatcher: unsupported topic %q", msg.Meta.Topic)
	}
}
