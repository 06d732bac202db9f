package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caseweave/caseweave/modules/intake/domain/events"
	"github.com/caseweave/caseweave/pkg/eventbus"
	"github.com/caseweave/caseweave/pkg/outbox"
)

type Dispatcher struct {
	bus eventbus.EventBusWithError
}

func NewDispatcher(bus eventbus.EventBusWithError) *Dispatcher {
	return &Dispatcher{bus: bus}
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg outbox.DispatchedMessage) error {
	_ = ctx
	if d == nil || d.bus == nil {
		return fmt.Errorf("intake outbox dispatcher: bus is nil")
	}

	if msg.Meta.Topic != events.TopicReportChangedV1 {
		return fmt.Errorf("intake outbox dispatcher: unsupported topic %q", msg.Meta.Topic)
	}

	var ev events.ReportChangedV1
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("intake outbox dispatcher: decode payload: %w", err)
	}
	return d.bus.PublishE(&msg.Meta, &ev)
}
