package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicReportChangedV1 = "intake.report.changed.v1"
	EventVersionV1       = 1
)

const (
	ChangeCreated       = "created"
	ChangeStatusChanged = "status_changed"
	ChangeUpdated       = "updated"
)

// ReportChangedV1 is the durable intake event. On creation it carries the
// people named at intake so downstream consumers can attach them to the
// report without re-reading intake tables.
type ReportChangedV1 struct {
	EventID          uuid.UUID   `json:"event_id"`
	EventVersion     int         `json:"event_version"`
	TenantID         uuid.UUID   `json:"tenant_id"`
	TransactionTime  time.Time   `json:"transaction_time"`
	InitiatorID      uuid.UUID   `json:"initiator_id"`
	ReportID         uuid.UUID   `json:"report_id"`
	ChangeType       string      `json:"change_type"`
	Status           string      `json:"status"`
	ReporterPersonID uuid.UUID   `json:"reporter_person_id"`
	SubjectPersonIDs []uuid.UUID `json:"subject_person_ids"`
}
