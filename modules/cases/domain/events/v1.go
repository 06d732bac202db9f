package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicAssociationChangedV1 = "cases.association.changed.v1"
	TopicCaseChangedV1        = "cases.case.changed.v1"
	TopicCaseMergedV1         = "cases.case.merged.v1"
	EventVersionV1            = 1
)

// AssociationChangedV1 announces a graph mutation. SubjectID/ObjectID carry
// the two endpoints in the order the kind defines (person first for the
// person-* kinds, subject case first for case-case).
type AssociationChangedV1 struct {
	EventID         uuid.UUID `json:"event_id"`
	EventVersion    int       `json:"event_version"`
	TenantID        uuid.UUID `json:"tenant_id"`
	TransactionTime time.Time `json:"transaction_time"`
	InitiatorID     uuid.UUID `json:"initiator_id"`
	AssociationType string    `json:"association_type"`
	AssociationID   uuid.UUID `json:"association_id"`
	Action          string    `json:"action"`
	Label           string    `json:"label"`
	SubjectID       uuid.UUID `json:"subject_id"`
	ObjectID        uuid.UUID `json:"object_id"`
}

const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
	ActionRoleEnded     = "role_ended"
	ActionRemoved       = "removed"
	ActionRepointed     = "repointed"
)

// CaseChangedV1 announces a case record mutation that the projection cares
// about (create, title change, stage advance, close, report link).
type CaseChangedV1 struct {
	EventID         uuid.UUID `json:"event_id"`
	EventVersion    int       `json:"event_version"`
	TenantID        uuid.UUID `json:"tenant_id"`
	TransactionTime time.Time `json:"transaction_time"`
	InitiatorID     uuid.UUID `json:"initiator_id"`
	CaseID          uuid.UUID `json:"case_id"`
	ChangeType      string    `json:"change_type"`
}

// CaseMergedV1 is emitted once per merge, carrying both sides so the
// projector can reindex the tombstone and the survivor.
type CaseMergedV1 struct {
	EventID         uuid.UUID `json:"event_id"`
	EventVersion    int       `json:"event_version"`
	TenantID        uuid.UUID `json:"tenant_id"`
	TransactionTime time.Time `json:"transaction_time"`
	InitiatorID     uuid.UUID `json:"initiator_id"`
	SourceCaseID    uuid.UUID `json:"source_case_id"`
	TargetCaseID    uuid.UUID `json:"target_case_id"`
	Reason          string    `json:"reason"`
}
