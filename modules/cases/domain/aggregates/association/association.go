package association

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// PersonCase links a person to a case. Evidentiary labels (REPORTER,
// SUBJECT, WITNESS) carry a status and never end; role labels
// (INVESTIGATOR, LEGAL_COUNSEL) carry a validity window and never a status.
type PersonCase struct {
	id            uuid.UUID
	tenantID      uuid.UUID
	personID      uuid.UUID
	caseID        uuid.UUID
	label         Label
	status        EvidentiaryStatus
	startedAt     time.Time
	endedAt       time.Time
	endedReason   string
	removedAt     time.Time
	removedBy     uuid.UUID
	removedReason string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewPersonCase builds a fresh association for the given label. Evidentiary
// rows start ACTIVE; role rows start at startedAt (now if zero).
func NewPersonCase(tenantID, personID, caseID uuid.UUID, label Label, startedAt time.Time) (PersonCase, error) {
	if !ValidPersonCaseLabel(label) {
		return PersonCase{}, &LabelKindError{Kind: KindPersonCase, Label: label}
	}
	now := time.Now()
	a := PersonCase{
		id:        uuid.New(),
		tenantID:  tenantID,
		personID:  personID,
		caseID:    caseID,
		label:     label,
		createdAt: now,
		updatedAt: now,
	}
	if IsEvidentiary(label) {
		a.status = StatusActive
	} else {
		if startedAt.IsZero() {
			startedAt = now
		}
		a.startedAt = startedAt
	}
	return a, nil
}

func HydratePersonCase(
	id, tenantID, personID, caseID uuid.UUID,
	label Label,
	status EvidentiaryStatus,
	startedAt, endedAt time.Time,
	endedReason string,
	removedAt time.Time,
	removedBy uuid.UUID,
	removedReason string,
	createdAt, updatedAt time.Time,
) PersonCase {
	return PersonCase{
		id:            id,
		tenantID:      tenantID,
		personID:      personID,
		caseID:        caseID,
		label:         label,
		status:        status,
		startedAt:     startedAt,
		endedAt:       endedAt,
		endedReason:   endedReason,
		removedAt:     removedAt,
		removedBy:     removedBy,
		removedReason: removedReason,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (a PersonCase) ID() uuid.UUID               { return a.id }
func (a PersonCase) TenantID() uuid.UUID         { return a.tenantID }
func (a PersonCase) PersonID() uuid.UUID         { return a.personID }
func (a PersonCase) CaseID() uuid.UUID           { return a.caseID }
func (a PersonCase) Label() Label                { return a.label }
func (a PersonCase) Status() EvidentiaryStatus   { return a.status }
func (a PersonCase) StartedAt() time.Time        { return a.startedAt }
func (a PersonCase) EndedAt() time.Time          { return a.endedAt }
func (a PersonCase) EndedReason() string         { return a.endedReason }
func (a PersonCase) RemovedAt() time.Time        { return a.removedAt }
func (a PersonCase) RemovedBy() uuid.UUID        { return a.removedBy }
func (a PersonCase) RemovedReason() string       { return a.removedReason }
func (a PersonCase) CreatedAt() time.Time        { return a.createdAt }
func (a PersonCase) UpdatedAt() time.Time        { return a.updatedAt }
func (a PersonCase) IsZero() bool                { return a.id == uuid.Nil }
func (a PersonCase) IsRemoved() bool             { return !a.removedAt.IsZero() }
func (a PersonCase) IsEvidentiary() bool         { return IsEvidentiary(a.label) }
func (a PersonCase) IsRole() bool                { return IsRole(a.label) }

// UpdateStatus changes the standing of an evidentiary row. Role rows have
// no status to change.
func (a PersonCase) UpdateStatus(to EvidentiaryStatus) (PersonCase, error) {
	if !a.IsEvidentiary() {
		return a, &ClassificationError{Label: a.label, Op: "updateStatus"}
	}
	if a.IsRemoved() {
		return a, ErrRemoved
	}
	a.status = to
	a.updatedAt = time.Now()
	return a, nil
}

// EndRole closes a role row's validity window. An end always carries a
// reason; evidentiary rows are permanent and cannot be ended.
func (a PersonCase) EndRole(endedAt time.Time, reason string) (PersonCase, error) {
	if !a.IsRole() {
		return a, &ClassificationError{Label: a.label, Op: "endRole"}
	}
	if a.IsRemoved() {
		return a, ErrRemoved
	}
	if endedAt.IsZero() {
		endedAt = time.Now()
	}
	a.endedAt = endedAt
	a.endedReason = reason
	a.updatedAt = time.Now()
	return a, nil
}

func (a PersonCase) Remove(by uuid.UUID, reason string, at time.Time) PersonCase {
	a.removedAt = at
	a.removedBy = by
	a.removedReason = reason
	a.updatedAt = at
	return a
}

// Repoint moves the case side of the edge; used exclusively by merges.
func (a PersonCase) Repoint(toCaseID uuid.UUID, at time.Time) PersonCase {
	a.caseID = toCaseID
	a.updatedAt = at
	return a
}

// PersonReport links a person to an intake report. Evidentiary labels only.
type PersonReport struct {
	id            uuid.UUID
	tenantID      uuid.UUID
	personID      uuid.UUID
	reportID      uuid.UUID
	label         Label
	status        EvidentiaryStatus
	removedAt     time.Time
	removedBy     uuid.UUID
	removedReason string
	createdAt     time.Time
	updatedAt     time.Time
}

func NewPersonReport(tenantID, personID, reportID uuid.UUID, label Label) (PersonReport, error) {
	if !ValidPersonReportLabel(label) {
		return PersonReport{}, &LabelKindError{Kind: KindPersonReport, Label: label}
	}
	now := time.Now()
	return PersonReport{
		id:        uuid.New(),
		tenantID:  tenantID,
		personID:  personID,
		reportID:  reportID,
		label:     label,
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func HydratePersonReport(
	id, tenantID, personID, reportID uuid.UUID,
	label Label,
	status EvidentiaryStatus,
	removedAt time.Time,
	removedBy uuid.UUID,
	removedReason string,
	createdAt, updatedAt time.Time,
) PersonReport {
	return PersonReport{
		id:            id,
		tenantID:      tenantID,
		personID:      personID,
		reportID:      reportID,
		label:         label,
		status:        status,
		removedAt:     removedAt,
		removedBy:     removedBy,
		removedReason: removedReason,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (a PersonReport) ID() uuid.UUID             { return a.id }
func (a PersonReport) TenantID() uuid.UUID       { return a.tenantID }
func (a PersonReport) PersonID() uuid.UUID       { return a.personID }
func (a PersonReport) ReportID() uuid.UUID       { return a.reportID }
func (a PersonReport) Label() Label              { return a.label }
func (a PersonReport) Status() EvidentiaryStatus { return a.status }
func (a PersonReport) RemovedAt() time.Time      { return a.removedAt }
func (a PersonReport) RemovedBy() uuid.UUID      { return a.removedBy }
func (a PersonReport) RemovedReason() string     { return a.removedReason }
func (a PersonReport) CreatedAt() time.Time      { return a.createdAt }
func (a PersonReport) UpdatedAt() time.Time      { return a.updatedAt }
func (a PersonReport) IsZero() bool              { return a.id == uuid.Nil }
func (a PersonReport) IsRemoved() bool           { return !a.removedAt.IsZero() }

func (a PersonReport) UpdateStatus(to EvidentiaryStatus) (PersonReport, error) {
	if a.IsRemoved() {
		return a, ErrRemoved
	}
	a.status = to
	a.updatedAt = time.Now()
	return a, nil
}

func (a PersonReport) Remove(by uuid.UUID, reason string, at time.Time) PersonReport {
	a.removedAt = at
	a.removedBy = by
	a.removedReason = reason
	a.updatedAt = at
	return a
}

// CaseCase links two cases, directional from subject to object. A PARENT
// edge from A to B reads "A is parent of B".
type CaseCase struct {
	id            uuid.UUID
	tenantID      uuid.UUID
	subjectCaseID uuid.UUID
	objectCaseID  uuid.UUID
	label         Label
	removedAt     time.Time
	removedBy     uuid.UUID
	removedReason string
	createdAt     time.Time
	updatedAt     time.Time
}

func NewCaseCase(tenantID, subjectCaseID, objectCaseID uuid.UUID, label Label) (CaseCase, error) {
	if !ValidCaseCaseLabel(label) {
		return CaseCase{}, &LabelKindError{Kind: KindCaseCase, Label: label}
	}
	now := time.Now()
	return CaseCase{
		id:            uuid.New(),
		tenantID:      tenantID,
		subjectCaseID: subjectCaseID,
		objectCaseID:  objectCaseID,
		label:         label,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

func HydrateCaseCase(
	id, tenantID, subjectCaseID, objectCaseID uuid.UUID,
	label Label,
	removedAt time.Time,
	removedBy uuid.UUID,
	removedReason string,
	createdAt, updatedAt time.Time,
) CaseCase {
	return CaseCase{
		id:            id,
		tenantID:      tenantID,
		subjectCaseID: subjectCaseID,
		objectCaseID:  objectCaseID,
		label:         label,
		removedAt:     removedAt,
		removedBy:     removedBy,
		removedReason: removedReason,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (a CaseCase) ID() uuid.UUID            { return a.id }
func (a CaseCase) TenantID() uuid.UUID      { return a.tenantID }
func (a CaseCase) SubjectCaseID() uuid.UUID { return a.subjectCaseID }
func (a CaseCase) ObjectCaseID() uuid.UUID  { return a.objectCaseID }
func (a CaseCase) Label() Label             { return a.label }
func (a CaseCase) RemovedAt() time.Time     { return a.removedAt }
func (a CaseCase) RemovedBy() uuid.UUID     { return a.removedBy }
func (a CaseCase) RemovedReason() string    { return a.removedReason }
func (a CaseCase) CreatedAt() time.Time     { return a.createdAt }
func (a CaseCase) UpdatedAt() time.Time     { return a.updatedAt }
func (a CaseCase) IsZero() bool             { return a.id == uuid.Nil }
func (a CaseCase) IsRemoved() bool          { return !a.removedAt.IsZero() }

func (a CaseCase) Remove(by uuid.UUID, reason string, at time.Time) CaseCase {
	a.removedAt = at
	a.removedBy = by
	a.removedReason = reason
	a.updatedAt = at
	return a
}

// PersonPerson links two persons symmetrically. The pair is stored in
// canonical order so (A,B) and (B,A) are the same row.
type PersonPerson struct {
	id            uuid.UUID
	tenantID      uuid.UUID
	personAID     uuid.UUID
	personBID     uuid.UUID
	label         Label
	removedAt     time.Time
	removedBy     uuid.UUID
	removedReason string
	createdAt     time.Time
	updatedAt     time.Time
}

// CanonicalPair orders two person ids by their byte representation. Both
// the constructor and the uniqueness check go through this so opposite-order
// submissions collide.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) > 0 {
		return b, a
	}
	return a, b
}

func NewPersonPerson(tenantID, personA, personB uuid.UUID, label Label) (PersonPerson, error) {
	if !ValidPersonPersonLabel(label) {
		return PersonPerson{}, &LabelKindError{Kind: KindPersonPerson, Label: label}
	}
	first, second := CanonicalPair(personA, personB)
	now := time.Now()
	return PersonPerson{
		id:        uuid.New(),
		tenantID:  tenantID,
		personAID: first,
		personBID: second,
		label:     label,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func HydratePersonPerson(
	id, tenantID, personAID, personBID uuid.UUID,
	label Label,
	removedAt time.Time,
	removedBy uuid.UUID,
	removedReason string,
	createdAt, updatedAt time.Time,
) PersonPerson {
	return PersonPerson{
		id:            id,
		tenantID:      tenantID,
		personAID:     personAID,
		personBID:     personBID,
		label:         label,
		removedAt:     removedAt,
		removedBy:     removedBy,
		removedReason: removedReason,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (a PersonPerson) ID() uuid.UUID         { return a.id }
func (a PersonPerson) TenantID() uuid.UUID   { return a.tenantID }
func (a PersonPerson) PersonAID() uuid.UUID  { return a.personAID }
func (a PersonPerson) PersonBID() uuid.UUID  { return a.personBID }
func (a PersonPerson) Label() Label          { return a.label }
func (a PersonPerson) RemovedAt() time.Time  { return a.removedAt }
func (a PersonPerson) RemovedBy() uuid.UUID  { return a.removedBy }
func (a PersonPerson) RemovedReason() string { return a.removedReason }
func (a PersonPerson) CreatedAt() time.Time  { return a.createdAt }
func (a PersonPerson) UpdatedAt() time.Time  { return a.updatedAt }
func (a PersonPerson) IsZero() bool          { return a.id == uuid.Nil }
func (a PersonPerson) IsRemoved() bool       { return !a.removedAt.IsZero() }

func (a PersonPerson) Remove(by uuid.UUID, reason string, at time.Time) PersonPerson {
	a.removedAt = at
	a.removedBy = by
	a.removedReason = reason
	a.updatedAt = at
	return a
}
