package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Channel identifies how the report entered the system. Set once at
// creation; it also selects which extension record and which status
// lifecycle apply.
type Channel string

const (
	ChannelHotline    Channel = "HOTLINE"
	ChannelWebForm    Channel = "WEB_FORM"
	ChannelDisclosure Channel = "DISCLOSURE"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelHotline, ChannelWebForm, ChannelDisclosure:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type Status string

const (
	StatusNew             Status = "NEW"
	StatusInReview        Status = "IN_REVIEW"
	StatusQAPending       Status = "QA_PENDING"
	StatusAcknowledged    Status = "ACKNOWLEDGED"
	StatusUnderAssessment Status = "UNDER_ASSESSMENT"
	StatusTriaged         Status = "TRIAGED"
	StatusClosed          Status = "CLOSED"
)

type QAOutcome string

const (
	QAOutcomeNone     QAOutcome = ""
	QAOutcomePassed   QAOutcome = "PASSED"
	QAOutcomeFailed   QAOutcome = "FAILED"
	QAOutcomeWaived   QAOutcome = "WAIVED"
)

func (q QAOutcome) IsValid() bool {
	switch q {
	case QAOutcomeNone, QAOutcomePassed, QAOutcomeFailed, QAOutcomeWaived:
		return true
	}
	return false
}

// lifecycles orders the statuses each channel walks through. A transition
// is legal only when it moves strictly forward within the channel's own
// sequence; anything else is out of order.
var lifecycles = map[Channel][]Status{
	ChannelHotline:    {StatusNew, StatusInReview, StatusQAPending, StatusTriaged, StatusClosed},
	ChannelWebForm:    {StatusNew, StatusTriaged, StatusClosed},
	ChannelDisclosure: {StatusNew, StatusAcknowledged, StatusUnderAssessment, StatusTriaged, StatusClosed},
}

// Lifecycle returns the ordered statuses for the channel.
func Lifecycle(c Channel) []Status {
	seq := lifecycles[c]
	out := make([]Status, len(seq))
	copy(out, seq)
	return out
}

func statusIndex(c Channel, s Status) int {
	for i, candidate := range lifecycles[c] {
		if candidate == s {
			return i
		}
	}
	return -1
}

// CanTransition reports whether the channel's lifecycle permits moving
// from one status to another. The lifecycle is monotonic: only forward
// moves are allowed, skipping intermediate stages is fine, going back or
// jumping to a status the channel never uses is not.
func CanTransition(c Channel, from, to Status) bool {
	fromIdx := statusIndex(c, from)
	toIdx := statusIndex(c, to)
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx > fromIdx
}

// Report is an intake record (RIU). The content captured at intake
// (narrative, category, severity, channel and the channel extension) is
// frozen the moment the row is written; only the status, QA and
// assignment tracking fields ever change afterwards.
type Report struct {
	id                uuid.UUID
	tenantID          uuid.UUID
	reportNumber      string
	channel           Channel
	narrative         string
	category          string
	severity          Severity
	status            Status
	qaOutcome         QAOutcome
	assignedToID      uuid.UUID
	detectedLanguage  string
	confirmedLanguage string
	statusChangedAt   time.Time
	statusChangedBy   uuid.UUID
	extension         Extension
	createdAt         time.Time
	updatedAt         time.Time
}

func New(
	tenantID uuid.UUID,
	reportNumber string,
	channel Channel,
	narrative string,
	category string,
	severity Severity,
	ext Extension,
) Report {
	now := time.Now()
	return Report{
		id:           uuid.New(),
		tenantID:     tenantID,
		reportNumber: strings.TrimSpace(reportNumber),
		channel:      channel,
		narrative:    narrative,
		category:     strings.TrimSpace(category),
		severity:     severity,
		status:       StatusNew,
		extension:    ext,
		createdAt:    now,
		updatedAt:    now,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	reportNumber string,
	channel Channel,
	narrative string,
	category string,
	severity Severity,
	status Status,
	qaOutcome QAOutcome,
	assignedToID uuid.UUID,
	detectedLanguage string,
	confirmedLanguage string,
	statusChangedAt time.Time,
	statusChangedBy uuid.UUID,
	ext Extension,
	createdAt time.Time,
	updatedAt time.Time,
) Report {
	return Report{
		id:                id,
		tenantID:          tenantID,
		reportNumber:      reportNumber,
		channel:           channel,
		narrative:         narrative,
		category:          category,
		severity:          severity,
		status:            status,
		qaOutcome:         qaOutcome,
		assignedToID:      assignedToID,
		detectedLanguage:  detectedLanguage,
		confirmedLanguage: confirmedLanguage,
		statusChangedAt:   statusChangedAt,
		statusChangedBy:   statusChangedBy,
		extension:         ext,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

func (r Report) ID() uuid.UUID              { return r.id }
func (r Report) TenantID() uuid.UUID        { return r.tenantID }
func (r Report) ReportNumber() string       { return r.reportNumber }
func (r Report) Channel() Channel           { return r.channel }
func (r Report) Narrative() string          { return r.narrative }
func (r Report) Category() string           { return r.category }
func (r Report) Severity() Severity         { return r.severity }
func (r Report) Status() Status             { return r.status }
func (r Report) QAOutcome() QAOutcome       { return r.qaOutcome }
func (r Report) AssignedToID() uuid.UUID    { return r.assignedToID }
func (r Report) DetectedLanguage() string   { return r.detectedLanguage }
func (r Report) ConfirmedLanguage() string  { return r.confirmedLanguage }
func (r Report) StatusChangedAt() time.Time { return r.statusChangedAt }
func (r Report) StatusChangedBy() uuid.UUID { return r.statusChangedBy }
func (r Report) Extension() Extension       { return r.extension }
func (r Report) CreatedAt() time.Time       { return r.createdAt }
func (r Report) UpdatedAt() time.Time       { return r.updatedAt }

func (r Report) IsZero() bool   { return r.id == uuid.Nil }
func (r Report) IsClosed() bool { return r.status == StatusClosed }

// LanguageEffective resolves the working language of the report:
// confirmed wins over detected, detected over the tenant default.
func (r Report) LanguageEffective(tenantDefault string) string {
	if r.confirmedLanguage != "" {
		return r.confirmedLanguage
	}
	if r.detectedLanguage != "" {
		return r.detectedLanguage
	}
	return tenantDefault
}

func (r Report) SetDetectedLanguage(lang string) Report {
	r.detectedLanguage = strings.ToLower(strings.TrimSpace(lang))
	r.updatedAt = time.Now()
	return r
}

func (r Report) SetConfirmedLanguage(lang string) Report {
	r.confirmedLanguage = strings.ToLower(strings.TrimSpace(lang))
	r.updatedAt = time.Now()
	return r
}

func (r Report) SetQAOutcome(outcome QAOutcome) Report {
	r.qaOutcome = outcome
	r.updatedAt = time.Now()
	return r
}

func (r Report) AssignTo(userID uuid.UUID) Report {
	r.assignedToID = userID
	r.updatedAt = time.Now()
	return r
}

// TransitionStatus moves the report forward in its channel lifecycle,
// stamping who changed it and when. ErrStatusTransition carries the
// rejected pair when the move is out of order.
func (r Report) TransitionStatus(to Status, by uuid.UUID) (Report, error) {
	if !CanTransition(r.channel, r.status, to) {
		return r, &StatusTransitionError{Channel: r.channel, From: r.status, To: to}
	}
	now := time.Now()
	r.status = to
	r.statusChangedAt = now
	r.statusChangedBy = by
	r.updatedAt = now
	return r, nil
}
