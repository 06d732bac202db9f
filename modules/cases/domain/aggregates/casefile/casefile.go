package casefile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Stage is the investigation pipeline position. Like report statuses, the
// pipeline is monotonic: a case moves forward, never back.
type Stage string

const (
	StageIntake        Stage = "INTAKE"
	StageTriage        Stage = "TRIAGE"
	StageInvestigation Stage = "INVESTIGATION"
	StageReview        Stage = "REVIEW"
	StageClosure       Stage = "CLOSURE"
)

var stageOrder = []Stage{StageIntake, StageTriage, StageInvestigation, StageReview, StageClosure}

func stageIndex(s Stage) int {
	for i, candidate := range stageOrder {
		if candidate == s {
			return i
		}
	}
	return -1
}

// CanAdvance reports whether the pipeline permits moving from one stage to
// another. Forward moves only, skipping stages allowed.
func CanAdvance(from, to Stage) bool {
	fromIdx := stageIndex(from)
	toIdx := stageIndex(to)
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx > fromIdx
}

type Outcome string

const (
	OutcomeNone            Outcome = ""
	OutcomeSubstantiated   Outcome = "SUBSTANTIATED"
	OutcomeUnsubstantiated Outcome = "UNSUBSTANTIATED"
	OutcomeInconclusive    Outcome = "INCONCLUSIVE"
	OutcomeMerged          Outcome = "MERGED"
)

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeNone, OutcomeSubstantiated, OutcomeUnsubstantiated, OutcomeInconclusive, OutcomeMerged:
		return true
	}
	return false
}

// Case is an investigation unit. A merged case becomes a tombstone: closed,
// read-only for merge purposes, pointing at the case it was folded into,
// and retained forever for audit.
type Case struct {
	id               uuid.UUID
	tenantID         uuid.UUID
	caseNumber       string
	title            string
	status           Status
	stage            Stage
	outcome          Outcome
	isMerged         bool
	mergedIntoCaseID uuid.UUID
	mergedAt         time.Time
	mergedBy         uuid.UUID
	mergedReason     string
	createdAt        time.Time
	updatedAt        time.Time
}

func New(tenantID uuid.UUID, caseNumber, title string) Case {
	now := time.Now()
	return Case{
		id:         uuid.New(),
		tenantID:   tenantID,
		caseNumber: strings.TrimSpace(caseNumber),
		title:      strings.TrimSpace(title),
		status:     StatusOpen,
		stage:      StageIntake,
		createdAt:  now,
		updatedAt:  now,
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	caseNumber string,
	title string,
	status Status,
	stage Stage,
	outcome Outcome,
	isMerged bool,
	mergedIntoCaseID uuid.UUID,
	mergedAt time.Time,
	mergedBy uuid.UUID,
	mergedReason string,
	createdAt time.Time,
	updatedAt time.Time,
) Case {
	return Case{
		id:               id,
		tenantID:         tenantID,
		caseNumber:       caseNumber,
		title:            title,
		status:           status,
		stage:            stage,
		outcome:          outcome,
		isMerged:         isMerged,
		mergedIntoCaseID: mergedIntoCaseID,
		mergedAt:         mergedAt,
		mergedBy:         mergedBy,
		mergedReason:     mergedReason,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

func (c Case) ID() uuid.UUID               { return c.id }
func (c Case) TenantID() uuid.UUID         { return c.tenantID }
func (c Case) CaseNumber() string          { return c.caseNumber }
func (c Case) Title() string               { return c.title }
func (c Case) Status() Status              { return c.status }
func (c Case) Stage() Stage                { return c.stage }
func (c Case) Outcome() Outcome            { return c.outcome }
func (c Case) IsMerged() bool              { return c.isMerged }
func (c Case) MergedIntoCaseID() uuid.UUID { return c.mergedIntoCaseID }
func (c Case) MergedAt() time.Time         { return c.mergedAt }
func (c Case) MergedBy() uuid.UUID         { return c.mergedBy }
func (c Case) MergedReason() string        { return c.mergedReason }
func (c Case) CreatedAt() time.Time        { return c.createdAt }
func (c Case) UpdatedAt() time.Time        { return c.updatedAt }

func (c Case) IsZero() bool   { return c.id == uuid.Nil }
func (c Case) IsClosed() bool { return c.status == StatusClosed }

func (c Case) SetTitle(title string) Case {
	c.title = strings.TrimSpace(title)
	c.updatedAt = time.Now()
	return c
}

// Advance moves the case forward in the pipeline. A tombstone never moves.
func (c Case) Advance(to Stage) (Case, error) {
	if c.isMerged {
		return c, ErrCaseMerged
	}
	if !CanAdvance(c.stage, to) {
		return c, &StageTransitionError{From: c.stage, To: to}
	}
	c.stage = to
	c.updatedAt = time.Now()
	return c, nil
}

// Close ends the investigation with an outcome.
func (c Case) Close(outcome Outcome) (Case, error) {
	if c.isMerged {
		return c, ErrCaseMerged
	}
	if outcome == OutcomeNone || outcome == OutcomeMerged {
		return c, ErrInvalidOutcome
	}
	c.status = StatusClosed
	c.stage = StageClosure
	c.outcome = outcome
	c.updatedAt = time.Now()
	return c, nil
}

// MarkMerged turns the case into a tombstone. The invariant set here is
// the one the schema CHECK enforces: a merged case is CLOSED and carries
// all four merge fields.
func (c Case) MarkMerged(into uuid.UUID, by uuid.UUID, reason string, at time.Time) Case {
	c.status = StatusClosed
	c.stage = StageClosure
	c.outcome = OutcomeMerged
	c.isMerged = true
	c.mergedIntoCaseID = into
	c.mergedAt = at
	c.mergedBy = by
	c.mergedReason = reason
	c.updatedAt = at
	return c
}

// Touch bumps the audit timestamp; used on the surviving case of a merge.
func (c Case) Touch(at time.Time) Case {
	c.updatedAt = at
	return c
}
