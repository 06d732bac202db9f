package casefile

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type ReportLinkLabel string

const (
	ReportLinkLinked     ReportLinkLabel = "LINKED"
	ReportLinkMergedFrom ReportLinkLabel = "MERGED_FROM"
)

var ErrReportAlreadyLinked = errors.New("report already linked to case")

// ReportLink ties an intake report to a case. The label degrades from
// LINKED to MERGED_FROM when the case absorbs another case's reports.
type ReportLink struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	caseID    uuid.UUID
	reportID  uuid.UUID
	label     ReportLinkLabel
	createdAt time.Time
	updatedAt time.Time
}

func NewReportLink(tenantID, caseID, reportID uuid.UUID) ReportLink {
	now := time.Now()
	return ReportLink{
		id:        uuid.New(),
		tenantID:  tenantID,
		caseID:    caseID,
		reportID:  reportID,
		label:     ReportLinkLinked,
		createdAt: now,
		updatedAt: now,
	}
}

func HydrateReportLink(
	id, tenantID, caseID, reportID uuid.UUID,
	label ReportLinkLabel,
	createdAt, updatedAt time.Time,
) ReportLink {
	return ReportLink{
		id:        id,
		tenantID:  tenantID,
		caseID:    caseID,
		reportID:  reportID,
		label:     label,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (l ReportLink) ID() uuid.UUID          { return l.id }
func (l ReportLink) TenantID() uuid.UUID    { return l.tenantID }
func (l ReportLink) CaseID() uuid.UUID      { return l.caseID }
func (l ReportLink) ReportID() uuid.UUID    { return l.reportID }
func (l ReportLink) Label() ReportLinkLabel { return l.label }
func (l ReportLink) CreatedAt() time.Time   { return l.createdAt }
func (l ReportLink) UpdatedAt() time.Time   { return l.updatedAt }
