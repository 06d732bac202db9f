package projection

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("search document not found")

// Document is the denormalized per-case search record. It is rebuilt whole
// from the relational store on every reindex; nothing patches it in place.
type Document struct {
	CaseID       uuid.UUID    `json:"caseId"`
	CaseNumber   string       `json:"caseNumber"`
	Title        string       `json:"title"`
	Status       string       `json:"status"`
	Stage        string       `json:"stage"`
	IsMerged     bool         `json:"isMerged"`
	Associations Associations `json:"associations"`

	// Flattened id arrays mirrored into uuid[] columns so term filters
	// stay cheap. Derived from Associations, never set independently.
	PersonIDs         []uuid.UUID `json:"personIds"`
	SubjectPersonIDs  []uuid.UUID `json:"subjectPersonIds"`
	WitnessPersonIDs  []uuid.UUID `json:"witnessPersonIds"`
	ReporterPersonIDs []uuid.UUID `json:"reporterPersonIds"`
}

type Associations struct {
	Persons       []PersonEntry `json:"persons"`
	LinkedReports []ReportEntry `json:"linkedReports"`
	LinkedCases   []CaseEntry   `json:"linkedCases"`
}

type PersonEntry struct {
	PersonID          uuid.UUID `json:"personId"`
	PersonName        string    `json:"personName"`
	Label             string    `json:"label"`
	EvidentiaryStatus string    `json:"evidentiaryStatus,omitempty"`
}

type ReportEntry struct {
	ReportID         uuid.UUID `json:"reportId"`
	Label            string    `json:"label"`
	ReporterPersonID uuid.UUID `json:"reporterPersonId,omitempty"`
}

type CaseEntry struct {
	CaseID    uuid.UUID `json:"caseId"`
	Label     string    `json:"label"`
	Direction string    `json:"direction"`
}

const (
	DirectionOutbound = "OUTBOUND"
	DirectionInbound  = "INBOUND"
)

// Flatten recomputes the id arrays from the nested entries. Reporter ids
// come from both person-case REPORTER rows and linked-report reporters, so
// the reporter array filter sees every case a person has reported into.
func (d *Document) Flatten() {
	seen := make(map[uuid.UUID]struct{}, len(d.Associations.Persons))
	d.PersonIDs = d.PersonIDs[:0]
	d.SubjectPersonIDs = d.SubjectPersonIDs[:0]
	d.WitnessPersonIDs = d.WitnessPersonIDs[:0]
	d.ReporterPersonIDs = d.ReporterPersonIDs[:0]
	for _, p := range d.Associations.Persons {
		if _, ok := seen[p.PersonID]; !ok {
			seen[p.PersonID] = struct{}{}
			d.PersonIDs = append(d.PersonIDs, p.PersonID)
		}
		switch p.Label {
		case "SUBJECT":
			d.SubjectPersonIDs = appendUnique(d.SubjectPersonIDs, p.PersonID)
		case "WITNESS":
			d.WitnessPersonIDs = appendUnique(d.WitnessPersonIDs, p.PersonID)
		case "REPORTER":
			d.ReporterPersonIDs = appendUnique(d.ReporterPersonIDs, p.PersonID)
		}
	}
	for _, link := range d.Associations.LinkedReports {
		if link.ReporterPersonID == uuid.Nil {
			continue
		}
		d.ReporterPersonIDs = appendUnique(d.ReporterPersonIDs, link.ReporterPersonID)
	}
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// CaseMatch is a ranked search hit from the projection.
type CaseMatch struct {
	CaseID     uuid.UUID
	CaseNumber string
	Title      string
	Status     string
	Stage      string
	IsMerged   bool
	MatchCount int
	Roles      []string
	IndexedAt  time.Time
}

// CombinationCriterion names one person the combination query must find,
// optionally restricted to roles. All criteria must match within the same
// case document, each within a single nested person entry.
type CombinationCriterion struct {
	PersonID uuid.UUID
	Roles    []string
}

// ReporterHistory summarizes prior reporting by a person.
type ReporterHistory struct {
	PersonID      uuid.UUID
	PreviousCount int
	Summary       string
}

type Repository interface {
	Upsert(ctx context.Context, doc Document) error
	GetByCaseID(ctx context.Context, caseID uuid.UUID) (Document, error)
	Delete(ctx context.Context, caseID uuid.UUID) error
	ListCaseIDs(ctx context.Context) ([]uuid.UUID, error)

	FindByPersonID(ctx context.Context, personID uuid.UUID, roleFilter []string) ([]CaseMatch, error)
	FindByCombination(ctx context.Context, criteria []CombinationCriterion) ([]CaseMatch, error)
	CountReporterEntries(ctx context.Context, personID, excludingReportID uuid.UUID) (int, error)
}
