package models

import (
	"database/sql"
	"time"
)

type Case struct {
	ID               string
	TenantID         string
	CaseNumber       string
	Title            string
	Status           string
	Stage            string
	Outcome          sql.NullString
	IsMerged         bool
	MergedIntoCaseID sql.NullString
	MergedAt         sql.NullTime
	MergedBy         sql.NullString
	MergedReason     sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type PersonCaseAssociation struct {
	ID            string
	TenantID      string
	PersonID      string
	CaseID        string
	Label         string
	Status        sql.NullString
	StartedAt     sql.NullTime
	EndedAt       sql.NullTime
	EndedReason   sql.NullString
	RemovedAt     sql.NullTime
	RemovedBy     sql.NullString
	RemovedReason sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PersonReportAssociation struct {
	ID            string
	TenantID      string
	PersonID      string
	ReportID      string
	Label         string
	Status        string
	RemovedAt     sql.NullTime
	RemovedBy     sql.NullString
	RemovedReason sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CaseCaseAssociation struct {
	ID            string
	TenantID      string
	SubjectCaseID string
	ObjectCaseID  string
	Label         string
	RemovedAt     sql.NullTime
	RemovedBy     sql.NullString
	RemovedReason sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PersonPersonAssociation struct {
	ID            string
	TenantID      string
	PersonAID     string
	PersonBID     string
	Label         string
	RemovedAt     sql.NullTime
	RemovedBy     sql.NullString
	RemovedReason sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CaseReport links an intake report into a case. LINKED while direct,
// MERGED_FROM once the owning case has been folded into another.
type CaseReport struct {
	ID        string
	TenantID  string
	CaseID    string
	ReportID  string
	Label     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SearchIndexRow struct {
	CaseID    string
	TenantID  string
	Document  []byte
	Version   int64
	IndexedAt time.Time
}
