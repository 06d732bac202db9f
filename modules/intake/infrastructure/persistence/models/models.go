package models

import (
	"database/sql"
	"time"
)

type Report struct {
	ID                string
	TenantID          string
	ReportNumber      string
	Channel           string
	Narrative         string
	Category          string
	Severity          string
	Status            string
	QAOutcome         sql.NullString
	AssignedToID      sql.NullString
	DetectedLanguage  sql.NullString
	ConfirmedLanguage sql.NullString
	StatusChangedAt   sql.NullTime
	StatusChangedBy   sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type ReportHotlineDetails struct {
	ReportID       string
	OperatorName   string
	CallReference  sql.NullString
	CallbackNumber sql.NullString
	ReceivedCallAt sql.NullTime
}

type ReportWebFormDetails struct {
	ReportID    string
	FormVersion string
	SubmitterIP sql.NullString
	UserAgent   sql.NullString
	SubmittedAt sql.NullTime
}

type ReportDisclosureDetails struct {
	ReportID      string
	DiscloserRole string
	Relationship  sql.NullString
	LocationName  sql.NullString
	DisclosedAt   sql.NullTime
}
