package models

import (
	"database/sql"
	"time"
)

type Person struct {
	ID           string
	TenantID     string
	Type         string
	Source       string
	Status       string
	FirstName    string
	LastName     string
	DisplayName  string
	Email        sql.NullString
	ExternalRef  sql.NullString
	MergedIntoID sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
