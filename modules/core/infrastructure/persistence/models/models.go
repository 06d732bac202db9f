package models

import (
	"database/sql"
	"time"
)

type Tenant struct {
	ID           string
	Name         string
	Domain       sql.NullString
	ContactEmail sql.NullString
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type User struct {
	ID         string // UUID stored as string
	TenantID   string // UUID stored as string
	FirstName  string
	LastName   string
	Email      string
	UILanguage string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
