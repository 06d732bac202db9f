package models

import "time"

type ActionLog struct {
	ID        int64
	TenantID  string
	UserID    *string
	Method    string
	Path      string
	Before    []byte
	After     []byte
	UserAgent string
	IP        string
	CreatedAt time.Time
}

type AuditEntry struct {
	ID         string
	TenantID   string
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Before     []byte
	After      []byte
	Patch      []byte
	CreatedAt  time.Time
}
