package persistence

import (
	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/logging/domain/entities/actionlog"
	"github.com/caseweave/caseweave/modules/logging/domain/entities/audittrail"
	"github.com/caseweave/caseweave/modules/logging/infrastructure/persistence/models"
)

func parseUUIDOrNil(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func toDBActionLog(log *actionlog.ActionLog) *models.ActionLog {
	row := &models.ActionLog{
		ID:        log.ID,
		TenantID:  log.TenantID.String(),
		Method:    log.Method,
		Path:      log.Path,
		Before:    log.Before,
		After:     log.After,
		UserAgent: log.UserAgent,
		IP:        log.IP,
		CreatedAt: log.CreatedAt,
	}
	if log.UserID != nil {
		v := log.UserID.String()
		row.UserID = &v
	}
	return row
}

func toDomainActionLog(row *models.ActionLog) *actionlog.ActionLog {
	log := &actionlog.ActionLog{
		ID:        row.ID,
		TenantID:  parseUUIDOrNil(row.TenantID),
		Method:    row.Method,
		Path:      row.Path,
		Before:    row.Before,
		After:     row.After,
		UserAgent: row.UserAgent,
		IP:        row.IP,
		CreatedAt: row.CreatedAt,
	}
	if row.UserID != nil {
		v := parseUUIDOrNil(*row.UserID)
		log.UserID = &v
	}
	return log
}

func toDBAuditEntry(entry *audittrail.Entry) *models.AuditEntry {
	return &models.AuditEntry{
		ID:         entry.ID.String(),
		TenantID:   entry.TenantID.String(),
		UserID:     entry.UserID.String(),
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID.String(),
		Before:     entry.Before,
		After:      entry.After,
		Patch:      entry.Patch,
		CreatedAt:  entry.CreatedAt,
	}
}

func toDomainAuditEntry(row *models.AuditEntry) *audittrail.Entry {
	return &audittrail.Entry{
		ID:         parseUUIDOrNil(row.ID),
		TenantID:   parseUUIDOrNil(row.TenantID),
		UserID:     parseUUIDOrNil(row.UserID),
		Action:     row.Action,
		EntityType: row.EntityType,
		EntityID:   parseUUIDOrNil(row.EntityID),
		Before:     row.Before,
		After:      row.After,
		Patch:      row.Patch,
		CreatedAt:  row.CreatedAt,
	}
}
