package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/wI2L/jsondiff"

	"github.com/caseweave/caseweave/modules/logging/domain/entities/audittrail"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/configuration"
)

// AuditService writes the audit trail. It is strictly best-effort: a failed
// audit write logs a warning and never fails the mutation it describes,
// which is why it runs on its own connection instead of the caller's
// transaction.
type AuditService struct {
	repo audittrail.Repository
	pool *pgxpool.Pool
}

func NewAuditService(repo audittrail.Repository, pool *pgxpool.Pool) *AuditService {
	return &AuditService{repo: repo, pool: pool}
}

func (s *AuditService) Record(ctx context.Context, action, entityType string, entityID uuid.UUID, before, after any) {
	if s == nil || s.repo == nil || s.pool == nil {
		return
	}

	entry, err := s.buildEntry(ctx, action, entityType, entityID, before, after)
	if err != nil {
		s.warn(action, entityType, entityID, err)
		return
	}

	if err := s.persist(ctx, entry); err != nil {
		s.warn(action, entityType, entityID, err)
	}
}

func (s *AuditService) buildEntry(ctx context.Context, action, entityType string, entityID uuid.UUID, before, after any) (*audittrail.Entry, error) {
	entry := &audittrail.Entry{
		TenantID:   tenantOrNil(ctx),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if actor, err := composables.UseUser(ctx); err == nil && actor != nil {
		entry.UserID = actor.ID()
	}

	if before != nil {
		raw, err := json.Marshal(before)
		if err != nil {
			return nil, errors.Wrap(err, "marshal before snapshot")
		}
		entry.Before = raw
	}
	if after != nil {
		raw, err := json.Marshal(after)
		if err != nil {
			return nil, errors.Wrap(err, "marshal after snapshot")
		}
		entry.After = raw
	}

	if entry.Before != nil && entry.After != nil {
		patch, err := jsondiff.CompareJSON(entry.Before, entry.After)
		if err != nil {
			return nil, errors.Wrap(err, "diff snapshots")
		}
		raw, err := json.Marshal(patch)
		if err != nil {
			return nil, errors.Wrap(err, "marshal patch")
		}
		entry.Patch = raw
	}
	return entry, nil
}

func (s *AuditService) persist(ctx context.Context, entry *audittrail.Entry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin audit transaction")
	}

	txCtx := composables.WithTx(ctx, tx)
	if entry.TenantID != uuid.Nil {
		txCtx = composables.WithTenantID(txCtx, entry.TenantID)
	}
	if err := s.repo.Create(txCtx, entry); err != nil {
		_ = tx.Rollback(ctx)
		return errors.Wrap(err, "insert audit entry")
	}
	return errors.Wrap(tx.Commit(ctx), "commit audit transaction")
}

func (s *AuditService) warn(action, entityType string, entityID uuid.UUID, err error) {
	configuration.Use().Logger().WithFields(logrus.Fields{
		"action":     action,
		"entityType": entityType,
		"entityId":   entityID,
	}).WithError(err).Warn("audit trail write failed")
}
