package services

import (
	"context"
	"errors"

	"github.com/caseweave/caseweave/modules/logging/domain/entities/actionlog"
	"github.com/caseweave/caseweave/modules/logging/domain/entities/audittrail"
)

type LogsService struct {
	actionRepo actionlog.Repository
	auditRepo  audittrail.Repository
}

func NewLogsService(
	actionRepo actionlog.Repository,
	auditRepo audittrail.Repository,
) *LogsService {
	return &LogsService{
		actionRepo: actionRepo,
		auditRepo:  auditRepo,
	}
}

func (s *LogsService) ListActionLogs(
	ctx context.Context,
	params *actionlog.FindParams,
) ([]*actionlog.ActionLog, int64, error) {
	if err := authorizeLogging(ctx, "view"); err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &actionlog.FindParams{}
	}

	logs, err := s.actionRepo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.actionRepo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return logs, count, nil
}

func (s *LogsService) ListAuditTrail(
	ctx context.Context,
	params *audittrail.FindParams,
) ([]*audittrail.Entry, int64, error) {
	if err := authorizeLogging(ctx, "view"); err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &audittrail.FindParams{}
	}

	entries, err := s.auditRepo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.auditRepo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

func (s *LogsService) CreateActionLog(ctx context.Context, log *actionlog.ActionLog) error {
	if log == nil {
		return errors.New("action log payload is required")
	}
	return s.actionRepo.Create(ctx, log)
}
