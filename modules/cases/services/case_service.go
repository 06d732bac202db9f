package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/domain/events"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/outbox"
)

// Transaction seam so service tests can run against in-memory fakes.
var inTx = composables.InTenantTx

type CaseService struct {
	repo      casefile.Repository
	publisher outbox.Publisher
	auditor   Auditor
}

func NewCaseService(repo casefile.Repository, publisher outbox.Publisher, auditor Auditor) *CaseService {
	if auditor == nil {
		auditor = NopAuditor()
	}
	return &CaseService{
		repo:      repo,
		publisher: publisher,
		auditor:   auditor,
	}
}

func (s *CaseService) GetPaginated(ctx context.Context, params *casefile.FindParams) ([]casefile.Case, int64, error) {
	if err := authorizeCases(ctx, casesAuthzObject, "list"); err != nil {
		return nil, 0, err
	}
	if params != nil {
		params.Q = strings.TrimSpace(params.Q)
	}

	var (
		items []casefile.Case
		total int64
	)
	err := inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		items, innerErr = s.repo.GetPaginated(txCtx, params)
		if innerErr != nil {
			return innerErr
		}
		total, innerErr = s.repo.Count(txCtx, params)
		return innerErr
	})
	if err != nil {
		return nil, 0, mapCasesError(err)
	}
	return items, total, nil
}

func (s *CaseService) GetByID(ctx context.Context, id uuid.UUID) (casefile.Case, error) {
	if err := authorizeCases(ctx, casesAuthzObject, "view"); err != nil {
		return casefile.Case{}, err
	}

	var entity casefile.Case
	err := inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		entity, innerErr = s.repo.GetByID(txCtx, id)
		return innerErr
	})
	if err != nil {
		return casefile.Case{}, mapCasesError(err)
	}
	return entity, nil
}

func (s *CaseService) Create(ctx context.Context, dto *casefile.CreateDTO) (casefile.Case, error) {
	if err := authorizeCases(ctx, casesAuthzObject, "create"); err != nil {
		return casefile.Case{}, err
	}
	if dto == nil {
		return casefile.Case{}, errors.New("missing dto")
	}
	dto.Normalize()

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return casefile.Case{}, err
	}
	entity := dto.ToEntity(tenantID)

	var created casefile.Case
	err = inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		created, innerErr = s.repo.Create(txCtx, entity)
		if innerErr != nil {
			return innerErr
		}
		return s.enqueueCaseChanged(txCtx, created.ID(), "created")
	})
	if err != nil {
		return casefile.Case{}, mapCasesError(err)
	}

	s.auditor.Record(ctx, "case.created", "case", created.ID(), nil, created)
	return created, nil
}

func (s *CaseService) Update(ctx context.Context, id uuid.UUID, dto *casefile.UpdateDTO) (casefile.Case, error) {
	if err := authorizeCases(ctx, casesAuthzObject, "update"); err != nil {
		return casefile.Case{}, err
	}
	if dto == nil {
		return casefile.Case{}, errors.New("missing dto")
	}
	dto.Normalize()

	var (
		before  casefile.Case
		updated casefile.Case
	)
	err := inTx(ctx, func(txCtx context.Context) error {
		entity, innerErr := s.repo.GetByID(txCtx, id)
		if innerErr != nil {
			return innerErr
		}
		before = entity

		next := entity
		if dto.Title != nil && *dto.Title != entity.Title() {
			next = next.SetTitle(*dto.Title)
		}
		if dto.Stage != "" && casefile.Stage(dto.Stage) != next.Stage() {
			next, innerErr = next.Advance(casefile.Stage(dto.Stage))
			if innerErr != nil {
				return innerErr
			}
		}
		if dto.Outcome != "" {
			next, innerErr = next.Close(casefile.Outcome(dto.Outcome))
			if innerErr != nil {
				return innerErr
			}
		}

		updated, innerErr = s.repo.Update(txCtx, next)
		if innerErr != nil {
			return innerErr
		}
		return s.enqueueCaseChanged(txCtx, updated.ID(), "updated")
	})
	if err != nil {
		return casefile.Case{}, mapCasesError(err)
	}

	s.auditor.Record(ctx, "case.updated", "case", updated.ID(), before, updated)
	return updated, nil
}

// LinkReport ties an intake report to the case. Tombstones accept no new
// links.
func (s *CaseService) LinkReport(ctx context.Context, caseID, reportID uuid.UUID) (casefile.ReportLink, error) {
	if err := authorizeCases(ctx, casesAuthzObject, "update"); err != nil {
		return casefile.ReportLink{}, err
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return casefile.ReportLink{}, err
	}

	var created casefile.ReportLink
	err = inTx(ctx, func(txCtx context.Context) error {
		entity, innerErr := s.repo.GetByID(txCtx, caseID)
		if innerErr != nil {
			return innerErr
		}
		if entity.IsMerged() {
			return casefile.ErrCaseMerged
		}

		created, innerErr = s.repo.LinkReport(txCtx, casefile.NewReportLink(tenantID, caseID, reportID))
		if innerErr != nil {
			return innerErr
		}
		return s.enqueueCaseChanged(txCtx, caseID, "report_linked")
	})
	if err != nil {
		return casefile.ReportLink{}, mapCasesError(err)
	}

	s.auditor.Record(ctx, "case.report_linked", "case", caseID, nil, map[string]string{
		"reportId": reportID.String(),
	})
	return created, nil
}

func (s *CaseService) ListReportLinks(ctx context.Context, caseID uuid.UUID) ([]casefile.ReportLink, error) {
	if err := authorizeCases(ctx, casesAuthzObject, "view"); err != nil {
		return nil, err
	}

	var links []casefile.ReportLink
	err := inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		links, innerErr = s.repo.ListReportLinks(txCtx, caseID)
		return innerErr
	})
	if err != nil {
		return nil, mapCasesError(err)
	}
	return links, nil
}

func (s *CaseService) enqueueCaseChanged(ctx context.Context, caseID uuid.UUID, changeType string) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	ev := events.CaseChangedV1{
		EventID:         uuid.New(),
		EventVersion:    events.EventVersionV1,
		TenantID:        tenantID,
		TransactionTime: time.Now(),
		InitiatorID:     actorID(ctx),
		CaseID:          caseID,
		ChangeType:      changeType,
	}
	return enqueueOutbox(ctx, s.publisher, events.TopicCaseChangedV1, ev.EventID, ev)
}
