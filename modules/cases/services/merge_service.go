package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/domain/events"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/configuration"
	"github.com/caseweave/caseweave/pkg/outbox"
)

type MergeService struct {
	cases     casefile.Repository
	merges    casefile.MergeRepository
	assocs    association.Repository
	publisher outbox.Publisher
	auditor   Auditor
}

func NewMergeService(
	cases casefile.Repository,
	merges casefile.MergeRepository,
	assocs association.Repository,
	publisher outbox.Publisher,
	auditor Auditor,
) *MergeService {
	if auditor == nil {
		auditor = NopAuditor()
	}
	return &MergeService{
		cases:     cases,
		merges:    merges,
		assocs:    assocs,
		publisher: publisher,
		auditor:   auditor,
	}
}

// Merge folds the source case into the target. Everything happens inside a
// single transaction: association and subordinate repointing, the source
// tombstone, the MERGED_FROM edge, and the outbox events. On any failure
// nothing is left half-moved.
func (s *MergeService) Merge(ctx context.Context, sourceID, targetID uuid.UUID, reason string) (*casefile.MergeResult, error) {
	if err := authorizeCases(ctx, mergesAuthzObject, "create"); err != nil {
		return nil, err
	}

	if sourceID == targetID {
		return nil, newServiceError(http.StatusConflict, "MERGE_SELF", "a case cannot be merged into itself", nil)
	}

	// Cheap precondition pass before taking any locks. The authoritative
	// check is repeated inside the transaction after the advisory lock.
	err := inTx(ctx, func(txCtx context.Context) error {
		pair, innerErr := s.cases.GetByIDs(txCtx, []uuid.UUID{sourceID, targetID})
		if innerErr != nil {
			return innerErr
		}
		if len(pair) != 2 {
			return casefile.ErrNotFound
		}
		for _, c := range pair {
			if c.IsMerged() {
				return casefile.ErrCaseMerged
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapCasesError(err)
	}

	actor := actorID(ctx)
	now := time.Now()
	result := &casefile.MergeResult{
		SourceCaseID: sourceID,
		TargetCaseID: targetID,
		MergedAt:     now,
	}

	var (
		sourceBefore casefile.Case
		sourceAfter  casefile.Case
	)
	err = inTx(ctx, func(txCtx context.Context) error {
		if innerErr := s.merges.LockCasePair(txCtx, sourceID, targetID); innerErr != nil {
			return innerErr
		}

		// Re-read under the lock; a concurrent merge that won the race
		// leaves one of the pair tombstoned.
		source, innerErr := s.cases.GetByID(txCtx, sourceID)
		if innerErr != nil {
			return innerErr
		}
		target, innerErr := s.cases.GetByID(txCtx, targetID)
		if innerErr != nil {
			return innerErr
		}
		if source.IsMerged() || target.IsMerged() {
			return newServiceError(http.StatusConflict, "MERGE_CONFLICT", "case was merged by a concurrent operation", casefile.ErrCaseMerged)
		}
		sourceBefore = source

		movedPersons, supersededPersons, innerErr := s.merges.RepointPersonAssociations(txCtx, sourceID, targetID, actor, now)
		if innerErr != nil {
			return innerErr
		}
		movedCases, supersededCases, innerErr := s.merges.RepointCaseAssociations(txCtx, sourceID, targetID, actor, now)
		if innerErr != nil {
			return innerErr
		}
		movedLinks, innerErr := s.merges.RelabelReportLinks(txCtx, sourceID, targetID, actor, now)
		if innerErr != nil {
			return innerErr
		}
		counts, innerErr := s.merges.RepointSubordinates(txCtx, sourceID, targetID, now)
		if innerErr != nil {
			return innerErr
		}

		result.PersonAssociations = movedPersons
		result.CaseAssociations = movedCases
		result.SupersededAssociations = supersededPersons + supersededCases
		result.ReportLinks = movedLinks
		result.Subjects = counts.Subjects
		result.Investigations = counts.Investigations
		result.Messages = counts.Messages
		result.Interactions = counts.Interactions

		sourceAfter = source.MarkMerged(targetID, actor, reason, now)
		if _, innerErr = s.cases.Update(txCtx, sourceAfter); innerErr != nil {
			return innerErr
		}

		edge, innerErr := association.NewCaseCase(source.TenantID(), targetID, sourceID, association.LabelMergedFrom)
		if innerErr != nil {
			return innerErr
		}
		if _, innerErr = s.assocs.CreateCaseCase(txCtx, edge); innerErr != nil {
			return innerErr
		}

		if _, innerErr = s.cases.Update(txCtx, target.Touch(now)); innerErr != nil {
			return innerErr
		}

		if innerErr = s.enqueueCaseMerged(txCtx, sourceID, targetID, reason, now); innerErr != nil {
			return innerErr
		}
		return s.enqueueTargetChanged(txCtx, targetID, now)
	})
	if err != nil {
		return nil, mapCasesError(err)
	}

	s.auditor.Record(ctx, "case.merged", "case", sourceID, sourceBefore, sourceAfter)
	return result, nil
}

// GetMergeHistory lists the tombstones folded directly into the given case.
func (s *MergeService) GetMergeHistory(ctx context.Context, caseID uuid.UUID) ([]casefile.Case, error) {
	if err := authorizeCases(ctx, mergesAuthzObject, "list"); err != nil {
		return nil, err
	}

	var history []casefile.Case
	err := inTx(ctx, func(txCtx context.Context) error {
		if _, innerErr := s.cases.GetByID(txCtx, caseID); innerErr != nil {
			return innerErr
		}
		var innerErr error
		history, innerErr = s.cases.ListMergedInto(txCtx, caseID)
		return innerErr
	})
	if err != nil {
		return nil, mapCasesError(err)
	}
	return history, nil
}

// ResolvePrimary follows merged_into_case_id pointers to the surviving case.
// The walk is bounded; a chain longer than the bound means corrupted data,
// so we log and return the furthest case reached.
func (s *MergeService) ResolvePrimary(ctx context.Context, caseID uuid.UUID) (casefile.Case, error) {
	if err := authorizeCases(ctx, casesAuthzObject, "view"); err != nil {
		return casefile.Case{}, err
	}

	maxDepth := configuration.Use().Merge.MaxChainDepth

	var resolved casefile.Case
	err := inTx(ctx, func(txCtx context.Context) error {
		current, innerErr := s.cases.GetByID(txCtx, caseID)
		if innerErr != nil {
			return innerErr
		}

		for hop := 0; current.IsMerged(); hop++ {
			if hop >= maxDepth {
				configuration.Use().Logger().WithFields(logrus.Fields{
					"caseId":   caseID,
					"maxDepth": maxDepth,
				}).Warn("merge chain exceeded depth bound, returning last resolved case")
				break
			}
			next, walkErr := s.cases.GetByID(txCtx, current.MergedIntoCaseID())
			if walkErr != nil {
				return walkErr
			}
			current = next
		}

		resolved = current
		return nil
	})
	if err != nil {
		return casefile.Case{}, mapCasesError(err)
	}
	return resolved, nil
}

func (s *MergeService) enqueueCaseMerged(ctx context.Context, sourceID, targetID uuid.UUID, reason string, at time.Time) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	ev := events.CaseMergedV1{
		EventID:         uuid.New(),
		EventVersion:    events.EventVersionV1,
		TenantID:        tenantID,
		TransactionTime: at,
		InitiatorID:     actorID(ctx),
		SourceCaseID:    sourceID,
		TargetCaseID:    targetID,
		Reason:          reason,
	}
	return enqueueOutbox(ctx, s.publisher, events.TopicCaseMergedV1, ev.EventID, ev)
}

func (s *MergeService) enqueueTargetChanged(ctx context.Context, targetID uuid.UUID, at time.Time) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	ev := events.CaseChangedV1{
		EventID:         uuid.New(),
		EventVersion:    events.EventVersionV1,
		TenantID:        tenantID,
		TransactionTime: at,
		InitiatorID:     actorID(ctx),
		CaseID:          targetID,
		ChangeType:      "received_merge",
	}
	return enqueueOutbox(ctx, s.publisher, events.TopicCaseChangedV1, ev.EventID, ev)
}
