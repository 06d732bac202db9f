package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/caseweave/caseweave/modules/intake/domain/aggregates/report"
	"github.com/caseweave/caseweave/modules/intake/domain/events"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/eventbus"
	"github.com/caseweave/caseweave/pkg/outbox"
	"github.com/caseweave/caseweave/pkg/serrors"
)

// IntakeOutboxTable is where durable intake events are staged; the relay
// drains it after commit.
var IntakeOutboxTable = pgx.Identifier{"public", "intake_outbox"}

// Transaction seam so service tests can run against in-memory fakes.
var inTx = composables.InTx

// DefaultLanguage is the fallback when a report carries neither a
// confirmed nor a detected language.
const DefaultLanguage = "en"

// immutableFields are the intake content fields frozen at creation. The
// guard names every one a caller tries to change.
var immutableFields = []string{"Narrative", "Category", "Severity", "Channel"}

type ReportService struct {
	repo      report.Repository
	publisher eventbus.EventBus
	outboxPub outbox.Publisher
}

func NewReportService(repo report.Repository, publisher eventbus.EventBus, outboxPub outbox.Publisher) *ReportService {
	return &ReportService{
		repo:      repo,
		publisher: publisher,
		outboxPub: outboxPub,
	}
}

func (s *ReportService) GetPaginated(ctx context.Context, params *report.FindParams) ([]report.Report, int64, error) {
	if err := authorizeIntake(ctx, reportsAuthzObject, "list"); err != nil {
		return nil, 0, err
	}
	if params != nil {
		params.Q = strings.TrimSpace(params.Q)
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *ReportService) GetByID(ctx context.Context, id uuid.UUID) (report.Report, error) {
	if err := authorizeIntake(ctx, reportsAuthzObject, "view"); err != nil {
		return report.Report{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *ReportService) Create(ctx context.Context, dto *report.CreateDTO) (report.Report, error) {
	if err := authorizeIntake(ctx, reportsAuthzObject, "create"); err != nil {
		return report.Report{}, err
	}
	if dto == nil {
		return report.Report{}, errors.New("missing dto")
	}
	dto.Normalize()

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return report.Report{}, err
	}
	entity, err := dto.ToEntity(tenantID)
	if err != nil {
		return report.Report{}, err
	}

	reporterID := uuid.Nil
	if dto.ReporterPersonID != "" {
		reporterID, err = uuid.Parse(dto.ReporterPersonID)
		if err != nil {
			return report.Report{}, err
		}
	}
	subjectIDs := make([]uuid.UUID, 0, len(dto.SubjectPersonIDs))
	for _, raw := range dto.SubjectPersonIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return report.Report{}, err
		}
		subjectIDs = append(subjectIDs, id)
	}

	var created report.Report
	err = inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		created, innerErr = s.repo.Create(txCtx, entity)
		if innerErr != nil {
			return innerErr
		}
		return s.enqueueReportChanged(txCtx, created, events.ChangeCreated, reporterID, subjectIDs)
	})
	if err != nil {
		return report.Report{}, err
	}

	createdEvent := report.NewCreatedEvent(ctx, created, reporterID, subjectIDs)
	createdEvent.Result = created
	s.publisher.Publish(createdEvent)

	return created, nil
}

// Update is the immutability guard. Tracking fields (status, QA outcome,
// assignment, confirmed language) pass through; any attempt to touch the
// frozen intake content fails with a validation error naming every
// offending field. Status moves are checked against the channel's
// monotonic lifecycle.
func (s *ReportService) Update(ctx context.Context, id uuid.UUID, dto *report.UpdateDTO) (report.Report, error) {
	if err := authorizeIntake(ctx, reportsAuthzObject, "update"); err != nil {
		return report.Report{}, err
	}
	if dto == nil {
		return report.Report{}, errors.New("missing dto")
	}
	dto.Normalize()

	var updated report.Report
	var statusEvent *report.StatusChangedEvent
	err := inTx(ctx, func(txCtx context.Context) error {
		entity, innerErr := s.repo.GetByID(txCtx, id)
		if innerErr != nil {
			return innerErr
		}

		if guardErr := guardImmutableFields(entity, dto); guardErr != nil {
			return guardErr
		}

		next := entity
		if dto.Status != "" && report.Status(dto.Status) != entity.Status() {
			actorID := uuid.Nil
			if actor, actorErr := composables.UseUser(txCtx); actorErr == nil && actor != nil {
				actorID = actor.ID()
			}
			moved, transitionErr := next.TransitionStatus(report.Status(dto.Status), actorID)
			if transitionErr != nil {
				return transitionErr
			}
			statusEvent = report.NewStatusChangedEvent(txCtx, moved, entity.Status(), moved.Status())
			next = moved
		}
		if dto.QAOutcome != nil {
			next = next.SetQAOutcome(report.QAOutcome(*dto.QAOutcome))
		}
		if dto.AssignedToID != nil {
			assignee, parseErr := uuid.Parse(*dto.AssignedToID)
			if parseErr != nil {
				return parseErr
			}
			next = next.AssignTo(assignee)
		}
		if dto.ConfirmedLanguage != nil {
			next = next.SetConfirmedLanguage(*dto.ConfirmedLanguage)
		}

		updated, innerErr = s.repo.Update(txCtx, next)
		if innerErr != nil {
			return innerErr
		}

		changeType := events.ChangeUpdated
		if statusEvent != nil {
			changeType = events.ChangeStatusChanged
		}
		return s.enqueueReportChanged(txCtx, updated, changeType, uuid.Nil, nil)
	})
	if err != nil {
		return report.Report{}, err
	}

	if statusEvent != nil {
		statusEvent.Data = updated
		s.publisher.Publish(statusEvent)
	}

	updatedEvent := report.NewUpdatedEvent(ctx, updated)
	updatedEvent.Result = updated
	s.publisher.Publish(updatedEvent)

	return updated, nil
}

// enqueueReportChanged stages the durable event in the same transaction as
// the report write. eventID doubles as the idempotency key.
func (s *ReportService) enqueueReportChanged(ctx context.Context, r report.Report, changeType string, reporterID uuid.UUID, subjectIDs []uuid.UUID) error {
	if s.outboxPub == nil {
		return nil
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	actorID := uuid.Nil
	if actor, actorErr := composables.UseUser(ctx); actorErr == nil && actor != nil {
		actorID = actor.ID()
	}

	ev := events.ReportChangedV1{
		EventID:          uuid.New(),
		EventVersion:     events.EventVersionV1,
		TenantID:         r.TenantID(),
		TransactionTime:  time.Now(),
		InitiatorID:      actorID,
		ReportID:         r.ID(),
		ChangeType:       changeType,
		Status:           string(r.Status()),
		ReporterPersonID: reporterID,
		SubjectPersonIDs: subjectIDs,
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	_, err = s.outboxPub.Enqueue(ctx, tx, IntakeOutboxTable, outbox.Message{
		TenantID: r.TenantID(),
		Topic:    events.TopicReportChangedV1,
		EventID:  ev.EventID,
		Payload:  raw,
	})
	return err
}

// LanguageEffective resolves the report's working language for read models.
func (s *ReportService) LanguageEffective(r report.Report) string {
	return r.LanguageEffective(DefaultLanguage)
}

// guardImmutableFields diffs the update against the stored report and
// collects every frozen field the caller tried to change.
func guardImmutableFields(entity report.Report, dto *report.UpdateDTO) error {
	offending := make([]string, 0, len(immutableFields))

	if dto.Narrative != nil && *dto.Narrative != entity.Narrative() {
		offending = append(offending, "Narrative")
	}
	if dto.Category != nil && *dto.Category != entity.Category() {
		offending = append(offending, "Category")
	}
	if dto.Severity != nil && report.Severity(*dto.Severity) != entity.Severity() {
		offending = append(offending, "Severity")
	}
	if dto.Channel != nil && report.Channel(*dto.Channel) != entity.Channel() {
		offending = append(offending, "Channel")
	}

	if len(offending) == 0 {
		return nil
	}

	validationErrors := make(serrors.ValidationErrors, len(offending))
	for _, field := range offending {
		validationErrors[field] = serrors.NewValidationError(
			"REPORT_FIELD_IMMUTABLE",
			field+" is fixed at intake and cannot be changed",
			field,
			"Intake.Errors.FieldImmutable",
		)
	}
	return errors.Join(&report.ImmutableFieldsError{Fields: offending}, validationErrors)
}
