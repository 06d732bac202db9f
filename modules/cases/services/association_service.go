package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/domain/events"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/outbox"
)

// CaseAssociations groups everything attached to one case.
type CaseAssociations struct {
	Persons []association.PersonCase
	Cases   []association.CaseCase
	Reports []casefile.ReportLink
}

// PersonAssociations groups everything attached to one person.
type PersonAssociations struct {
	Cases   []association.PersonCase
	Reports []association.PersonReport
	Persons []association.PersonPerson
}

type AssociationService struct {
	repo      association.Repository
	cases     casefile.Repository
	publisher outbox.Publisher
	auditor   Auditor
}

func NewAssociationService(
	repo association.Repository,
	cases casefile.Repository,
	publisher outbox.Publisher,
	auditor Auditor,
) *AssociationService {
	if auditor == nil {
		auditor = NopAuditor()
	}
	return &AssociationService{
		repo:      repo,
		cases:     cases,
		publisher: publisher,
		auditor:   auditor,
	}
}

func (s *AssociationService) CreatePersonCase(ctx context.Context, caseID uuid.UUID, dto *association.CreatePersonCaseDTO) (association.PersonCase, error) {
	if err := authorizeCases(ctx, associationsAuthzObject, "create"); err != nil {
		return association.PersonCase{}, err
	}
	if dto == nil {
		return association.PersonCase{}, errors.New("missing dto")
	}
	dto.Normalize()

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonCase{}, err
	}
	personID, err := uuid.Parse(dto.PersonID)
	if err != nil {
		return association.PersonCase{}, err
	}

	startedAt := time.Time{}
	if dto.StartedAt != nil {
		startedAt = *dto.StartedAt
	}
	entity, err := association.NewPersonCase(tenantID, personID, caseID, association.Label(dto.Label), startedAt)
	if err != nil {
		return association.PersonCase{}, mapCasesError(err)
	}

	var created association.PersonCase
	err = inTx(ctx, func(txCtx context.Context) error {
		target, innerErr := s.cases.GetByID(txCtx, caseID)
		if innerErr != nil {
			return innerErr
		}
		if target.IsMerged() {
			return casefile.ErrCaseMerged
		}

		created, innerErr = s.repo.CreatePersonCase(txCtx, entity)
		if innerErr != nil {
			return innerErr
		}
		return s.enqueueAssociationChanged(txCtx, association.KindPersonCase, created.ID(), events.ActionCreated, string(created.Label()), personID, caseID)
	})
	if err != nil {
		return association.PersonCase{}, mapCasesError(err)
	}

	s.auditor.Record(ctx, "association.created", "person_case_association", created.ID(), nil, created)
	return created, nil
}

func (s *AssociationService) CreatePersonReport(ctx context.Context, reportID uuid.UUID, dto *association.CreatePersonReportDTO) (association.PersonReport, error) {
	if err := authorizeCases(ctx, associationsAuthzObject, "create"); err != nil {
		return association.PersonReport{}, err
	}
	if dto == nil {
		return association.PersonReport{}, errors.New("missing dto")
	}
	dto.Normalize()

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonReport{}, err
	}
	personID, err := uuid.Parse(dto.PersonID)
	if err != nil {
		return association.PersonReport{}, err
	}

	entity, err := association.NewPersonReport(tenantID, personID, reportID, association.Label(dto.Label))
	if err != nil {
		return association.PersonReport{}, mapCasesError(err)
	}

	var created association.PersonReport
	err = inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		created, innerErr = s.repo.CreatePersonReport(txCtx, entity)
		if innerErr != nil {
			return innerErr
		}
		return s.enqueueAssociationChanged(txCtx, association.KindPersonReport, created.ID(), events.ActionCreated, string(created.Label()), personID, reportID)
	})
	if err != nil {
		return association.PersonReport{}, mapCasesError(err)
	}

	s.auditor.Record(ctx, "association.created", "person_report_association", created.ID(), nil, created)
	return created, nil
}

func (s *AssociationService) CreateCaseCase(ctx context.Context, subjectCaseID uuid.UUID, dto *association.CreateCaseCaseDTO) (association.CaseCase, error) {
	if err := authorizeCases(ctx, associationsAuthzObject, "create"); err != nil {
		return association.CaseCase{}, err
	}
	if dto == nil {
		return association.CaseCase{}, errors.New("missing dto")
	}
	dto.Normalize()

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.CaseCase{}, err
	}
	objectCaseID, err := uuid.Parse(dto.ObjectCaseID)
	if err != nil {
		return association.CaseCase{}, err
	}

	entity, err := association.NewCaseCase(tenantID, subjectCaseID, objectCaseID, association.Label(dto.Label))
	if err != nil {
		return association.CaseCase{}, mapCasesError(err)
	}

	var created association.CaseCase
	err = inTx(ctx, func(txCtx context.Context) error {
		pair, innerErr := s.cases.GetByIDs(txCtx, []uuid.UUID{subjectCaseID, objectCaseID})
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

		created, innerErr = s.repo.CreateCaseCase(txCtx, entity)
		if innerErr != nil {
			return innerErr
		}
		return s.enqueueAssociationChanged(txCtx, association.KindCaseCase, created.ID(), events.ActionCreated, string(created.Label()), subjectCaseID, objectCaseID)
	})
	if err != nil {
		return association.CaseCase{}, mapCasesError(err)
	}

	s.auditor.Record(ctx, "association.created", "case_case_association", created.ID(), nil, created)
	return created, nil
}

func (s *AssociationService) CreatePersonPerson(ctx context.Context, personID uuid.UUID, dto *association.CreatePersonPersonDTO) (association.PersonPerson, error) {
	if err := authorizeCases(ctx, associationsAuthzObject, "create"); err != nil {
		return association.PersonPerson{}, err
	}
	if dto == nil {
		return association.PersonPerson{}, errors.New("missing dto")
	}
	dto.Normalize()

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return association.PersonPerson{}, err
	}
	otherPersonID, err := uuid.Parse(dto.OtherPersonID)
	if err != nil {
		return association.PersonPerson{}, err
	}

	// The constructor canonicalizes the pair, so (A,B) and (B,A) collide
	// on the same unique index row.
	entity, err := association.NewPersonPerson(tenantID, personID, otherPersonID, association.Label(dto.Label))
	if err != nil {
		return association.PersonPerson{}, mapCasesError(err)
	}

	var created association.PersonPerson
	err = inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		created, innerErr = s.repo.CreatePersonPerson(txCtx, entity)
		if innerErr != nil {
			return innerErr
		}
		return s.enqueueAssociationChanged(txCtx, association.KindPersonPerson, created.ID(), events.ActionCreated, string(created.Label()), created.PersonAID(), created.PersonBID())
	})
	if err != nil {
		return association.PersonPerson{}, mapCasesError(err)
	}

	s.auditor.Record(ctx, "association.created", "person_person_association", created.ID(), nil, created)
	return created, nil
}

// UpdateStatus moves an evidentiary association's standing. Role rows and
// kinds without a status are rejected before any write happens.
func (s *AssociationService) UpdateStatus(ctx context.Context, kind association.Kind, id uuid.UUID, dto *association.UpdateStatusDTO) error {
	if err := authorizeCases(ctx, associationsAuthzObject, "update"); err != nil {
		return err
	}
	if dto == nil {
		return errors.New("missing dto")
	}
	dto.Normalize()
	status := association.EvidentiaryStatus(dto.Status)

	var (
		before any
		after  any
	)
	err := inTx(ctx, func(txCtx context.Context) error {
		switch kind {
		case association.KindPersonCase:
			entity, innerErr := s.repo.GetPersonCaseByID(txCtx, id)
			if innerErr != nil {
				return innerErr
			}
			updated, innerErr := entity.UpdateStatus(status)
			if innerErr != nil {
				return innerErr
			}
			if _, innerErr = s.repo.UpdatePersonCase(txCtx, updated); innerErr != nil {
				return innerErr
			}
			before, after = entity, updated
			return s.enqueueAssociationChanged(txCtx, kind, id, events.ActionStatusChanged, string(entity.Label()), entity.PersonID(), entity.CaseID())
		case association.KindPersonReport:
			entity, innerErr := s.repo.GetPersonReportByID(txCtx, id)
			if innerErr != nil {
				return innerErr
			}
			updated, innerErr := entity.UpdateStatus(status)
			if innerErr != nil {
				return innerErr
			}
			if _, innerErr = s.repo.UpdatePersonReport(txCtx, updated); innerErr != nil {
				return innerErr
			}
			before, after = entity, updated
			return s.enqueueAssociationChanged(txCtx, kind, id, events.ActionStatusChanged, string(entity.Label()), entity.PersonID(), entity.ReportID())
		default:
			return &association.ClassificationError{Label: association.Label(string(kind)), Op: "updateStatus"}
		}
	})
	if err != nil {
		return mapCasesError(err)
	}

	s.auditor.Record(ctx, "association.status_changed", string(kind), id, before, after)
	return nil
}

// EndRole closes a person-case role association's validity window.
func (s *AssociationService) EndRole(ctx context.Context, id uuid.UUID, dto *association.EndRoleDTO) error {
	if err := authorizeCases(ctx, associationsAuthzObject, "update"); err != nil {
		return err
	}
	if dto == nil {
		return errors.New("missing dto")
	}
	dto.Normalize()
	if dto.Reason == "" {
		return newServiceError(http.StatusUnprocessableEntity, "ASSOCIATION_END_REASON_REQUIRED", "ending a role requires a reason", nil)
	}

	endedAt := time.Time{}
	if dto.EndedAt != nil {
		endedAt = *dto.EndedAt
	}

	var (
		before association.PersonCase
		after  association.PersonCase
	)
	err := inTx(ctx, func(txCtx context.Context) error {
		entity, innerErr := s.repo.GetPersonCaseByID(txCtx, id)
		if innerErr != nil {
			return innerErr
		}
		updated, innerErr := entity.EndRole(endedAt, dto.Reason)
		if innerErr != nil {
			return innerErr
		}
		if _, innerErr = s.repo.UpdatePersonCase(txCtx, updated); innerErr != nil {
			return innerErr
		}
		before, after = entity, updated
		return s.enqueueAssociationChanged(txCtx, association.KindPersonCase, id, events.ActionRoleEnded, string(entity.Label()), entity.PersonID(), entity.CaseID())
	})
	if err != nil {
		return mapCasesError(err)
	}

	s.auditor.Record(ctx, "association.role_ended", "person_case_association", id, before, after)
	return nil
}

// Remove soft-removes an association of any kind; the row stays behind for
// audit with removed_at/by/reason filled in.
func (s *AssociationService) Remove(ctx context.Context, kind association.Kind, id uuid.UUID, dto *association.RemoveDTO) error {
	if err := authorizeCases(ctx, associationsAuthzObject, "delete"); err != nil {
		return err
	}
	reason := ""
	if dto != nil {
		dto.Normalize()
		reason = dto.Reason
	}
	actor := actorID(ctx)
	now := time.Now()

	var (
		before any
		after  any
	)
	err := inTx(ctx, func(txCtx context.Context) error {
		switch kind {
		case association.KindPersonCase:
			entity, innerErr := s.repo.GetPersonCaseByID(txCtx, id)
			if innerErr != nil {
				return innerErr
			}
			removed := entity.Remove(actor, reason, now)
			if _, innerErr = s.repo.UpdatePersonCase(txCtx, removed); innerErr != nil {
				return innerErr
			}
			before, after = entity, removed
			return s.enqueueAssociationChanged(txCtx, kind, id, events.ActionRemoved, string(entity.Label()), entity.PersonID(), entity.CaseID())
		case association.KindPersonReport:
			entity, innerErr := s.repo.GetPersonReportByID(txCtx, id)
			if innerErr != nil {
				return innerErr
			}
			removed := entity.Remove(actor, reason, now)
			if _, innerErr = s.repo.UpdatePersonReport(txCtx, removed); innerErr != nil {
				return innerErr
			}
			before, after = entity, removed
			return s.enqueueAssociationChanged(txCtx, kind, id, events.ActionRemoved, string(entity.Label()), entity.PersonID(), entity.ReportID())
		case association.KindCaseCase:
			entity, innerErr := s.repo.GetCaseCaseByID(txCtx, id)
			if innerErr != nil {
				return innerErr
			}
			removed := entity.Remove(actor, reason, now)
			if _, innerErr = s.repo.UpdateCaseCase(txCtx, removed); innerErr != nil {
				return innerErr
			}
			before, after = entity, removed
			return s.enqueueAssociationChanged(txCtx, kind, id, events.ActionRemoved, string(entity.Label()), entity.SubjectCaseID(), entity.ObjectCaseID())
		case association.KindPersonPerson:
			entity, innerErr := s.repo.GetPersonPersonByID(txCtx, id)
			if innerErr != nil {
				return innerErr
			}
			removed := entity.Remove(actor, reason, now)
			if _, innerErr = s.repo.UpdatePersonPerson(txCtx, removed); innerErr != nil {
				return innerErr
			}
			before, after = entity, removed
			return s.enqueueAssociationChanged(txCtx, kind, id, events.ActionRemoved, string(entity.Label()), entity.PersonAID(), entity.PersonBID())
		default:
			return association.ErrNotFound
		}
	})
	if err != nil {
		return mapCasesError(err)
	}

	s.auditor.Record(ctx, "association.removed", string(kind), id, before, after)
	return nil
}

func (s *AssociationService) ListForCase(ctx context.Context, caseID uuid.UUID) (CaseAssociations, error) {
	if err := authorizeCases(ctx, associationsAuthzObject, "list"); err != nil {
		return CaseAssociations{}, err
	}

	var out CaseAssociations
	err := inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		if out.Persons, innerErr = s.repo.ListPersonCaseForCase(txCtx, caseID); innerErr != nil {
			return innerErr
		}
		if out.Cases, innerErr = s.repo.ListCaseCaseForCase(txCtx, caseID); innerErr != nil {
			return innerErr
		}
		out.Reports, innerErr = s.cases.ListReportLinks(txCtx, caseID)
		return innerErr
	})
	if err != nil {
		return CaseAssociations{}, mapCasesError(err)
	}
	return out, nil
}

func (s *AssociationService) ListForPerson(ctx context.Context, personID uuid.UUID) (PersonAssociations, error) {
	if err := authorizeCases(ctx, associationsAuthzObject, "list"); err != nil {
		return PersonAssociations{}, err
	}

	var out PersonAssociations
	err := inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		if out.Cases, innerErr = s.repo.ListPersonCaseForPerson(txCtx, personID); innerErr != nil {
			return innerErr
		}
		if out.Reports, innerErr = s.repo.ListPersonReportForPerson(txCtx, personID); innerErr != nil {
			return innerErr
		}
		out.Persons, innerErr = s.repo.ListPersonPersonForPerson(txCtx, personID)
		return innerErr
	})
	if err != nil {
		return PersonAssociations{}, mapCasesError(err)
	}
	return out, nil
}

func (s *AssociationService) ListForReport(ctx context.Context, reportID uuid.UUID) ([]association.PersonReport, error) {
	if err := authorizeCases(ctx, associationsAuthzObject, "list"); err != nil {
		return nil, err
	}

	var items []association.PersonReport
	err := inTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		items, innerErr = s.repo.ListPersonReportForReport(txCtx, reportID)
		return innerErr
	})
	if err != nil {
		return nil, mapCasesError(err)
	}
	return items, nil
}

func (s *AssociationService) enqueueAssociationChanged(
	ctx context.Context,
	kind association.Kind,
	associationID uuid.UUID,
	action, label string,
	subjectID, objectID uuid.UUID,
) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	ev := events.AssociationChangedV1{
		EventID:         uuid.New(),
		EventVersion:    events.EventVersionV1,
		TenantID:        tenantID,
		TransactionTime: time.Now(),
		InitiatorID:     actorID(ctx),
		AssociationType: string(kind),
		AssociationID:   associationID,
		Action:          action,
		Label:           label,
		SubjectID:       subjectID,
		ObjectID:        objectID,
	}
	return enqueueOutbox(ctx, s.publisher, events.TopicAssociationChangedV1, ev.EventID, ev)
}
