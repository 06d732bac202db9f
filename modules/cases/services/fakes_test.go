package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/association"
	"github.com/caseweave/caseweave/modules/cases/domain/aggregates/casefile"
	"github.com/caseweave/caseweave/modules/cases/domain/projection"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/constants"
	"github.com/caseweave/caseweave/pkg/outbox"
	"github.com/caseweave/caseweave/pkg/repo"
)

// memStore backs every fake repository so a single snapshot/restore gives
// transactional semantics across all of them.
type memStore struct {
	cases        map[uuid.UUID]casefile.Case
	personCase   map[uuid.UUID]association.PersonCase
	personReport map[uuid.UUID]association.PersonReport
	caseCase     map[uuid.UUID]association.CaseCase
	personPerson map[uuid.UUID]association.PersonPerson
	links        map[uuid.UUID]memReportLink
	subordinates map[uuid.UUID]casefile.SubordinateCounts
}

type memReportLink struct {
	link    casefile.ReportLink
	removed bool
}

func newMemStore() *memStore {
	return &memStore{
		cases:        map[uuid.UUID]casefile.Case{},
		personCase:   map[uuid.UUID]association.PersonCase{},
		personReport: map[uuid.UUID]association.PersonReport{},
		caseCase:     map[uuid.UUID]association.CaseCase{},
		personPerson: map[uuid.UUID]association.PersonPerson{},
		links:        map[uuid.UUID]memReportLink{},
		subordinates: map[uuid.UUID]casefile.SubordinateCounts{},
	}
}

func (s *memStore) snapshot() *memStore {
	c := newMemStore()
	for k, v := range s.cases {
		c.cases[k] = v
	}
	for k, v := range s.personCase {
		c.personCase[k] = v
	}
	for k, v := range s.personReport {
		c.personReport[k] = v
	}
	for k, v := range s.caseCase {
		c.caseCase[k] = v
	}
	for k, v := range s.personPerson {
		c.personPerson[k] = v
	}
	for k, v := range s.links {
		c.links[k] = v
	}
	for k, v := range s.subordinates {
		c.subordinates[k] = v
	}
	return c
}

func (s *memStore) restore(from *memStore) {
	s.cases = from.cases
	s.personCase = from.personCase
	s.personReport = from.personReport
	s.caseCase = from.caseCase
	s.personPerson = from.personPerson
	s.links = from.links
	s.subordinates = from.subordinates
}

// useMemTx replaces the transaction seam with a snapshot-rollback fake so
// service tests get real all-or-nothing behavior without a database.
func useMemTx(t *testing.T, store *memStore) {
	t.Helper()
	prev := inTx
	t.Cleanup(func() { inTx = prev })
	inTx = func(ctx context.Context, fn func(context.Context) error) error {
		before := store.snapshot()
		if err := fn(ctx); err != nil {
			store.restore(before)
			return err
		}
		return nil
	}
}

// noopTx satisfies the transaction lookup inside enqueueOutbox; the stub
// publisher never touches it.
type noopTx struct{}

func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}

func testCtx(tenantID uuid.UUID) context.Context {
	ctx := composables.WithTenantID(context.Background(), tenantID)
	return context.WithValue(ctx, constants.TxKey, repo.Tx(noopTx{}))
}

// fakeCaseRepo

type fakeCaseRepo struct {
	s *memStore
}

func (f *fakeCaseRepo) matches(c casefile.Case, params *casefile.FindParams) bool {
	if params == nil {
		params = &casefile.FindParams{}
	}
	if !params.IncludeMerged && c.IsMerged() {
		return false
	}
	if params.Status != "" && c.Status() != params.Status {
		return false
	}
	if params.Stage != "" && c.Stage() != params.Stage {
		return false
	}
	return true
}

func (f *fakeCaseRepo) collect(params *casefile.FindParams) []casefile.Case {
	var out []casefile.Case
	for _, c := range f.s.cases {
		if f.matches(c, params) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

func (f *fakeCaseRepo) Count(_ context.Context, params *casefile.FindParams) (int64, error) {
	return int64(len(f.collect(params))), nil
}

func (f *fakeCaseRepo) GetPaginated(_ context.Context, params *casefile.FindParams) ([]casefile.Case, error) {
	out := f.collect(params)
	if params == nil {
		return out, nil
	}
	offset := params.Offset
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (f *fakeCaseRepo) GetByID(_ context.Context, id uuid.UUID) (casefile.Case, error) {
	c, ok := f.s.cases[id]
	if !ok {
		return casefile.Case{}, casefile.ErrNotFound
	}
	return c, nil
}

func (f *fakeCaseRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]casefile.Case, error) {
	var out []casefile.Case
	for _, id := range ids {
		if c, ok := f.s.cases[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCaseRepo) ListMergedInto(_ context.Context, targetID uuid.UUID) ([]casefile.Case, error) {
	var out []casefile.Case
	for _, c := range f.s.cases {
		if c.IsMerged() && c.MergedIntoCaseID() == targetID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MergedAt().After(out[j].MergedAt()) })
	return out, nil
}

func (f *fakeCaseRepo) Create(_ context.Context, entity casefile.Case) (casefile.Case, error) {
	for _, c := range f.s.cases {
		if c.CaseNumber() == entity.CaseNumber() {
			return casefile.Case{}, casefile.ErrCaseNumberTaken
		}
	}
	f.s.cases[entity.ID()] = entity
	return entity, nil
}

func (f *fakeCaseRepo) Update(_ context.Context, entity casefile.Case) (casefile.Case, error) {
	if _, ok := f.s.cases[entity.ID()]; !ok {
		return casefile.Case{}, casefile.ErrNotFound
	}
	f.s.cases[entity.ID()] = entity
	return entity, nil
}

func (f *fakeCaseRepo) LinkReport(_ context.Context, link casefile.ReportLink) (casefile.ReportLink, error) {
	for _, existing := range f.s.links {
		if !existing.removed && existing.link.CaseID() == link.CaseID() && existing.link.ReportID() == link.ReportID() {
			return casefile.ReportLink{}, casefile.ErrReportAlreadyLinked
		}
	}
	f.s.links[link.ID()] = memReportLink{link: link}
	return link, nil
}

func (f *fakeCaseRepo) ListReportLinks(_ context.Context, caseID uuid.UUID) ([]casefile.ReportLink, error) {
	var out []casefile.ReportLink
	for _, l := range f.s.links {
		if !l.removed && l.link.CaseID() == caseID {
			out = append(out, l.link)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().Before(out[j].CreatedAt()) })
	return out, nil
}

// fakeAssocRepo

type fakeAssocRepo struct {
	s *memStore
}

func (f *fakeAssocRepo) CreatePersonCase(_ context.Context, entity association.PersonCase) (association.PersonCase, error) {
	for _, a := range f.s.personCase {
		if !a.IsRemoved() && a.PersonID() == entity.PersonID() && a.CaseID() == entity.CaseID() && a.Label() == entity.Label() {
			return association.PersonCase{}, association.ErrDuplicate
		}
	}
	f.s.personCase[entity.ID()] = entity
	return entity, nil
}

func (f *fakeAssocRepo) GetPersonCaseByID(_ context.Context, id uuid.UUID) (association.PersonCase, error) {
	a, ok := f.s.personCase[id]
	if !ok {
		return association.PersonCase{}, association.ErrNotFound
	}
	return a, nil
}

func (f *fakeAssocRepo) UpdatePersonCase(_ context.Context, entity association.PersonCase) (association.PersonCase, error) {
	if _, ok := f.s.personCase[entity.ID()]; !ok {
		return association.PersonCase{}, association.ErrNotFound
	}
	f.s.personCase[entity.ID()] = entity
	return entity, nil
}

func (f *fakeAssocRepo) ListPersonCaseForCase(_ context.Context, caseID uuid.UUID) ([]association.PersonCase, error) {
	var out []association.PersonCase
	for _, a := range f.s.personCase {
		if !a.IsRemoved() && a.CaseID() == caseID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssocRepo) ListPersonCaseForPerson(_ context.Context, personID uuid.UUID) ([]association.PersonCase, error) {
	var out []association.PersonCase
	for _, a := range f.s.personCase {
		if !a.IsRemoved() && a.PersonID() == personID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssocRepo) CreatePersonReport(_ context.Context, entity association.PersonReport) (association.PersonReport, error) {
	for _, a := range f.s.personReport {
		if !a.IsRemoved() && a.PersonID() == entity.PersonID() && a.ReportID() == entity.ReportID() && a.Label() == entity.Label() {
			return association.PersonReport{}, association.ErrDuplicate
		}
	}
	f.s.personReport[entity.ID()] = entity
	return entity, nil
}

func (f *fakeAssocRepo) GetPersonReportByID(_ context.Context, id uuid.UUID) (association.PersonReport, error) {
	a, ok := f.s.personReport[id]
	if !ok {
		return association.PersonReport{}, association.ErrNotFound
	}
	return a, nil
}

func (f *fakeAssocRepo) UpdatePersonReport(_ context.Context, entity association.PersonReport) (association.PersonReport, error) {
	if _, ok := f.s.personReport[entity.ID()]; !ok {
		return association.PersonReport{}, association.ErrNotFound
	}
	f.s.personReport[entity.ID()] = entity
	return entity, nil
}

func (f *fakeAssocRepo) ListPersonReportForReport(_ context.Context, reportID uuid.UUID) ([]association.PersonReport, error) {
	var out []association.PersonReport
	for _, a := range f.s.personReport {
		if !a.IsRemoved() && a.ReportID() == reportID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssocRepo) ListPersonReportForPerson(_ context.Context, personID uuid.UUID) ([]association.PersonReport, error) {
	var out []association.PersonReport
	for _, a := range f.s.personReport {
		if !a.IsRemoved() && a.PersonID() == personID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssocRepo) CreateCaseCase(_ context.Context, entity association.CaseCase) (association.CaseCase, error) {
	for _, a := range f.s.caseCase {
		if !a.IsRemoved() && a.SubjectCaseID() == entity.SubjectCaseID() && a.ObjectCaseID() == entity.ObjectCaseID() && a.Label() == entity.Label() {
			return association.CaseCase{}, association.ErrDuplicate
		}
	}
	f.s.caseCase[entity.ID()] = entity
	return entity, nil
}

func (f *fakeAssocRepo) GetCaseCaseByID(_ context.Context, id uuid.UUID) (association.CaseCase, error) {
	a, ok := f.s.caseCase[id]
	if !ok {
		return association.CaseCase{}, association.ErrNotFound
	}
	return a, nil
}

func (f *fakeAssocRepo) UpdateCaseCase(_ context.Context, entity association.CaseCase) (association.CaseCase, error) {
	if _, ok := f.s.caseCase[entity.ID()]; !ok {
		return association.CaseCase{}, association.ErrNotFound
	}
	f.s.caseCase[entity.ID()] = entity
	return entity, nil
}

func (f *fakeAssocRepo) ListCaseCaseForCase(_ context.Context, caseID uuid.UUID) ([]association.CaseCase, error) {
	var out []association.CaseCase
	for _, a := range f.s.caseCase {
		if !a.IsRemoved() && (a.SubjectCaseID() == caseID || a.ObjectCaseID() == caseID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssocRepo) CreatePersonPerson(_ context.Context, entity association.PersonPerson) (association.PersonPerson, error) {
	for _, a := range f.s.personPerson {
		if !a.IsRemoved() && a.PersonAID() == entity.PersonAID() && a.PersonBID() == entity.PersonBID() && a.Label() == entity.Label() {
			return association.PersonPerson{}, association.ErrDuplicate
		}
	}
	f.s.personPerson[entity.ID()] = entity
	return entity, nil
}

func (f *fakeAssocRepo) GetPersonPersonByID(_ context.Context, id uuid.UUID) (association.PersonPerson, error) {
	a, ok := f.s.personPerson[id]
	if !ok {
		return association.PersonPerson{}, association.ErrNotFound
	}
	return a, nil
}

func (f *fakeAssocRepo) UpdatePersonPerson(_ context.Context, entity association.PersonPerson) (association.PersonPerson, error) {
	if _, ok := f.s.personPerson[entity.ID()]; !ok {
		return association.PersonPerson{}, association.ErrNotFound
	}
	f.s.personPerson[entity.ID()] = entity
	return entity, nil
}

func (f *fakeAssocRepo) ListPersonPersonForPerson(_ context.Context, personID uuid.UUID) ([]association.PersonPerson, error) {
	var out []association.PersonPerson
	for _, a := range f.s.personPerson {
		if !a.IsRemoved() && (a.PersonAID() == personID || a.PersonBID() == personID) {
			out = append(out, a)
		}
	}
	return out, nil
}

// fakeMergeRepo mirrors the SQL supersede-then-move logic in memory.
// failAt injects an error after the named step to exercise rollback.
type fakeMergeRepo struct {
	s         *memStore
	lockCalls [][2]uuid.UUID
	failAt    string
}

func (f *fakeMergeRepo) fail(step string) error {
	if f.failAt == step {
		return fmt.Errorf("injected failure at %s", step)
	}
	return nil
}

func (f *fakeMergeRepo) LockCasePair(_ context.Context, a, b uuid.UUID) error {
	first, second := association.CanonicalPair(a, b)
	f.lockCalls = append(f.lockCalls, [2]uuid.UUID{first, second})
	return f.fail("lock")
}

func (f *fakeMergeRepo) RepointPersonAssociations(_ context.Context, source, target, actor uuid.UUID, at time.Time) (int64, int64, error) {
	var moved, superseded int64
	for id, a := range f.s.personCase {
		if a.IsRemoved() || a.CaseID() != source {
			continue
		}
		duplicate := false
		for _, existing := range f.s.personCase {
			if !existing.IsRemoved() && existing.CaseID() == target &&
				existing.PersonID() == a.PersonID() && existing.Label() == a.Label() {
				duplicate = true
				break
			}
		}
		if duplicate {
			f.s.personCase[id] = a.Remove(actor, "SUPERSEDED_BY_MERGE", at)
			superseded++
		} else {
			f.s.personCase[id] = a.Repoint(target, at)
			moved++
		}
	}
	return moved, superseded, f.fail("persons")
}

func (f *fakeMergeRepo) RepointCaseAssociations(_ context.Context, source, target, actor uuid.UUID, at time.Time) (int64, int64, error) {
	var moved, superseded int64
	for id, a := range f.s.caseCase {
		if a.IsRemoved() {
			continue
		}
		touchesSource := a.SubjectCaseID() == source || a.ObjectCaseID() == source
		if !touchesSource {
			continue
		}
		pairEdge := (a.SubjectCaseID() == source && a.ObjectCaseID() == target) ||
			(a.SubjectCaseID() == target && a.ObjectCaseID() == source)
		if pairEdge {
			f.s.caseCase[id] = a.Remove(actor, "SUPERSEDED_BY_MERGE", at)
			superseded++
			continue
		}

		newSubject, newObject := a.SubjectCaseID(), a.ObjectCaseID()
		if newSubject == source {
			newSubject = target
		}
		if newObject == source {
			newObject = target
		}
		duplicate := false
		for otherID, other := range f.s.caseCase {
			if otherID != id && !other.IsRemoved() &&
				other.SubjectCaseID() == newSubject && other.ObjectCaseID() == newObject && other.Label() == a.Label() {
				duplicate = true
				break
			}
		}
		if duplicate {
			f.s.caseCase[id] = a.Remove(actor, "SUPERSEDED_BY_MERGE", at)
			superseded++
		} else {
			f.s.caseCase[id] = association.HydrateCaseCase(
				a.ID(), a.TenantID(), newSubject, newObject, a.Label(),
				time.Time{}, uuid.Nil, "", a.CreatedAt(), at,
			)
			moved++
		}
	}
	return moved, superseded, f.fail("cases")
}

func (f *fakeMergeRepo) RelabelReportLinks(_ context.Context, source, target, actor uuid.UUID, at time.Time) (int64, error) {
	var moved int64
	for id, l := range f.s.links {
		if l.removed || l.link.CaseID() != source {
			continue
		}
		duplicate := false
		for otherID, other := range f.s.links {
			if otherID != id && !other.removed && other.link.CaseID() == target && other.link.ReportID() == l.link.ReportID() {
				duplicate = true
				break
			}
		}
		if duplicate {
			l.removed = true
			f.s.links[id] = l
			continue
		}
		l.link = casefile.HydrateReportLink(
			l.link.ID(), l.link.TenantID(), target, l.link.ReportID(),
			casefile.ReportLinkMergedFrom, l.link.CreatedAt(), at,
		)
		f.s.links[id] = l
		moved++
	}
	return moved, f.fail("links")
}

func (f *fakeMergeRepo) RepointSubordinates(_ context.Context, source, target uuid.UUID, _ time.Time) (casefile.SubordinateCounts, error) {
	counts := f.s.subordinates[source]
	existing := f.s.subordinates[target]
	existing.Subjects += counts.Subjects
	existing.Investigations += counts.Investigations
	existing.Messages += counts.Messages
	existing.Interactions += counts.Interactions
	f.s.subordinates[target] = existing
	delete(f.s.subordinates, source)
	return counts, f.fail("subordinates")
}

// fakeSearchRepo answers pattern queries from in-memory documents using the
// same same-entry containment semantics as the SQL implementation.
type fakeSearchRepo struct {
	docs      map[uuid.UUID]projection.Document
	indexedAt map[uuid.UUID]time.Time
}

func newFakeSearchRepo() *fakeSearchRepo {
	return &fakeSearchRepo{
		docs:      map[uuid.UUID]projection.Document{},
		indexedAt: map[uuid.UUID]time.Time{},
	}
}

func (f *fakeSearchRepo) Upsert(_ context.Context, doc projection.Document) error {
	doc.Flatten()
	f.docs[doc.CaseID] = doc
	f.indexedAt[doc.CaseID] = time.Now()
	return nil
}

func (f *fakeSearchRepo) GetByCaseID(_ context.Context, caseID uuid.UUID) (projection.Document, error) {
	doc, ok := f.docs[caseID]
	if !ok {
		return projection.Document{}, projection.ErrNotFound
	}
	return doc, nil
}

func (f *fakeSearchRepo) Delete(_ context.Context, caseID uuid.UUID) error {
	delete(f.docs, caseID)
	delete(f.indexedAt, caseID)
	return nil
}

func (f *fakeSearchRepo) ListCaseIDs(_ context.Context) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(f.docs))
	for id := range f.docs {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeSearchRepo) match(doc projection.Document, caseID uuid.UUID, count int, roles []string) projection.CaseMatch {
	return projection.CaseMatch{
		CaseID:     caseID,
		CaseNumber: doc.CaseNumber,
		Title:      doc.Title,
		Status:     doc.Status,
		Stage:      doc.Stage,
		IsMerged:   doc.IsMerged,
		MatchCount: count,
		Roles:      roles,
		IndexedAt:  f.indexedAt[caseID],
	}
}

func (f *fakeSearchRepo) FindByPersonID(_ context.Context, personID uuid.UUID, roleFilter []string) ([]projection.CaseMatch, error) {
	var out []projection.CaseMatch
	for id, doc := range f.docs {
		var roles []string
		count := 0
		for _, entry := range doc.Associations.Persons {
			if entry.PersonID != personID {
				continue
			}
			if len(roleFilter) > 0 && !containsRole(roleFilter, entry.Label) {
				continue
			}
			count++
			roles = append(roles, entry.Label)
		}
		if count > 0 {
			out = append(out, f.match(doc, id, count, roles))
		}
	}
	sortMatches(out)
	return out, nil
}

func (f *fakeSearchRepo) FindByCombination(_ context.Context, criteria []projection.CombinationCriterion) ([]projection.CaseMatch, error) {
	var out []projection.CaseMatch
	for id, doc := range f.docs {
		all := true
		for _, criterion := range criteria {
			satisfied := false
			for _, entry := range doc.Associations.Persons {
				if entry.PersonID != criterion.PersonID {
					continue
				}
				if len(criterion.Roles) > 0 && !containsRole(criterion.Roles, entry.Label) {
					continue
				}
				satisfied = true
				break
			}
			if !satisfied {
				all = false
				break
			}
		}
		if all {
			out = append(out, f.match(doc, id, len(criteria), nil))
		}
	}
	sortMatches(out)
	return out, nil
}

func (f *fakeSearchRepo) CountReporterEntries(_ context.Context, personID, excludingReportID uuid.UUID) (int, error) {
	seen := map[uuid.UUID]struct{}{}
	for _, doc := range f.docs {
		// Same reporter array pre-filter as the SQL implementation.
		if !containsID(doc.ReporterPersonIDs, personID) {
			continue
		}
		for _, entry := range doc.Associations.LinkedReports {
			if entry.ReporterPersonID == personID && entry.ReportID != excludingReportID {
				seen[entry.ReportID] = struct{}{}
			}
		}
	}
	return len(seen), nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func sortMatches(matches []projection.CaseMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchCount != matches[j].MatchCount {
			return matches[i].MatchCount > matches[j].MatchCount
		}
		return matches[i].IndexedAt.After(matches[j].IndexedAt)
	})
}

// stubOutbox captures enqueued messages; the relay is not under test here.
type stubOutbox struct {
	messages []outbox.Message
}

func (s *stubOutbox) Enqueue(_ context.Context, _ repo.Tx, _ pgx.Identifier, msg outbox.Message) (int64, error) {
	s.messages = append(s.messages, msg)
	return int64(len(s.messages)), nil
}

func (s *stubOutbox) topics() []string {
	out := make([]string, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, m.Topic)
	}
	return out
}
