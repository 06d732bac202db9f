package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/people/domain/aggregates/person"
	"github.com/caseweave/caseweave/pkg/authz"
)

type mockPersonRepo struct {
	called  bool
	persons map[uuid.UUID]person.Person
}

func newMockPersonRepo() *mockPersonRepo {
	return &mockPersonRepo{persons: map[uuid.UUID]person.Person{}}
}

func (m *mockPersonRepo) mark() { m.called = true }

func (m *mockPersonRepo) GetPaginated(ctx context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	m.mark()
	out := make([]person.Person, 0, len(m.persons))
	for _, p := range m.persons {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (m *mockPersonRepo) GetByID(ctx context.Context, id uuid.UUID) (person.Person, error) {
	m.mark()
	p, ok := m.persons[id]
	if !ok {
		return person.Person{}, person.ErrNotFound
	}
	return p, nil
}

func (m *mockPersonRepo) GetManyByIDs(ctx context.Context, ids []uuid.UUID) ([]person.Person, error) {
	m.mark()
	out := make([]person.Person, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.persons[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPersonRepo) GetAnonymous(ctx context.Context) (person.Person, error) {
	m.mark()
	for _, p := range m.persons {
		if p.IsAnonymous() {
			return p, nil
		}
	}
	return person.Person{}, person.ErrNotFound
}

func (m *mockPersonRepo) Create(ctx context.Context, p person.Person) (person.Person, error) {
	m.mark()
	m.persons[p.ID()] = p
	return p, nil
}

func (m *mockPersonRepo) Update(ctx context.Context, p person.Person) (person.Person, error) {
	m.mark()
	m.persons[p.ID()] = p
	return p, nil
}

type stubPublisher struct {
	published []interface{}
}

func (s *stubPublisher) Publish(args ...interface{})     { s.published = append(s.published, args...) }
func (s *stubPublisher) Subscribe(handler interface{})   {}
func (s *stubPublisher) Unsubscribe(handler interface{}) {}
func (s *stubPublisher) Clear()                          {}
func (s *stubPublisher) SubscribersCount() int           { return 0 }

func denyPeopleAuthz(t *testing.T, wantAction string) {
	t.Helper()
	t.Cleanup(func() { authorizePeopleFn = defaultAuthorizePeople })
	authorizePeopleFn = func(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
		require.Equal(t, personsAuthzObject, object)
		require.Equal(t, wantAction, action)
		return errors.New("forbidden")
	}
}

func TestPersonService_AuthorizeCreateDenied(t *testing.T) {
	denyPeopleAuthz(t, "create")

	repo := newMockPersonRepo()
	svc := NewPersonService(repo, &stubPublisher{})

	_, err := svc.Create(context.Background(), &person.CreateDTO{})
	require.Error(t, err)
	require.False(t, repo.called, "repository should not be called when authorization fails")
}

func TestPersonService_AuthorizeListDenied(t *testing.T) {
	denyPeopleAuthz(t, "list")

	repo := newMockPersonRepo()
	svc := NewPersonService(repo, &stubPublisher{})

	_, _, err := svc.GetPaginated(context.Background(), &person.FindParams{})
	require.Error(t, err)
	require.False(t, repo.called)
}

func TestPersonService_MarkMergedRejectsSelf(t *testing.T) {
	repo := newMockPersonRepo()
	svc := NewPersonService(repo, &stubPublisher{})

	id := uuid.New()
	_, err := svc.MarkMerged(context.Background(), id, id)
	require.ErrorIs(t, err, ErrPersonMergeSelf)
	require.False(t, repo.called, "self-merge must be rejected before any repository access")
}

func TestPersonService_GetOrCreateAnonymousReturnsExisting(t *testing.T) {
	repo := newMockPersonRepo()
	svc := NewPersonService(repo, &stubPublisher{})

	existing := person.NewAnonymous(uuid.New())
	repo.persons[existing.ID()] = existing

	got, err := svc.GetOrCreateAnonymous(context.Background())
	require.NoError(t, err)
	require.Equal(t, existing.ID(), got.ID())
}

func TestPersonService_GetManyByIDsUnguarded(t *testing.T) {
	denyPeopleAuthz(t, "never-called")

	repo := newMockPersonRepo()
	svc := NewPersonService(repo, &stubPublisher{})

	p := person.New(uuid.New(), person.TypeEmployee, person.SourceHRIS, "Nina", "Vale")
	repo.persons[p.ID()] = p

	got, err := svc.GetManyByIDs(context.Background(), []uuid.UUID{p.ID()})
	require.NoError(t, err)
	require.Len(t, got, 1)
}
