package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
	"github.com/caseweave/caseweave/modules/core/domain/value_objects/internet"
	"github.com/caseweave/caseweave/pkg/authz"
)

type mockUserRepo struct {
	called bool
	users  map[uuid.UUID]user.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[uuid.UUID]user.User{}}
}

func (m *mockUserRepo) mark() { m.called = true }

func (m *mockUserRepo) GetPaginated(ctx context.Context, params *user.FindParams) ([]user.User, error) {
	m.mark()
	out := make([]user.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepo) Count(ctx context.Context, params *user.FindParams) (int64, error) {
	m.mark()
	return int64(len(m.users)), nil
}

func (m *mockUserRepo) GetAll(ctx context.Context) ([]user.User, error) {
	m.mark()
	out := make([]user.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	m.mark()
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	m.mark()
	for _, u := range m.users {
		if u.Email().Value() == email {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	m.mark()
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, data user.User) (user.User, error) {
	m.mark()
	m.users[data.ID()] = data
	return data, nil
}

func (m *mockUserRepo) Update(ctx context.Context, data user.User) error {
	m.mark()
	m.users[data.ID()] = data
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.mark()
	delete(m.users, id)
	return nil
}

type stubPublisher struct {
	published []interface{}
}

func (s *stubPublisher) Publish(args ...interface{})     { s.published = append(s.published, args...) }
func (s *stubPublisher) Subscribe(handler interface{})   {}
func (s *stubPublisher) Unsubscribe(handler interface{}) {}
func (s *stubPublisher) Clear()                          {}
func (s *stubPublisher) SubscribersCount() int           { return 0 }

func denyCoreAuthz(t *testing.T, wantObject, wantAction string) {
	t.Helper()
	t.Cleanup(func() { authorizeCoreFn = defaultAuthorizeCore })
	authorizeCoreFn = func(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
		require.Equal(t, wantObject, object)
		require.Equal(t, wantAction, action)
		return errors.New("forbidden")
	}
}

func TestUserService_AuthorizeCreateDenied(t *testing.T) {
	denyCoreAuthz(t, usersAuthzObject, "create")

	repo := newMockUserRepo()
	svc := NewUserService(repo, &stubPublisher{})

	u := user.New("Ada", "Byron", internet.MustParseEmail("ada@test.com"), user.UILanguageEN)
	_, err := svc.Create(context.Background(), u)
	require.Error(t, err)
	require.False(t, repo.called, "repository should not be called when authorization fails")
}

func TestUserService_AuthorizeUpdateDenied(t *testing.T) {
	denyCoreAuthz(t, usersAuthzObject, "update")

	repo := newMockUserRepo()
	svc := NewUserService(repo, &stubPublisher{})

	u := user.New("Ada", "Byron", internet.MustParseEmail("ada@test.com"), user.UILanguageEN)
	_, err := svc.Update(context.Background(), u)
	require.Error(t, err)
	require.False(t, repo.called)
}

func TestUserService_AuthorizeDeleteDenied(t *testing.T) {
	denyCoreAuthz(t, usersAuthzObject, "delete")

	repo := newMockUserRepo()
	svc := NewUserService(repo, &stubPublisher{})

	_, err := svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	require.False(t, repo.called)
}

func TestUserService_AuthorizeListDenied(t *testing.T) {
	denyCoreAuthz(t, usersAuthzObject, "list")

	repo := newMockUserRepo()
	svc := NewUserService(repo, &stubPublisher{})

	_, err := svc.GetPaginated(context.Background(), &user.FindParams{})
	require.Error(t, err)
	require.False(t, repo.called)
}

func TestUserService_ReadsPassWithoutActor(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, &stubPublisher{})

	u := user.New("Ada", "Byron", internet.MustParseEmail("ada@test.com"), user.UILanguageEN)
	repo.users[u.ID()] = u

	got, err := svc.GetByID(context.Background(), u.ID())
	require.NoError(t, err)
	require.Equal(t, u.ID(), got.ID())

	all, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
}
