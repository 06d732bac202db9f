package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/logging/domain/entities/actionlog"
	"github.com/caseweave/caseweave/modules/logging/domain/entities/audittrail"
	"github.com/caseweave/caseweave/pkg/authz"
	"github.com/caseweave/caseweave/pkg/composables"
)

type mockActionLogRepo struct {
	calledList bool
	lastParams *actionlog.FindParams
}

func (m *mockActionLogRepo) List(ctx context.Context, params *actionlog.FindParams) ([]*actionlog.ActionLog, error) {
	m.calledList = true
	m.lastParams = params
	return []*actionlog.ActionLog{}, nil
}

func (m *mockActionLogRepo) Count(ctx context.Context, params *actionlog.FindParams) (int64, error) {
	return 0, nil
}

func (m *mockActionLogRepo) Create(ctx context.Context, log *actionlog.ActionLog) error {
	m.calledList = true
	return nil
}

type mockAuditTrailRepo struct {
	calledList bool
	lastParams *audittrail.FindParams
	created    []*audittrail.Entry
}

func (m *mockAuditTrailRepo) List(ctx context.Context, params *audittrail.FindParams) ([]*audittrail.Entry, error) {
	m.calledList = true
	m.lastParams = params
	return []*audittrail.Entry{}, nil
}

func (m *mockAuditTrailRepo) Count(ctx context.Context, params *audittrail.FindParams) (int64, error) {
	return 0, nil
}

func (m *mockAuditTrailRepo) Create(ctx context.Context, entry *audittrail.Entry) error {
	m.created = append(m.created, entry)
	return nil
}

func TestLogsService_ListActionLogs_AuthorizeDenied(t *testing.T) {
	t.Cleanup(func() { authorizeLoggingFn = defaultAuthorizeLogging })

	actionRepo := &mockActionLogRepo{}
	auditRepo := &mockAuditTrailRepo{}
	svc := NewLogsService(actionRepo, auditRepo)

	authorizeLoggingFn = func(ctx context.Context, action string, opts ...authz.RequestOption) error {
		require.Equal(t, "view", action)
		return errors.New("forbidden")
	}

	_, _, err := svc.ListActionLogs(context.Background(), &actionlog.FindParams{})
	require.Error(t, err)
	require.False(t, actionRepo.calledList, "repository should not be invoked when authorization fails")
}

func TestLogsService_ListAuditTrail_AuthorizeDenied(t *testing.T) {
	t.Cleanup(func() { authorizeLoggingFn = defaultAuthorizeLogging })

	actionRepo := &mockActionLogRepo{}
	auditRepo := &mockAuditTrailRepo{}
	svc := NewLogsService(actionRepo, auditRepo)

	authorizeLoggingFn = func(ctx context.Context, action string, opts ...authz.RequestOption) error {
		require.Equal(t, "view", action)
		return errors.New("forbidden")
	}

	_, _, err := svc.ListAuditTrail(context.Background(), &audittrail.FindParams{})
	require.Error(t, err)
	require.False(t, auditRepo.calledList, "repository should not be invoked when authorization fails")
}

func TestLogsService_ListActionLogs_Authorized(t *testing.T) {
	t.Cleanup(func() { authorizeLoggingFn = defaultAuthorizeLogging })

	actionRepo := &mockActionLogRepo{}
	auditRepo := &mockAuditTrailRepo{}
	svc := NewLogsService(actionRepo, auditRepo)

	authorizeLoggingFn = func(ctx context.Context, action string, opts ...authz.RequestOption) error {
		require.Equal(t, "view", action)
		return nil
	}

	logs, total, err := svc.ListActionLogs(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), total)
	require.Empty(t, logs)
	require.True(t, actionRepo.calledList, "repository should be invoked when authorized")
	require.NotNil(t, actionRepo.lastParams, "params should default to non-nil value")
}

func TestLogsService_ListAuditTrail_Authorized(t *testing.T) {
	t.Cleanup(func() { authorizeLoggingFn = defaultAuthorizeLogging })

	actionRepo := &mockActionLogRepo{}
	auditRepo := &mockAuditTrailRepo{}
	svc := NewLogsService(actionRepo, auditRepo)

	authorizeLoggingFn = func(ctx context.Context, action string, opts ...authz.RequestOption) error {
		require.Equal(t, "view", action)
		return nil
	}

	entries, total, err := svc.ListAuditTrail(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), total)
	require.Empty(t, entries)
	require.True(t, auditRepo.calledList, "repository should be invoked when authorized")
	require.NotNil(t, auditRepo.lastParams, "params should default to non-nil value")
}

func TestLogsService_CreateActionLog_ValidatesInput(t *testing.T) {
	svc := NewLogsService(&mockActionLogRepo{}, &mockAuditTrailRepo{})
	err := svc.CreateActionLog(context.Background(), nil)
	require.Error(t, err)
}

func TestLogsService_ListActionLogs_MissingTenantOrUser(t *testing.T) {
	t.Cleanup(func() { authorizeLoggingFn = defaultAuthorizeLogging })

	actionRepo := &mockActionLogRepo{}
	auditRepo := &mockAuditTrailRepo{}
	svc := NewLogsService(actionRepo, auditRepo)

	// Missing tenant
	_, _, err := svc.ListActionLogs(context.Background(), nil)
	require.Error(t, err)
	require.False(t, actionRepo.calledList)

	// Tenant provided, but no user in context
	ctx := composables.WithTenantID(context.Background(), uuid.New())
	_, _, err = svc.ListActionLogs(ctx, nil)
	require.Error(t, err)
	require.False(t, actionRepo.calledList)
}
