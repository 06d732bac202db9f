package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/modules/logging/domain/entities/actionlog"
	"github.com/caseweave/caseweave/modules/logging/domain/entities/audittrail"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/constants"
)

func TestActionLogRepository_List_UsesTenantAndMapsRows(t *testing.T) {
	tenantID := uuid.New()
	now := time.Now()

	userID := uuid.New().String()
	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "FROM action_logs")
			require.Equal(t, tenantID, args[0])
			before := json.RawMessage(`{"from":"a"}`)
			after := json.RawMessage(`{"to":"b"}`)
			return &stubRows{data: [][]any{
				{int64(7), tenantID.String(), &userID, "GET", "/api/v1/cases", before, after, "ua", "1.1.1.1", now},
			}}, nil
		},
	}

	ctx := context.WithValue(composables.WithTenantID(context.Background(), tenantID), constants.TxKey, tx)
	repo := NewActionLogRepository()

	result, err := repo.List(ctx, &actionlog.FindParams{Limit: 5})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, tenantID, result[0].TenantID)
	require.Equal(t, "GET", result[0].Method)
	require.Equal(t, "/api/v1/cases", result[0].Path)
	require.Equal(t, userID, result[0].UserID.String())
	require.Equal(t, now, result[0].CreatedAt)
}

func TestActionLogRepository_Count_UsesTenantFilter(t *testing.T) {
	tenantID := uuid.New()

	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "action_logs")
			require.Equal(t, tenantID, args[0])
			return stubRow{
				scan: func(dest ...any) error {
					*dest[0].(*int64) = 8
					return nil
				},
			}
		},
	}

	ctx := context.WithValue(composables.WithTenantID(context.Background(), tenantID), constants.TxKey, tx)
	repo := NewActionLogRepository()

	count, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, int64(8), count)
}

func TestActionLogRepository_Create_FillsTenantAndTimestamp(t *testing.T) {
	tenantID := uuid.New()
	tx := &stubTx{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			require.Contains(t, sql, "INSERT INTO action_logs")
			require.Equal(t, tenantID.String(), args[0])
			require.Equal(t, "POST", args[1])
			require.Equal(t, "/api/v1/cases", args[2])
			require.IsType(t, time.Time{}, args[8])
			createdAt := args[8].(time.Time)

			return stubRow{
				scan: func(dest ...any) error {
					require.Len(t, dest, 2)
					*dest[0].(*int64) = 55
					*dest[1].(*time.Time) = createdAt
					return nil
				},
			}
		},
	}

	ctx := context.WithValue(composables.WithTenantID(context.Background(), tenantID), constants.TxKey, tx)
	repo := NewActionLogRepository()

	logEntry := &actionlog.ActionLog{
		Method:    "POST",
		Path:      "/api/v1/cases",
		UserAgent: "ua",
		IP:        "1.1.1.1",
	}
	err := repo.Create(ctx, logEntry)
	require.NoError(t, err)
	require.Equal(t, tenantID, logEntry.TenantID)
	require.NotZero(t, logEntry.CreatedAt)
}

func TestAuditTrailRepository_List_UsesTenantAndMapsRows(t *testing.T) {
	tenantID := uuid.New()
	entryID := uuid.New()
	userID := uuid.New()
	entityID := uuid.New()
	now := time.Now()

	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "FROM audit_trail")
			require.Equal(t, tenantID, args[0])
			before := json.RawMessage(`{"stage":"TRIAGE"}`)
			after := json.RawMessage(`{"stage":"INVESTIGATION"}`)
			patch := json.RawMessage(`[{"op":"replace","path":"/stage","value":"INVESTIGATION"}]`)
			return &stubRows{data: [][]any{
				{entryID.String(), tenantID.String(), userID.String(), "case.updated", "case", entityID.String(), before, after, patch, now},
			}}, nil
		},
	}

	ctx := context.WithValue(composables.WithTenantID(context.Background(), tenantID), constants.TxKey, tx)
	repo := NewAuditTrailRepository()

	result, err := repo.List(ctx, &audittrail.FindParams{Limit: 5})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, entryID, result[0].ID)
	require.Equal(t, tenantID, result[0].TenantID)
	require.Equal(t, userID, result[0].UserID)
	require.Equal(t, "case.updated", result[0].Action)
	require.Equal(t, entityID, result[0].EntityID)
	require.JSONEq(t, `[{"op":"replace","path":"/stage","value":"INVESTIGATION"}]`, string(result[0].Patch))
}

func TestAuditTrailRepository_Create_FillsIDTenantAndTimestamp(t *testing.T) {
	tenantID := uuid.New()
	execCalled := false
	tx := &stubTx{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			execCalled = true
			require.Contains(t, sql, "INSERT INTO audit_trail")
			require.NotEmpty(t, args[0])
			require.Equal(t, tenantID.String(), args[1])
			require.Equal(t, "case.merged", args[3])
			require.Equal(t, "case", args[4])
			return pgconn.CommandTag{}, nil
		},
	}

	ctx := context.WithValue(composables.WithTenantID(context.Background(), tenantID), constants.TxKey, tx)
	repo := NewAuditTrailRepository()

	entry := &audittrail.Entry{
		Action:     "case.merged",
		EntityType: "case",
		EntityID:   uuid.New(),
	}
	err := repo.Create(ctx, entry)
	require.NoError(t, err)
	require.True(t, execCalled)
	require.NotEqual(t, uuid.Nil, entry.ID)
	require.Equal(t, tenantID, entry.TenantID)
	require.NotZero(t, entry.CreatedAt)
}

type stubTx struct {
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("copy not implemented")
}

func (s *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	var results pgx.BatchResults
	return results
}

func (s *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if s.execFunc == nil {
		return pgconn.CommandTag{}, nil
	}
	return s.execFunc(ctx, sql, arguments...)
}

func (s *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if s.queryFunc == nil {
		return nil, errors.New("query not implemented")
	}
	return s.queryFunc(ctx, sql, args...)
}

func (s *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if s.queryRowFunc == nil {
		return stubRow{scan: func(dest ...any) error { return errors.New("query row not implemented") }}
	}
	return s.queryRowFunc(ctx, sql, args...)
}

type stubRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.data) {
		return errors.New("no current row to scan")
	}
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("destination length %d does not match row length %d", len(dest), len(row))
	}
	for i, target := range dest {
		switch v := target.(type) {
		case *int64:
			*v = row[i].(int64)
		case *uuid.UUID:
			*v = row[i].(uuid.UUID)
		case *string:
			*v = row[i].(string)
		case **string:
			*v = row[i].(*string)
		case *time.Time:
			*v = row[i].(time.Time)
		case *json.RawMessage:
			raw := row[i].(json.RawMessage)
			*v = raw
		case *[]byte:
			switch val := row[i].(type) {
			case []byte:
				*v = val
			case json.RawMessage:
				*v = []byte(val)
			default:
				return fmt.Errorf("unsupported []byte source %T", row[i])
			}
		default:
			return fmt.Errorf("unsupported scan target %T", target)
		}
	}
	return nil
}

func (r *stubRows) Values() ([]any, error) {
	if r.idx == 0 || r.idx > len(r.data) {
		return nil, errors.New("no current row")
	}
	return r.data[r.idx-1], nil
}

func (r *stubRows) RawValues() [][]byte { return nil }
func (r *stubRows) Err() error          { return r.err }
func (r *stubRows) Close()              {}
func (r *stubRows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag{}
}
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return errors.New("scan not implemented")
	}
	return r.scan(dest...)
}
