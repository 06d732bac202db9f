package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/pkg/composables"
)

func TestAuditService_BuildEntryDiffsSnapshots(t *testing.T) {
	svc := NewAuditService(&mockAuditTrailRepo{}, nil)
	tenantID := uuid.New()
	entityID := uuid.New()
	ctx := composables.WithTenantID(context.Background(), tenantID)

	before := map[string]any{"title": "Warehouse shrinkage", "stage": "TRIAGE"}
	after := map[string]any{"title": "Warehouse shrinkage", "stage": "INVESTIGATION"}

	entry, err := svc.buildEntry(ctx, "case.updated", "case", entityID, before, after)
	require.NoError(t, err)
	require.Equal(t, tenantID, entry.TenantID)
	require.Equal(t, uuid.Nil, entry.UserID, "no actor in context means a system write")
	require.Equal(t, "case.updated", entry.Action)
	require.Equal(t, entityID, entry.EntityID)

	var patch []map[string]any
	require.NoError(t, json.Unmarshal(entry.Patch, &patch))
	require.Len(t, patch, 1)
	require.Equal(t, "replace", patch[0]["op"])
	require.Equal(t, "/stage", patch[0]["path"])
	require.Equal(t, "INVESTIGATION", patch[0]["value"])
}

func TestAuditService_BuildEntrySkipsPatchWithoutBefore(t *testing.T) {
	svc := NewAuditService(&mockAuditTrailRepo{}, nil)
	ctx := composables.WithTenantID(context.Background(), uuid.New())

	entry, err := svc.buildEntry(ctx, "case.created", "case", uuid.New(), nil, map[string]any{"title": "New case"})
	require.NoError(t, err)
	require.Nil(t, entry.Before)
	require.NotNil(t, entry.After)
	require.Nil(t, entry.Patch)
}

func TestAuditService_RecordToleratesNilDependencies(t *testing.T) {
	var svc *AuditService
	svc.Record(context.Background(), "case.created", "case", uuid.New(), nil, nil)

	NewAuditService(nil, nil).Record(context.Background(), "case.created", "case", uuid.New(), nil, nil)
}
