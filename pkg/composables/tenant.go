package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNoTenant = errors.New("tenant not found in context")
)

// Tenant is the request-scoped tenant descriptor resolved by middleware.
type Tenant struct {
	ID     uuid.UUID
	Name   string
	Domain string
}

type tenantKey struct{}
type tenantIDKey struct{}

func WithTenant(ctx context.Context, t *Tenant) context.Context {
	ctx = context.WithValue(ctx, tenantKey{}, t)
	return context.WithValue(ctx, tenantIDKey{}, t.ID)
}

func UseTenant(ctx context.Context) (*Tenant, error) {
	t, ok := ctx.Value(tenantKey{}).(*Tenant)
	if !ok {
		return nil, ErrNoTenant
	}
	return t, nil
}

// WithTenantID attaches just the tenant identifier, for paths (jobs, CLIs)
// that have no full tenant record at hand.
func WithTenantID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantIDKey{}, id)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(tenantIDKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoTenant
	}
	return id, nil
}
