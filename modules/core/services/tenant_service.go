package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/modules/core/domain/entities/tenant"
	"github.com/caseweave/caseweave/pkg/composables"
)

type TenantService struct {
	repo tenant.Repository
}

func NewTenantService(repo tenant.Repository) *TenantService {
	return &TenantService{repo: repo}
}

func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByDomain resolves the tenant serving the given request host. It runs
// before any tenant is attached to the context, so it must not require one.
func (s *TenantService) GetByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	return s.repo.GetByDomain(ctx, domain)
}

func (s *TenantService) List(ctx context.Context) ([]*tenant.Tenant, error) {
	return s.repo.List(ctx)
}

func (s *TenantService) Create(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	var created *tenant.Tenant
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var txErr error
		created, txErr = s.repo.Create(txCtx, t)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TenantService) Update(ctx context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	var updated *tenant.Tenant
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		var txErr error
		updated, txErr = s.repo.Update(txCtx, t)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
