package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/pkg/authz"
	"github.com/caseweave/caseweave/pkg/composables"
)

var authorizeCoreFn = defaultAuthorizeCore

func authorizeCore(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
	return authorizeCoreFn(ctx, object, action, opts...)
}

// defaultAuthorizeCore runs the casbin check for core objects. Requests without
// an acting user (background jobs, seeds) pass through; the actor middleware is
// the place that decides whether anonymous access is acceptable.
func defaultAuthorizeCore(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
	currentUser, err := composables.UseUser(ctx)
	if err != nil || currentUser == nil {
		return nil
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		tenantID = uuid.Nil
	}

	req := authz.NewRequest(
		authz.SubjectForUser(tenantID, currentUser.ID()),
		authz.DomainFromTenant(tenantID),
		object,
		authz.NormalizeAction(action),
		opts...,
	)
	return authz.Use().Authorize(ctx, req)
}
