package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/pkg/authz"
	"github.com/caseweave/caseweave/pkg/composables"
)

var reportsAuthzObject = authz.ObjectName("intake", "reports")

var authorizeIntakeFn = defaultAuthorizeIntake

func authorizeIntake(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
	return authorizeIntakeFn(ctx, object, action, opts...)
}

func defaultAuthorizeIntake(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
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
