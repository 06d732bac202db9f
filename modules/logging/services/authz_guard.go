package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/pkg/authz"
	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/serrors"
)

var logsAuthzObject = authz.ObjectName("logging", "logs")

var authorizeLoggingFn = defaultAuthorizeLogging

func authorizeLogging(ctx context.Context, action string, opts ...authz.RequestOption) error {
	return authorizeLoggingFn(ctx, action, opts...)
}

func defaultAuthorizeLogging(ctx context.Context, action string, opts ...authz.RequestOption) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return serrors.NewError("AUTHZ_FORBIDDEN", "tenant not found", "Authorization.PermissionDenied")
	}

	currentUser, err := composables.UseUser(ctx)
	if err != nil || currentUser == nil {
		return serrors.NewError("AUTHZ_FORBIDDEN", "permission denied", "Authorization.PermissionDenied")
	}

	req := authz.NewRequest(
		authz.SubjectForUser(tenantID, currentUser.ID()),
		authz.DomainFromTenant(tenantID),
		logsAuthzObject,
		authz.NormalizeAction(action),
		opts...,
	)
	return authz.Use().Authorize(ctx, req)
}

// tenantOrNil is shared by the audit writer, which must never fail just
// because the request context is incomplete.
func tenantOrNil(ctx context.Context) uuid.UUID {
	id, err := composables.UseTenantID(ctx)
	if err != nil {
		return uuid.Nil
	}
	return id
}
