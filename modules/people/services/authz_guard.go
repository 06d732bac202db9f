package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/pkg/authz"
	"github.com/caseweave/caseweave/pkg/composables"
)

var personsAuthzObject = authz.ObjectName("people", "persons")

var authorizePeopleFn = defaultAuthorizePeople

func authorizePeople(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
	return authorizePeopleFn(ctx, object, action, opts...)
}

func defaultAuthorizePeople(ctx context.Context, object, action string, opts ...authz.RequestOption) error {
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
