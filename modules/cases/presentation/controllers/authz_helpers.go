package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/caseweave/caseweave/pkg/authz"
	"github.com/caseweave/caseweave/pkg/composables"
)

var (
	casesObject        = authz.ObjectName("cases", "cases")
	associationsObject = authz.ObjectName("cases", "associations")
	mergesObject       = authz.ObjectName("cases", "merges")
	patternsObject     = authz.ObjectName("cases", "patterns")
)

// ensureCasesAuthz authenticates and authorizes the acting user for cases
// objects, writing the JSON error itself when the request may not proceed.
func ensureCasesAuthz(
	w http.ResponseWriter,
	r *http.Request,
	object,
	action string,
	opts ...authz.RequestOption,
) bool {
	currentUser, err := composables.UseUser(r.Context())
	if err != nil || currentUser == nil {
		writeAPIError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "authentication required")
		return false
	}

	tenantID, err := composables.UseTenantID(r.Context())
	if err != nil {
		tenantID = uuid.Nil
	}

	svc := authz.Use()
	req := authz.NewRequest(
		authz.SubjectForUser(tenantID, currentUser.ID()),
		authz.DomainFromTenant(tenantID),
		object,
		authz.NormalizeAction(action),
		opts...,
	)

	allowed, authzErr := enforceRequest(r.Context(), svc, req, svc.Mode())
	if authzErr != nil || !allowed {
		writeAPIError(w, r, http.StatusForbidden, "FORBIDDEN", "access denied")
		return false
	}
	return true
}

func enforceRequest(ctx context.Context, svc *authz.Service, req authz.Request, mode authz.Mode) (bool, error) {
	if svc == nil {
		return true, nil
	}
	if err := svc.Authorize(ctx, req); err != nil {
		return false, err
	}

	switch mode {
	case authz.ModeDisabled, authz.ModeEnforce:
		return true, nil
	default:
		allowed, err := svc.Check(ctx, req)
		if err != nil {
			return false, err
		}
		return allowed, nil
	}
}
