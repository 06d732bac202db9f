package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/caseweave/caseweave/pkg/composables"
	"github.com/caseweave/caseweave/pkg/serrors"
)

func TestAuthorizeLogging_ReturnsForbiddenWhenTenantMissing(t *testing.T) {
	err := authorizeLogging(context.Background(), "view")
	require.Error(t, err)

	var serr *serrors.BaseError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, "AUTHZ_FORBIDDEN", serr.Code)
}

func TestAuthorizeLogging_ReturnsForbiddenWhenUserMissing(t *testing.T) {
	ctx := composables.WithTenantID(context.Background(), uuid.New())

	err := authorizeLogging(ctx, "view")
	require.Error(t, err)

	var serr *serrors.BaseError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, "AUTHZ_FORBIDDEN", serr.Code)
}
