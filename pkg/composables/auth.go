package composables

import (
	"context"
	"errors"

	"github.com/caseweave/caseweave/modules/core/domain/aggregates/user"
)

var (
	ErrNoUser    = errors.New("user not found in context")
	ErrForbidden = errors.New("forbidden")
)

type userKey struct{}

// WithUser attaches the acting user to the context.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UseUser returns the acting user resolved by the actor middleware.
func UseUser(ctx context.Context) (user.User, error) {
	u, ok := ctx.Value(userKey{}).(user.User)
	if !ok || u == nil {
		return nil, ErrNoUser
	}
	return u, nil
}
