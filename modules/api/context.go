package api

import (
	"context"

	"github.com/google/uuid"
)

type userCtxKey struct{}

type userIdentity struct {
	ID   uuid.UUID
	Role string
}

func setUserToContext(ctx context.Context, u userIdentity) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

func userFromContext(ctx context.Context) (userIdentity, bool) {
	u, ok := ctx.Value(userCtxKey{}).(userIdentity)
	return u, ok
}
