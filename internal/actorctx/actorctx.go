package actorctx

import (
	"context"

	"github.com/reelops/reelops-api/internal/access"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, id access.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (access.Identity, bool) {
	v, ok := ctx.Value(ctxKey{}).(access.Identity)

	return v, ok && v.UserID > 0
}
