package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CtxKey string

// KeyIdentity is where the authorization middleware stores the caller's
// Identity, both in the gin context and in the request context.
const KeyIdentity CtxKey = "Identity"

// Identity is the resolved caller of a protected request. Role is read from
// the store on every request, never from the token.
type Identity struct {
	ID    primitive.ObjectID
	Email string
	Role  string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, KeyIdentity, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(KeyIdentity).(Identity)
	if !ok || id.ID.IsZero() {
		return Identity{}, false
	}
	return id, true
}
