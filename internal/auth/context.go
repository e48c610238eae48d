package auth

import (
	"context"

	"github.com/google/uuid"
)

type actorIDKey struct{}

// ContextWithActor stamps the authenticated actor onto the request
// context; engine operations record it as the acting identity.
func ContextWithActor(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, actorIDKey{}, id)
}

func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorIDKey{}).(uuid.UUID)
	return id, ok
}
