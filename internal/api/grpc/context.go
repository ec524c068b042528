package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hireflow/internal/domain"
)

type actorKey struct{}

// ContextWithActor stores the authenticated caller for the handlers.
func ContextWithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the caller placed by the auth interceptor.
func ActorFromContext(ctx context.Context) (domain.Actor, error) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	if !ok || actor.ID == "" {
		return domain.Actor{}, status.Error(codes.Unauthenticated, "caller identity is not available")
	}
	return actor, nil
}
