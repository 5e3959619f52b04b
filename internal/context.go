package internal

import (
	"context"
	"time"

	"github.com/frahmantamala/fault-tracker/internal/core/actor"
)

type ctxKey string

const ContextActorKey ctxKey = "actor"

// ActorFromContext returns the actor resolved by the auth middleware.
func ActorFromContext(ctx context.Context) (actor.Actor, bool) {
	if ctx == nil {
		return actor.Actor{}, false
	}
	a, ok := ctx.Value(ContextActorKey).(actor.Actor)
	return a, ok
}

func ContextWithActor(ctx context.Context, a actor.Actor) context.Context {
	return context.WithValue(ctx, ContextActorKey, a)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
