package shared

import "context"

type contextKey int

const actorContextKey contextKey = iota

// ContextWithActor stores the authenticated caller id in the context.
// Authentication itself happens upstream; the services only receive the
// already-verified identity.
func ContextWithActor(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, actorContextKey, actorID)
}

// ActorFromContext returns the authenticated caller id, or 0 when absent.
func ActorFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(actorContextKey).(int64); ok {
		return id
	}
	return 0
}
