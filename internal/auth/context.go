package auth

import "context"

type actorKey struct{}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// ActorLabel is the audit-trail representation of the current actor, falling
// back to "system" for internal callers (cron, migrations).
func ActorLabel(ctx context.Context) string {
	if a, ok := ActorFromContext(ctx); ok {
		return a.String()
	}
	return "system"
}
