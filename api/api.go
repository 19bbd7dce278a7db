// Package api holds the HTTP middleware shared by every route: authentication,
// request logging and timeouts.
package api

import (
	"context"

	"github.com/jai-platform/jai-api/services"
)

type contextKey int

const (
	actorKey contextKey = iota
	requestIDKey
)

// WithActor returns a copy of ctx carrying the authenticated actor
func WithActor(ctx context.Context, actor services.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the authenticated actor stored by the auth middleware
func ActorFrom(ctx context.Context) (services.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(services.Actor)
	return actor, ok
}

// RequestIDFrom returns the id assigned by LoggingMiddleware
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
