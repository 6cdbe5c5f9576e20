package auth

import (
	"context"

	"github.com/xela07ax/hotel-guard/internal/domain"
)

type ctxKey struct{}

func WithActor(ctx context.Context, a *domain.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFromContext возвращает актора, опознанного шлюзом.
func ActorFromContext(ctx context.Context) (*domain.Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(*domain.Actor)
	return a, ok && a != nil
}
