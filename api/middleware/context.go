package middleware

import "context"

type contextKey string

const (
	ctxSiteID contextKey = "site_id"
	ctxActor  contextKey = "actor"
)

func SiteIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSiteID).(string); ok {
		return v
	}
	return ""
}

func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActor).(string); ok {
		return v
	}
	return ""
}

// WithSiteID injects the site identifier into the context for downstream handlers.
func WithSiteID(ctx context.Context, siteID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSiteID, siteID)
}

func WithActor(ctx context.Context, actor string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}
