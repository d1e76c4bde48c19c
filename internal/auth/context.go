package auth

import "context"

type requestContextKey struct{}

// ContextWithRequest attaches the resolved request context to ctx.
func ContextWithRequest(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// RequestFromContext extracts the request context attached by the authn
// middleware. When absent it returns an anonymous context with the default
// locale so downstream checks still fail closed.
func RequestFromContext(ctx context.Context) RequestContext {
	if ctx == nil {
		return RequestContext{Locale: DefaultLocale}
	}
	if rc, ok := ctx.Value(requestContextKey{}).(RequestContext); ok {
		return rc
	}
	return RequestContext{Locale: DefaultLocale}
}
