package access

import "context"

type callerContextKey struct{}
type sessionContextKey struct{}

// ContextWithCaller attaches the authenticated caller to the context.
func ContextWithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, &caller)
}

// CallerFromContext extracts the authenticated caller from the context.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	v, ok := ctx.Value(callerContextKey{}).(*Caller)
	if !ok || v == nil {
		return Caller{}, false
	}
	return *v, true
}

// ContextWithSessionID stores the server-side session identifier so
// downstream middleware can record activity against it.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey{}, id)
}

// SessionIDFromContext returns the session identifier if it was attached.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(sessionContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
