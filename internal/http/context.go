package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/example/elearning-platform/internal/application"
)

const sessionCookieName = "session_token"

type contextKey string

const callerContextKey contextKey = "caller"

// ContextWithCaller returns a derived context carrying the request's caller.
func ContextWithCaller(ctx context.Context, caller application.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext returns the caller stored by WithCaller, or the zero
// Caller when there is none.
func CallerFromContext(ctx context.Context) application.Caller {
	caller, _ := ctx.Value(callerContextKey).(application.Caller)
	return caller
}

// callerFrom prefers the caller resolved by middleware and falls back to
// reading the token off the request.
func callerFrom(r *http.Request) application.Caller {
	if caller, ok := r.Context().Value(callerContextKey).(application.Caller); ok {
		return caller
	}
	return application.Caller{Token: extractTokenFromRequest(r)}
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(header, prefix))
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
