package http

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/example/elearning-platform/internal/application"
	"github.com/example/elearning-platform/internal/logging"
	"github.com/example/elearning-platform/internal/metrics"
)

type routeGuard interface {
	Evaluate(ctx context.Context, path string, caller application.Caller) application.GuardDecision
}

type accessPolicy interface {
	Authorize(ctx context.Context, caller application.Caller, resource, action string) (application.Session, error)
}

// RequireRole answers 401 or 403 before the body is read when the caller may
// not perform action on resource. The service behind the route checks again.
func RequireRole(policy accessPolicy, resource, action string, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		if policy == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := policy.Authorize(r.Context(), callerFrom(r), resource, action); err != nil {
				responder.handleServiceError(r.Context(), w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithCaller resolves the session token once per request and stores the caller.
func WithCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ContextWithCaller(r.Context(), application.Caller{Token: extractTokenFromRequest(r)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger attaches a request-scoped logger to the context. It expects
// chi's RequestID middleware to run first.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"request_id", chimiddleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := logging.ContextWithLogger(r.Context(), logger)
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// Recoverer turns a panic into a 500 with the generic error body.
func Recoverer(base *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "panic recovered",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				responder.writeError(r.Context(), w, http.StatusInternalServerError, application.MsgServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Instrument records request counts and latency labelled by chi route pattern.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTP(r.Method, route, status, time.Since(start))
		})
	}
}

// GuardConfig configures the page-area guard.
type GuardConfig struct {
	Guard     routeGuard
	LoginPath string
	HomePath  string
	Metrics   *metrics.Metrics
}

// Guard redirects requests the route guard refuses. Unguarded paths are
// passed through without a session lookup.
func Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	homePath := cfg.HomePath
	if homePath == "" {
		homePath = "/"
	}

	return func(next http.Handler) http.Handler {
		if cfg.Guard == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := cfg.Guard.Evaluate(r.Context(), r.URL.Path, callerFrom(r))
			if decision.Area != "" {
				cfg.Metrics.RecordGuard(decision.Area, decision.Outcome.String())
			}

			switch decision.Outcome {
			case application.GuardRedirectLogin:
				http.Redirect(w, r, loginPath, http.StatusTemporaryRedirect)
			case application.GuardRedirectHome:
				http.Redirect(w, r, homePath, http.StatusTemporaryRedirect)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
