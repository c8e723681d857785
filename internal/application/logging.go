package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/elearning-platform/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}

// logOutcome writes the standard completion line for a service operation.
// Client-side failures are logged at warn so error level stays meaningful.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, success string) {
	if err == nil {
		logger.InfoContext(ctx, success)
		return
	}
	switch KindOf(err) {
	case KindStore, KindUnexpected:
		logger.ErrorContext(ctx, "operation failed", "error", err, "error_kind", ErrorKind(err))
	default:
		logger.WarnContext(ctx, "operation rejected", "error", err, "error_kind", ErrorKind(err))
	}
}

// ErrorKind maps errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind.String()
	}
	switch {
	case errors.Is(err, ErrNoSession):
		return "no_session"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "unexpected"
}
