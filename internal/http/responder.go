package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/example/elearning-platform/internal/application"
	"github.com/example/elearning-platform/internal/logging"
)

const msgBadRequestBody = "Requête invalide"

var errBadRequestBody = errors.New(msgBadRequestBody)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError sends {"error": message}. A blank message falls back to the
// generic server error.
func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	if strings.TrimSpace(message) == "" {
		message = application.MsgServerError
	}
	r.writeJSON(ctx, w, status, errorResponse{Error: message})
}

// handleServiceError maps an application error to its status and message.
// Errors without a kind never leak their text.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var appErr *application.Error
	if err == nil || !errors.As(err, &appErr) || appErr.Kind == application.KindUnexpected {
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected failure", "error", err, "error_kind", application.ErrorKind(err))
		r.writeError(ctx, w, http.StatusInternalServerError, application.MsgServerError)
		return
	}
	r.writeError(ctx, w, statusForKind(appErr.Kind), appErr.Message)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusForKind(kind application.Kind) int {
	switch kind {
	case application.KindValidation, application.KindInvalidTransition, application.KindProvider:
		return http.StatusBadRequest
	case application.KindUnauthenticated:
		return http.StatusUnauthorized
	case application.KindForbidden:
		return http.StatusForbidden
	case application.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a request body into dst. An empty body decodes as {}.
func decodeJSON(r *http.Request, dst any, strict bool) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}
