package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/elearning-platform/internal/application"
	"github.com/example/elearning-platform/internal/metrics"
)

const (
	msgSignUpSucceeded  = "Compte créé avec succès"
	msgSignInSucceeded  = "Connexion réussie"
	msgSignOutSucceeded = "Déconnexion réussie"
)

type authService interface {
	SignUp(ctx context.Context, input application.SignUpInput) (application.SignUpResult, error)
	SignIn(ctx context.Context, input application.SignInInput) (application.SignInResult, error)
	SignOut(ctx context.Context, caller application.Caller) error
	Me(ctx context.Context, caller application.Caller) (application.CurrentUser, error)
}

// AuthHandler serves the /auth endpoints.
type AuthHandler struct {
	service      authService
	responder    responder
	logger       *slog.Logger
	metrics      *metrics.Metrics
	secureCookie bool
}

// AuthHandlerOptions tunes cookie handling and instrumentation.
type AuthHandlerOptions struct {
	SecureCookie bool
	Metrics      *metrics.Metrics
}

func NewAuthHandler(service authService, logger *slog.Logger, opts AuthHandlerOptions) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{
		service:      service,
		responder:    newResponder(base),
		logger:       base,
		metrics:      opts.Metrics,
		secureCookie: opts.SecureCookie,
	}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) record(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = application.ErrorKind(err)
	}
	h.metrics.RecordAuth(operation, outcome)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "SignUp", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode sign-up request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, msgBadRequestBody)
		return
	}
	if errs := fieldErrors(req); errs != nil {
		h.record("signup", application.NewValidationError(application.MsgSignUpFieldsRequired))
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, application.MsgSignUpFieldsRequired)
		return
	}

	result, err := h.service.SignUp(r.Context(), application.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	h.record("signup", err)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, signUpResponse{
		Message: msgSignUpSucceeded,
		User: userDTO{
			ID:       result.Identity.ID,
			Email:    result.Identity.Email,
			FullName: result.Profile.FullName,
		},
	})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "SignIn", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode sign-in request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, msgBadRequestBody)
		return
	}
	if errs := fieldErrors(req); errs != nil {
		h.record("signin", application.NewValidationError(application.MsgSignInFieldsRequired))
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, application.MsgSignInFieldsRequired)
		return
	}

	result, err := h.service.SignIn(r.Context(), application.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	h.record("signin", err)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.setSessionCookie(w, result.Session.AccessToken, result.Session.ExpiresAt)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, signInResponse{
		Message: msgSignInSucceeded,
		User: userDTO{
			ID:       result.Session.UserID,
			Email:    result.Session.Email,
			FullName: result.Profile.FullName,
			Role:     string(result.Profile.Role),
		},
		Session: sessionDTO{
			AccessToken: result.Session.AccessToken,
			ExpiresAt:   formatTime(result.Session.ExpiresAt),
		},
	})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	err := h.service.SignOut(r.Context(), callerFrom(r))
	h.record("signout", err)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.clearSessionCookie(w)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: msgSignOutSucceeded})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), callerFrom(r))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	createdAt := formatTime(user.Profile.CreatedAt)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meResponse{
		User: userDTO{
			ID:        user.Profile.ID,
			Email:     user.Email,
			FullName:  user.Profile.FullName,
			Role:      string(user.Profile.Role),
			CreatedAt: &createdAt,
		},
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signUpResponse struct {
	Message string  `json:"message"`
	User    userDTO `json:"user"`
}

type signInResponse struct {
	Message string     `json:"message"`
	User    userDTO    `json:"user"`
	Session sessionDTO `json:"session"`
}

type meResponse struct {
	User userDTO `json:"user"`
}
