package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/elearning-platform/internal/application"
)

const msgCategoryCreated = "Catégorie créée avec succès"

type categoryService interface {
	List(ctx context.Context) ([]application.Category, error)
	Create(ctx context.Context, caller application.Caller, input application.CategoryInput) (application.Category, error)
}

// CategoryHandler lists categories and lets admins add them.
type CategoryHandler struct {
	service   categoryService
	responder responder
	logger    *slog.Logger
}

func NewCategoryHandler(service categoryService, logger *slog.Logger) *CategoryHandler {
	base := defaultLogger(logger)
	return &CategoryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, categoryListResponse{Categories: toCategoryDTOs(categories)})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req, false); err != nil {
		handlerLogger(r.Context(), h.logger, "CategoryHandler", "Create").WarnContext(r.Context(), "failed to decode category request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, msgBadRequestBody)
		return
	}
	if errs := fieldErrors(req); errs != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, application.MsgCategoryNameRequired)
		return
	}

	category, err := h.service.Create(r.Context(), callerFrom(r), application.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, categoryResponse{
		Message:  msgCategoryCreated,
		Category: toCategoryDTO(category),
	})
}

type categoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

type categoryListResponse struct {
	Categories []categoryDTO `json:"categories"`
}

type categoryResponse struct {
	Message  string      `json:"message"`
	Category categoryDTO `json:"category"`
}
