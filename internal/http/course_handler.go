package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/elearning-platform/internal/application"
	"github.com/example/elearning-platform/internal/metrics"
)

const (
	msgCourseCreated     = "Cours créé avec succès"
	msgCourseUpdated     = "Cours mis à jour avec succès"
	msgCourseDeleted     = "Cours supprimé avec succès"
	msgCoursePublished   = "Cours publié avec succès"
	msgCourseUnpublished = "Cours dépublié avec succès"
)

type courseService interface {
	List(ctx context.Context, filter application.CourseFilter) ([]application.Course, error)
	Get(ctx context.Context, id string) (application.Course, error)
	Create(ctx context.Context, caller application.Caller, input application.CourseInput) (application.Course, error)
	Update(ctx context.Context, caller application.Caller, id string, patch application.CoursePatch) (application.Course, error)
	Delete(ctx context.Context, caller application.Caller, id string) error
	SetPublished(ctx context.Context, caller application.Caller, id string, published bool) (application.PublishResult, error)
}

// CourseHandler serves the course catalogue and its admin mutations.
type CourseHandler struct {
	service   courseService
	responder responder
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewCourseHandler records publish outcomes on m when it is non-nil.
func NewCourseHandler(service courseService, logger *slog.Logger, m *metrics.Metrics) *CourseHandler {
	base := defaultLogger(logger)
	return &CourseHandler{service: service, responder: newResponder(base), logger: base, metrics: m}
}

func (h *CourseHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "CourseHandler", operation, attrs...)
}

// List accepts category_id, published_only=true and search query parameters.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := application.CourseFilter{
		CategoryID:    strings.TrimSpace(query.Get("category_id")),
		PublishedOnly: query.Get("published_only") == "true",
		Search:        strings.TrimSpace(query.Get("search")),
	}

	courses, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, courseListResponse{Courses: toCourseDTOs(courses)})
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, courseDetailResponse{Course: toCourseDetailDTO(course)})
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode course request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, msgBadRequestBody)
		return
	}
	if errs := fieldErrors(req); errs != nil {
		message := application.MsgCourseFieldsRequired
		if !hasTag(errs, "required") && hasTag(errs, "min") {
			message = application.MsgNegativePrice
		}
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, message)
		return
	}

	course, err := h.service.Create(r.Context(), callerFrom(r), application.CourseInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Duration:    req.Duration,
		Level:       req.Level,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, courseResponse{Message: msgCourseCreated, Course: toCourseDTO(course)})
}

// Update decodes strictly: fields outside the patch, is_published included,
// are rejected.
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req coursePatchRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.log(r.Context(), "Update", "course_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode course patch", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, msgBadRequestBody)
		return
	}

	course, err := h.service.Update(r.Context(), callerFrom(r), id, application.CoursePatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Duration:    req.Duration,
		Level:       req.Level,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, courseResponse{Message: msgCourseUpdated, Course: toCourseDTO(course)})
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), callerFrom(r), chi.URLParam(r, "id")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: msgCourseDeleted})
}

// SetPublished requires is_published to be a JSON boolean; any other value is
// refused before the service runs.
func (h *CourseHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req publishRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.log(r.Context(), "SetPublished", "course_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode publish request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, msgBadRequestBody)
		return
	}
	published, ok := req.IsPublished.(bool)
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, application.MsgPublishedNotBoolean)
		return
	}

	result, err := h.service.SetPublished(r.Context(), callerFrom(r), id, published)
	if err != nil {
		h.metrics.RecordPublish(published, application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.metrics.RecordPublish(published, "success")

	message := msgCourseUnpublished
	if published {
		message = msgCoursePublished
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, publishResponse{Message: message, Course: toPublishDTO(result)})
}

type courseRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       *float64 `json:"price" validate:"required,min=0"`
	Duration    *string  `json:"duration"`
	Level       *string  `json:"level"`
	ImageURL    *string  `json:"image_url"`
	CategoryID  *string  `json:"category_id"`
}

type coursePatchRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Duration    *string  `json:"duration"`
	Level       *string  `json:"level"`
	ImageURL    *string  `json:"image_url"`
	CategoryID  *string  `json:"category_id"`
}

type publishRequest struct {
	IsPublished any `json:"is_published"`
}

type courseListResponse struct {
	Courses []courseDTO `json:"courses"`
}

type courseDetailResponse struct {
	Course courseDetailDTO `json:"course"`
}

type courseResponse struct {
	Message string    `json:"message"`
	Course  courseDTO `json:"course"`
}

type publishResponse struct {
	Message string     `json:"message"`
	Course  publishDTO `json:"course"`
}
