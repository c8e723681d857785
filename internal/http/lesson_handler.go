package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/elearning-platform/internal/application"
)

const msgLessonCreated = "Leçon créée avec succès"

type lessonService interface {
	List(ctx context.Context, courseID string) ([]application.Lesson, error)
	Create(ctx context.Context, caller application.Caller, courseID string, input application.LessonInput) (application.Lesson, error)
}

// LessonHandler serves the lessons nested under a course.
type LessonHandler struct {
	service   lessonService
	responder responder
	logger    *slog.Logger
}

// NewLessonHandler falls back to slog.Default when logger is nil.
func NewLessonHandler(service lessonService, logger *slog.Logger) *LessonHandler {
	base := defaultLogger(logger)
	return &LessonHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.service.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lessonListResponse{Lessons: toLessonDTOs(lessons)})
}

func (h *LessonHandler) Create(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	var req lessonRequest
	if err := decodeJSON(r, &req, false); err != nil {
		handlerLogger(r.Context(), h.logger, "LessonHandler", "Create", "course_id", courseID).WarnContext(r.Context(), "failed to decode lesson request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, msgBadRequestBody)
		return
	}
	if errs := fieldErrors(req); errs != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, application.MsgLessonFieldsRequired)
		return
	}

	lesson, err := h.service.Create(r.Context(), callerFrom(r), courseID, application.LessonInput{
		Title:      req.Title,
		Content:    req.Content,
		VideoURL:   req.VideoURL,
		PDFURL:     req.PDFURL,
		OrderIndex: req.OrderIndex,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, lessonResponse{
		Message: msgLessonCreated,
		Lesson:  toLessonDTO(lesson),
	})
}

type lessonRequest struct {
	Title      string  `json:"title" validate:"required"`
	Content    string  `json:"content" validate:"required"`
	VideoURL   *string `json:"video_url"`
	PDFURL     *string `json:"pdf_url"`
	OrderIndex *int    `json:"order_index"`
}

type lessonListResponse struct {
	Lessons []lessonDTO `json:"lessons"`
}

type lessonResponse struct {
	Message string    `json:"message"`
	Lesson  lessonDTO `json:"lesson"`
}
