package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NextOrderIndex returns the index that follows last, or 1 for a course
// without lessons.
func NextOrderIndex(last *int) int {
	if last == nil {
		return 1
	}
	return *last + 1
}

// LessonService lists and creates the lessons of a course.
type LessonService struct {
	lessons LessonRepository
	policy  *Policy
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
}

// NewLessonService constructs a LessonService with the default logger.
func NewLessonService(lessons LessonRepository, policy *Policy, now func() time.Time, newID func() string) *LessonService {
	return NewLessonServiceWithLogger(lessons, policy, now, newID, nil)
}

// NewLessonServiceWithLogger constructs a LessonService with a specified logger.
func NewLessonServiceWithLogger(lessons LessonRepository, policy *Policy, now func() time.Time, newID func() string, logger *slog.Logger) *LessonService {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &LessonService{
		lessons: lessons,
		policy:  policy,
		now:     now,
		newID:   newID,
		logger:  defaultLogger(logger),
	}
}

func (s *LessonService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "LessonService", operation, attrs...)
}

// List returns the lessons of a course in order_index order.
func (s *LessonService) List(ctx context.Context, courseID string) (lessons []Lesson, err error) {
	if s == nil || s.lessons == nil {
		err = unexpected("LessonService not configured")
		return
	}

	logger := s.loggerWith(ctx, "List", "course_id", courseID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "")
		}
	}()

	lessons, err = s.lessons.ListLessons(ctx, courseID)
	if err != nil {
		err = storeError(err)
		lessons = nil
		return
	}
	sortLessons(lessons)
	if lessons == nil {
		lessons = []Lesson{}
	}
	return
}

// Create adds a lesson to a course. Without an explicit order index the
// lesson goes after the current last one.
func (s *LessonService) Create(ctx context.Context, caller Caller, courseID string, input LessonInput) (lesson Lesson, err error) {
	if s == nil || s.lessons == nil || s.policy == nil {
		err = unexpected("LessonService not configured")
		return
	}

	title := strings.TrimSpace(input.Title)
	logger := s.loggerWith(ctx, "Create", "course_id", courseID, "title", title)
	defer func() {
		logOutcome(ctx, logger.With("lesson_id", lesson.ID, "order_index", lesson.OrderIndex), err, "lesson created")
	}()

	if title == "" || strings.TrimSpace(input.Content) == "" {
		err = NewValidationError(MsgLessonFieldsRequired)
		return
	}

	if _, err = s.policy.Authorize(ctx, caller, ResourceLesson, ActionCreate); err != nil {
		return
	}

	draft := Lesson{
		ID:        s.newID(),
		CourseID:  courseID,
		Title:     title,
		Content:   input.Content,
		VideoURL:  input.VideoURL,
		PDFURL:    input.PDFURL,
		CreatedAt: s.now(),
	}

	if input.OrderIndex != nil {
		draft.OrderIndex = *input.OrderIndex
		lesson, err = s.lessons.CreateLesson(ctx, draft)
	} else {
		lesson, err = s.lessons.CreateLessonAfterLast(ctx, draft, NextOrderIndex)
	}
	if err != nil {
		lesson = Lesson{}
		if errors.Is(err, ErrNotFound) {
			err = notFound(MsgCourseNotFound, err)
			return
		}
		err = storeError(err)
	}
	return
}
