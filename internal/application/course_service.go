package application

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CourseService manages the course catalogue.
type CourseService struct {
	courses CourseRepository
	lessons LessonRepository
	policy  *Policy
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
}

// NewCourseService constructs a CourseService with the default logger.
func NewCourseService(courses CourseRepository, lessons LessonRepository, policy *Policy, now func() time.Time, newID func() string) *CourseService {
	return NewCourseServiceWithLogger(courses, lessons, policy, now, newID, nil)
}

// NewCourseServiceWithLogger constructs a CourseService with a specified logger.
func NewCourseServiceWithLogger(courses CourseRepository, lessons LessonRepository, policy *Policy, now func() time.Time, newID func() string, logger *slog.Logger) *CourseService {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &CourseService{
		courses: courses,
		lessons: lessons,
		policy:  policy,
		now:     now,
		newID:   newID,
		logger:  defaultLogger(logger),
	}
}

func (s *CourseService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CourseService", operation, attrs...)
}

func (s *CourseService) configured() bool {
	return s != nil && s.courses != nil && s.lessons != nil && s.policy != nil
}

// List returns courses matching filter, newest first.
func (s *CourseService) List(ctx context.Context, filter CourseFilter) (courses []Course, err error) {
	if !s.configured() {
		err = unexpected("CourseService not configured")
		return
	}

	logger := s.loggerWith(ctx, "List",
		"category_id", filter.CategoryID,
		"published_only", filter.PublishedOnly,
		"search", filter.Search,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "")
		}
	}()

	courses, err = s.courses.ListCourses(ctx, filter)
	if err != nil {
		err = storeError(err)
		return
	}
	if courses == nil {
		courses = []Course{}
	}
	return
}

// Get returns one course with its lessons in order_index order. Any lookup
// failure is reported as a missing course.
func (s *CourseService) Get(ctx context.Context, id string) (course Course, err error) {
	if !s.configured() {
		err = unexpected("CourseService not configured")
		return
	}

	logger := s.loggerWith(ctx, "Get", "course_id", id)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "")
		}
	}()

	course, err = s.courses.GetCourse(ctx, id)
	if err != nil {
		err = notFound(MsgCourseNotFound, err)
		return
	}

	lessons, listErr := s.lessons.ListLessons(ctx, id)
	if listErr != nil {
		course = Course{}
		err = notFound(MsgCourseNotFound, listErr)
		return
	}
	sortLessons(lessons)
	if lessons == nil {
		lessons = []Lesson{}
	}
	course.Lessons = lessons
	return
}

// Create adds an unpublished course authored by the caller. Fields are
// checked before the caller's role.
func (s *CourseService) Create(ctx context.Context, caller Caller, input CourseInput) (course Course, err error) {
	if !s.configured() {
		err = unexpected("CourseService not configured")
		return
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	logger := s.loggerWith(ctx, "Create", "title", title)
	defer func() {
		logOutcome(ctx, logger.With("course_id", course.ID), err, "course created")
	}()

	if title == "" || description == "" || input.Price == nil {
		err = NewValidationError(MsgCourseFieldsRequired)
		return
	}
	if *input.Price < 0 {
		err = NewValidationError(MsgNegativePrice)
		return
	}

	session, authErr := s.policy.Authorize(ctx, caller, ResourceCourse, ActionCreate)
	if authErr != nil {
		err = authErr
		return
	}

	now := s.now()
	course, err = s.courses.CreateCourse(ctx, Course{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		Price:       *input.Price,
		Duration:    input.Duration,
		Level:       input.Level,
		ImageURL:    input.ImageURL,
		CategoryID:  blankToNil(input.CategoryID),
		AdminID:     session.UserID,
		IsPublished: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		err = storeError(err)
		course = Course{}
	}
	return
}

// Update applies patch to the course and refreshes updated_at. The caller's
// role is checked before the fields.
func (s *CourseService) Update(ctx context.Context, caller Caller, id string, patch CoursePatch) (course Course, err error) {
	if !s.configured() {
		err = unexpected("CourseService not configured")
		return
	}

	logger := s.loggerWith(ctx, "Update", "course_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "course updated")
	}()

	if _, err = s.policy.Authorize(ctx, caller, ResourceCourse, ActionUpdate); err != nil {
		return
	}

	if patch.Title != nil {
		trimmed := strings.TrimSpace(*patch.Title)
		if trimmed == "" {
			err = NewValidationError(MsgCourseFieldEmpty)
			return
		}
		patch.Title = &trimmed
	}
	if patch.Description != nil {
		trimmed := strings.TrimSpace(*patch.Description)
		if trimmed == "" {
			err = NewValidationError(MsgCourseFieldEmpty)
			return
		}
		patch.Description = &trimmed
	}
	if patch.Price != nil && *patch.Price < 0 {
		err = NewValidationError(MsgNegativePrice)
		return
	}

	course, err = s.courses.UpdateCourse(ctx, id, patch, s.now())
	if err != nil {
		course = Course{}
		if errors.Is(err, ErrNotFound) {
			err = notFound(MsgCourseNotFound, err)
			return
		}
		err = storeError(err)
	}
	return
}

// Delete removes the course and, with it, its lessons. Deleting an absent
// course succeeds.
func (s *CourseService) Delete(ctx context.Context, caller Caller, id string) (err error) {
	if !s.configured() {
		return unexpected("CourseService not configured")
	}

	logger := s.loggerWith(ctx, "Delete", "course_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "course deleted")
	}()

	if _, err = s.policy.Authorize(ctx, caller, ResourceCourse, ActionDelete); err != nil {
		return
	}

	if deleteErr := s.courses.DeleteCourse(ctx, id); deleteErr != nil {
		err = storeError(deleteErr)
	}
	return
}

// SetPublished changes the publication state. Publishing requires at least
// one lesson; unpublishing is always allowed.
func (s *CourseService) SetPublished(ctx context.Context, caller Caller, id string, published bool) (result PublishResult, err error) {
	if !s.configured() {
		err = unexpected("CourseService not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetPublished", "course_id", id, "is_published", published)
	defer func() {
		logOutcome(ctx, logger, err, "publication changed")
	}()

	if _, err = s.policy.Authorize(ctx, caller, ResourceCourse, ActionPublish); err != nil {
		return
	}

	if published {
		hasLessons, checkErr := s.courses.HasLessons(ctx, id)
		if checkErr != nil {
			err = storeFailure(MsgLessonCheckFailed, checkErr)
			return
		}
		if !hasLessons {
			err = invalidTransition(MsgPublishWithoutLesson)
			return
		}
	}

	result, err = s.courses.SetPublished(ctx, id, published, s.now())
	if err != nil {
		result = PublishResult{}
		if errors.Is(err, ErrNotFound) {
			err = notFound(MsgCourseNotFound, err)
			return
		}
		err = storeError(err)
	}
	return
}

func sortLessons(lessons []Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].OrderIndex < lessons[j].OrderIndex
	})
}

func blankToNil(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return value
}
