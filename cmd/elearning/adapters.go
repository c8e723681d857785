package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/elearning-platform/internal/application"
	"github.com/example/elearning-platform/internal/persistence"
)

// translateError keeps the store message and adds the application sentinel
// the services branch on.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("%w: %w", application.ErrNotFound, err)
	}
	return err
}

type profileRepositoryAdapter struct {
	repo persistence.ProfileRepository
}

func newProfileRepositoryAdapter(repo persistence.ProfileRepository) *profileRepositoryAdapter {
	return &profileRepositoryAdapter{repo: repo}
}

func (a *profileRepositoryAdapter) CreateProfile(ctx context.Context, profile application.Profile) (application.Profile, error) {
	if err := a.repo.CreateProfile(ctx, toPersistenceProfile(profile)); err != nil {
		return application.Profile{}, translateError(err)
	}
	return a.GetProfile(ctx, profile.ID)
}

func (a *profileRepositoryAdapter) GetProfile(ctx context.Context, id string) (application.Profile, error) {
	stored, err := a.repo.GetProfile(ctx, id)
	if err != nil {
		return application.Profile{}, translateError(err)
	}
	return toApplicationProfile(stored), nil
}

type categoryRepositoryAdapter struct {
	repo persistence.CategoryRepository
}

func newCategoryRepositoryAdapter(repo persistence.CategoryRepository) *categoryRepositoryAdapter {
	return &categoryRepositoryAdapter{repo: repo}
}

func (a *categoryRepositoryAdapter) CreateCategory(ctx context.Context, category application.Category) (application.Category, error) {
	if err := a.repo.CreateCategory(ctx, toPersistenceCategory(category)); err != nil {
		return application.Category{}, translateError(err)
	}
	stored, err := a.repo.GetCategory(ctx, category.ID)
	if err != nil {
		return application.Category{}, translateError(err)
	}
	return toApplicationCategory(stored), nil
}

func (a *categoryRepositoryAdapter) ListCategories(ctx context.Context) ([]application.Category, error) {
	models, err := a.repo.ListCategories(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	categories := make([]application.Category, 0, len(models))
	for _, model := range models {
		categories = append(categories, toApplicationCategory(model))
	}
	return categories, nil
}

type courseRepositoryAdapter struct {
	repo persistence.CourseRepository
}

func newCourseRepositoryAdapter(repo persistence.CourseRepository) *courseRepositoryAdapter {
	return &courseRepositoryAdapter{repo: repo}
}

func (a *courseRepositoryAdapter) CreateCourse(ctx context.Context, course application.Course) (application.Course, error) {
	if err := a.repo.CreateCourse(ctx, toPersistenceCourse(course)); err != nil {
		return application.Course{}, translateError(err)
	}
	return a.GetCourse(ctx, course.ID)
}

func (a *courseRepositoryAdapter) GetCourse(ctx context.Context, id string) (application.Course, error) {
	stored, err := a.repo.GetCourse(ctx, id)
	if err != nil {
		return application.Course{}, translateError(err)
	}
	return toApplicationCourse(stored), nil
}

func (a *courseRepositoryAdapter) ListCourses(ctx context.Context, filter application.CourseFilter) ([]application.Course, error) {
	models, err := a.repo.ListCourses(ctx, persistence.CourseFilter{
		CategoryID:    filter.CategoryID,
		PublishedOnly: filter.PublishedOnly,
		Search:        filter.Search,
	})
	if err != nil {
		return nil, translateError(err)
	}
	courses := make([]application.Course, 0, len(models))
	for _, model := range models {
		courses = append(courses, toApplicationCourse(model))
	}
	return courses, nil
}

func (a *courseRepositoryAdapter) UpdateCourse(ctx context.Context, id string, patch application.CoursePatch, updatedAt time.Time) (application.Course, error) {
	err := a.repo.UpdateCourse(ctx, id, persistence.CourseChanges{
		Title:       patch.Title,
		Description: patch.Description,
		Price:       patch.Price,
		Duration:    patch.Duration,
		Level:       patch.Level,
		ImageURL:    patch.ImageURL,
		CategoryID:  patch.CategoryID,
		UpdatedAt:   updatedAt,
	})
	if err != nil {
		return application.Course{}, translateError(err)
	}
	return a.GetCourse(ctx, id)
}

func (a *courseRepositoryAdapter) SetPublished(ctx context.Context, id string, published bool, updatedAt time.Time) (application.PublishResult, error) {
	if err := a.repo.SetCoursePublished(ctx, id, published, updatedAt); err != nil {
		return application.PublishResult{}, translateError(err)
	}
	course, err := a.GetCourse(ctx, id)
	if err != nil {
		return application.PublishResult{}, err
	}
	return application.PublishResult{
		ID:          course.ID,
		Title:       course.Title,
		IsPublished: course.IsPublished,
		UpdatedAt:   course.UpdatedAt,
	}, nil
}

func (a *courseRepositoryAdapter) DeleteCourse(ctx context.Context, id string) error {
	return translateError(a.repo.DeleteCourse(ctx, id))
}

func (a *courseRepositoryAdapter) HasLessons(ctx context.Context, courseID string) (bool, error) {
	ok, err := a.repo.HasLessons(ctx, courseID)
	return ok, translateError(err)
}

type lessonRepositoryAdapter struct {
	repo persistence.LessonRepository
}

func newLessonRepositoryAdapter(repo persistence.LessonRepository) *lessonRepositoryAdapter {
	return &lessonRepositoryAdapter{repo: repo}
}

func (a *lessonRepositoryAdapter) ListLessons(ctx context.Context, courseID string) ([]application.Lesson, error) {
	models, err := a.repo.ListLessons(ctx, courseID)
	if err != nil {
		return nil, translateError(err)
	}
	lessons := make([]application.Lesson, 0, len(models))
	for _, model := range models {
		lessons = append(lessons, toApplicationLesson(model))
	}
	return lessons, nil
}

// CreateLesson reports a missing parent course as not found.
func (a *lessonRepositoryAdapter) CreateLesson(ctx context.Context, lesson application.Lesson) (application.Lesson, error) {
	if err := a.repo.CreateLesson(ctx, toPersistenceLesson(lesson)); err != nil {
		return application.Lesson{}, translateLessonError(err)
	}
	return lesson, nil
}

func (a *lessonRepositoryAdapter) CreateLessonAfterLast(ctx context.Context, lesson application.Lesson, next func(last *int) int) (application.Lesson, error) {
	stored, err := a.repo.CreateLessonAfterLast(ctx, toPersistenceLesson(lesson), persistence.NextOrderIndexFunc(next))
	if err != nil {
		return application.Lesson{}, translateLessonError(err)
	}
	return toApplicationLesson(stored), nil
}

func translateLessonError(err error) error {
	if errors.Is(err, persistence.ErrForeignKey) {
		return fmt.Errorf("%w: %w", application.ErrNotFound, err)
	}
	return translateError(err)
}

func toPersistenceProfile(p application.Profile) persistence.Profile {
	return persistence.Profile{
		ID:        p.ID,
		FullName:  p.FullName,
		Role:      string(p.Role),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toApplicationProfile(p persistence.Profile) application.Profile {
	return application.Profile{
		ID:        p.ID,
		FullName:  p.FullName,
		Role:      application.Role(p.Role),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toPersistenceCategory(c application.Category) persistence.Category {
	return persistence.Category{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}
}

func toApplicationCategory(c persistence.Category) application.Category {
	return application.Category{ID: c.ID, Name: c.Name, Description: c.Description, CreatedAt: c.CreatedAt}
}

func toPersistenceCourse(c application.Course) persistence.Course {
	return persistence.Course{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Price:       c.Price,
		Duration:    c.Duration,
		Level:       c.Level,
		ImageURL:    c.ImageURL,
		CategoryID:  c.CategoryID,
		AdminID:     c.AdminID,
		IsPublished: c.IsPublished,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// toApplicationCourse expands the joined names into refs. A course whose
// category was deleted keeps a nil Category.
func toApplicationCourse(c persistence.Course) application.Course {
	course := application.Course{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Price:       c.Price,
		Duration:    c.Duration,
		Level:       c.Level,
		ImageURL:    c.ImageURL,
		CategoryID:  c.CategoryID,
		AdminID:     c.AdminID,
		IsPublished: c.IsPublished,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.CategoryID != nil && c.CategoryName != nil {
		course.Category = &application.CategoryRef{ID: *c.CategoryID, Name: *c.CategoryName}
	}
	if c.AdminName != nil {
		course.Admin = &application.AdminRef{ID: c.AdminID, FullName: *c.AdminName}
	}
	return course
}

func toPersistenceLesson(l application.Lesson) persistence.Lesson {
	return persistence.Lesson{
		ID:         l.ID,
		CourseID:   l.CourseID,
		Title:      l.Title,
		Content:    l.Content,
		VideoURL:   l.VideoURL,
		PDFURL:     l.PDFURL,
		OrderIndex: l.OrderIndex,
		CreatedAt:  l.CreatedAt,
	}
}

func toApplicationLesson(l persistence.Lesson) application.Lesson {
	return application.Lesson{
		ID:         l.ID,
		CourseID:   l.CourseID,
		Title:      l.Title,
		Content:    l.Content,
		VideoURL:   l.VideoURL,
		PDFURL:     l.PDFURL,
		OrderIndex: l.OrderIndex,
		CreatedAt:  l.CreatedAt,
	}
}
