package persistence

import (
	"context"
	"time"
)

// IdentityRepository stores credentials for the identity provider.
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, identity Identity) error
	GetIdentity(ctx context.Context, id string) (Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (Identity, error)
}

// RevocationRepository records signed-out sessions.
type RevocationRepository interface {
	MarkRevoked(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// ProfileRepository stores user profiles.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile Profile) error
	GetProfile(ctx context.Context, id string) (Profile, error)
}

// CategoryRepository stores categories.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category Category) error
	GetCategory(ctx context.Context, id string) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// CourseFilter narrows course listings. Search matches title or description case-insensitively.
type CourseFilter struct {
	CategoryID    string
	PublishedOnly bool
	Search        string
}

// CourseRepository stores courses.
type CourseRepository interface {
	CreateCourse(ctx context.Context, course Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
	UpdateCourse(ctx context.Context, id string, changes CourseChanges) error
	SetCoursePublished(ctx context.Context, id string, published bool, updatedAt time.Time) error
	DeleteCourse(ctx context.Context, id string) error
	HasLessons(ctx context.Context, courseID string) (bool, error)
}

// NextOrderIndexFunc derives the order index of a new lesson from the current maximum.
// last is nil when the course has no lessons.
type NextOrderIndexFunc func(last *int) int

// LessonRepository stores lessons.
type LessonRepository interface {
	ListLessons(ctx context.Context, courseID string) ([]Lesson, error)
	CreateLesson(ctx context.Context, lesson Lesson) error
	CreateLessonAfterLast(ctx context.Context, lesson Lesson, next NextOrderIndexFunc) (Lesson, error)
}
