package application

import (
	"context"
	"time"
)

// IdentityProvider owns credentials and sessions.
//
// Session returns ErrNoSession when the token is empty, malformed, expired or
// signed out. SignIn returns ErrInvalidCredentials when the email/password pair
// is rejected. Other errors carry a message suitable for the caller.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, fullName string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (Session, error)
}

// ProfileRepository stores profiles. GetProfile returns ErrNotFound when absent.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile Profile) (Profile, error)
	GetProfile(ctx context.Context, id string) (Profile, error)
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category Category) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// CourseRepository stores courses. Reads populate Category and Admin refs.
// UpdateCourse and SetPublished return ErrNotFound when no row matches.
type CourseRepository interface {
	CreateCourse(ctx context.Context, course Course) (Course, error)
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
	UpdateCourse(ctx context.Context, id string, patch CoursePatch, updatedAt time.Time) (Course, error)
	SetPublished(ctx context.Context, id string, published bool, updatedAt time.Time) (PublishResult, error)
	DeleteCourse(ctx context.Context, id string) error
	HasLessons(ctx context.Context, courseID string) (bool, error)
}

// LessonRepository stores lessons. Creates return ErrNotFound when the course is missing.
type LessonRepository interface {
	ListLessons(ctx context.Context, courseID string) ([]Lesson, error)
	CreateLesson(ctx context.Context, lesson Lesson) (Lesson, error)
	// CreateLessonAfterLast assigns OrderIndex from next, given the current
	// highest index of the course, atomically with the insert.
	CreateLessonAfterLast(ctx context.Context, lesson Lesson, next func(last *int) int) (Lesson, error)
}

// Authorizer decides whether a role may perform action on resource.
type Authorizer interface {
	Authorize(ctx context.Context, role Role, resource, action string) (bool, error)
}

// Resources and actions understood by the Authorizer.
const (
	ResourceCategory  = "category"
	ResourceCourse    = "course"
	ResourceLesson    = "lesson"
	ResourceAdminArea = "area:admin"

	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionPublish = "publish"
	ActionEnter   = "enter"
)
