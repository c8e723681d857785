package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/elearning-platform/internal/application"
	"github.com/example/elearning-platform/internal/persistence"
)

var (
	profileCounter  uint64
	categoryCounter uint64
	courseCounter   uint64
	lessonCounter   uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Profile fixtures -----------------------------

// ProfileFixture is a deterministic user profile.
type ProfileFixture struct {
	ID        string
	FullName  string
	Role      application.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileOption configures the generated profile fixture.
type ProfileOption func(*ProfileFixture)

// NewProfileFixture returns a student profile with optional overrides.
func NewProfileFixture(opts ...ProfileOption) ProfileFixture {
	idx := atomic.AddUint64(&profileCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ProfileFixture{
		ID:        fmt.Sprintf("user-%03d", idx),
		FullName:  fmt.Sprintf("User %03d", idx),
		Role:      application.RoleStudent,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithProfileID(id string) ProfileOption {
	return func(f *ProfileFixture) {
		f.ID = id
	}
}

func WithProfileName(name string) ProfileOption {
	return func(f *ProfileFixture) {
		f.FullName = name
	}
}

// WithAdminRole makes the profile an administrator.
func WithAdminRole() ProfileOption {
	return func(f *ProfileFixture) {
		f.Role = application.RoleAdmin
	}
}

func (f ProfileFixture) Application() application.Profile {
	return application.Profile{
		ID:        f.ID,
		FullName:  f.FullName,
		Role:      f.Role,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func (f ProfileFixture) Persistence() persistence.Profile {
	return persistence.Profile{
		ID:        f.ID,
		FullName:  f.FullName,
		Role:      string(f.Role),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ----------------------------- Category fixtures -----------------------------

type CategoryFixture struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
}

type CategoryOption func(*CategoryFixture)

// NewCategoryFixture returns a deterministic category.
func NewCategoryFixture(opts ...CategoryOption) CategoryFixture {
	idx := atomic.AddUint64(&categoryCounter, 1)
	description := fmt.Sprintf("Courses about topic %03d", idx)
	fixture := CategoryFixture{
		ID:          fmt.Sprintf("category-%03d", idx),
		Name:        fmt.Sprintf("Category %03d", idx),
		Description: &description,
		CreatedAt:   referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithCategoryID(id string) CategoryOption {
	return func(f *CategoryFixture) {
		f.ID = id
	}
}

func WithCategoryName(name string) CategoryOption {
	return func(f *CategoryFixture) {
		f.Name = name
	}
}

func (f CategoryFixture) Application() application.Category {
	return application.Category{ID: f.ID, Name: f.Name, Description: f.Description, CreatedAt: f.CreatedAt}
}

func (f CategoryFixture) Persistence() persistence.Category {
	return persistence.Category{ID: f.ID, Name: f.Name, Description: f.Description, CreatedAt: f.CreatedAt}
}

// ----------------------------- Course fixtures -----------------------------

// CourseFixture is a deterministic, unpublished course.
type CourseFixture struct {
	ID          string
	Title       string
	Description string
	Price       float64
	Duration    *string
	Level       *string
	ImageURL    *string
	CategoryID  *string
	AdminID     string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CourseOption func(*CourseFixture)

// NewCourseFixture returns a course authored by adminID.
func NewCourseFixture(adminID string, opts ...CourseOption) CourseFixture {
	idx := atomic.AddUint64(&courseCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	level := "beginner"
	fixture := CourseFixture{
		ID:          fmt.Sprintf("course-%03d", idx),
		Title:       fmt.Sprintf("Course %03d", idx),
		Description: fmt.Sprintf("Description of course %03d", idx),
		Price:       float64(idx) * 10,
		Level:       &level,
		AdminID:     adminID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithCourseID(id string) CourseOption {
	return func(f *CourseFixture) {
		f.ID = id
	}
}

func WithCourseTitle(title string) CourseOption {
	return func(f *CourseFixture) {
		f.Title = title
	}
}

func WithCourseDescription(description string) CourseOption {
	return func(f *CourseFixture) {
		f.Description = description
	}
}

func WithCourseCategory(categoryID string) CourseOption {
	return func(f *CourseFixture) {
		f.CategoryID = &categoryID
	}
}

func WithCoursePublished(published bool) CourseOption {
	return func(f *CourseFixture) {
		f.IsPublished = published
	}
}

// WithCourseCreatedAt sets both timestamps.
func WithCourseCreatedAt(t time.Time) CourseOption {
	return func(f *CourseFixture) {
		f.CreatedAt = t
		f.UpdatedAt = t
	}
}

func (f CourseFixture) Application() application.Course {
	return application.Course{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Price:       f.Price,
		Duration:    f.Duration,
		Level:       f.Level,
		ImageURL:    f.ImageURL,
		CategoryID:  f.CategoryID,
		AdminID:     f.AdminID,
		IsPublished: f.IsPublished,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func (f CourseFixture) Persistence() persistence.Course {
	return persistence.Course{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		Price:       f.Price,
		Duration:    f.Duration,
		Level:       f.Level,
		ImageURL:    f.ImageURL,
		CategoryID:  f.CategoryID,
		AdminID:     f.AdminID,
		IsPublished: f.IsPublished,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ----------------------------- Lesson fixtures -----------------------------

type LessonFixture struct {
	ID         string
	CourseID   string
	Title      string
	Content    string
	VideoURL   *string
	PDFURL     *string
	OrderIndex int
	CreatedAt  time.Time
}

type LessonOption func(*LessonFixture)

// NewLessonFixture returns a lesson of courseID at orderIndex.
func NewLessonFixture(courseID string, orderIndex int, opts ...LessonOption) LessonFixture {
	idx := atomic.AddUint64(&lessonCounter, 1)
	fixture := LessonFixture{
		ID:         fmt.Sprintf("lesson-%03d", idx),
		CourseID:   courseID,
		Title:      fmt.Sprintf("Lesson %03d", idx),
		Content:    fmt.Sprintf("Content of lesson %03d", idx),
		OrderIndex: orderIndex,
		CreatedAt:  referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

func WithLessonID(id string) LessonOption {
	return func(f *LessonFixture) {
		f.ID = id
	}
}

func WithLessonVideo(url string) LessonOption {
	return func(f *LessonFixture) {
		f.VideoURL = &url
	}
}

func (f LessonFixture) Application() application.Lesson {
	return application.Lesson{
		ID:         f.ID,
		CourseID:   f.CourseID,
		Title:      f.Title,
		Content:    f.Content,
		VideoURL:   f.VideoURL,
		PDFURL:     f.PDFURL,
		OrderIndex: f.OrderIndex,
		CreatedAt:  f.CreatedAt,
	}
}

func (f LessonFixture) Persistence() persistence.Lesson {
	return persistence.Lesson{
		ID:         f.ID,
		CourseID:   f.CourseID,
		Title:      f.Title,
		Content:    f.Content,
		VideoURL:   f.VideoURL,
		PDFURL:     f.PDFURL,
		OrderIndex: f.OrderIndex,
		CreatedAt:  f.CreatedAt,
	}
}
