package application

import (
	"context"
	"strconv"
	"time"
)

var referenceTime = time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

func fixedNow() time.Time { return referenceTime }

func sequenceIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

type identityStub struct {
	sessions map[string]Session
	sessErr  error

	signUpIdentity Identity
	signUpErr      error
	signUpCalls    int

	signInSession Session
	signInErr     error

	signOutErr   error
	signedOutTok string
}

func (s *identityStub) SignUp(ctx context.Context, email, password, fullName string) (Identity, error) {
	s.signUpCalls++
	if s.signUpErr != nil {
		return Identity{}, s.signUpErr
	}
	identity := s.signUpIdentity
	if identity.ID == "" {
		identity.ID = "user-1"
	}
	identity.Email = email
	identity.FullName = fullName
	return identity, nil
}

func (s *identityStub) SignIn(ctx context.Context, email, password string) (Session, error) {
	if s.signInErr != nil {
		return Session{}, s.signInErr
	}
	return s.signInSession, nil
}

func (s *identityStub) SignOut(ctx context.Context, token string) error {
	if s.signOutErr != nil {
		return s.signOutErr
	}
	s.signedOutTok = token
	return nil
}

func (s *identityStub) Session(ctx context.Context, token string) (Session, error) {
	if s.sessErr != nil {
		return Session{}, s.sessErr
	}
	session, ok := s.sessions[token]
	if !ok {
		return Session{}, ErrNoSession
	}
	return session, nil
}

type profileRepoStub struct {
	profiles map[string]Profile
	getErr   error

	createErr error
	created   []Profile
}

func (r *profileRepoStub) CreateProfile(ctx context.Context, profile Profile) (Profile, error) {
	if r.createErr != nil {
		return Profile{}, r.createErr
	}
	r.created = append(r.created, profile)
	if r.profiles == nil {
		r.profiles = map[string]Profile{}
	}
	r.profiles[profile.ID] = profile
	return profile, nil
}

func (r *profileRepoStub) GetProfile(ctx context.Context, id string) (Profile, error) {
	if r.getErr != nil {
		return Profile{}, r.getErr
	}
	profile, ok := r.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return profile, nil
}

type authorizerStub struct {
	allowed map[Role]bool
	err     error
	calls   []string
}

func (a *authorizerStub) Authorize(ctx context.Context, role Role, resource, action string) (bool, error) {
	a.calls = append(a.calls, string(role)+":"+resource+":"+action)
	if a.err != nil {
		return false, a.err
	}
	return a.allowed[role], nil
}

type categoryRepoStub struct {
	list    []Category
	listErr error

	createErr error
	created   []Category
}

func (r *categoryRepoStub) CreateCategory(ctx context.Context, category Category) (Category, error) {
	if r.createErr != nil {
		return Category{}, r.createErr
	}
	r.created = append(r.created, category)
	return category, nil
}

func (r *categoryRepoStub) ListCategories(ctx context.Context) ([]Category, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.list, nil
}

type courseRepoStub struct {
	courses map[string]Course
	getErr  error

	list    []Course
	listErr error
	filter  CourseFilter

	createErr error
	created   []Course

	updateErr error
	patch     CoursePatch
	updatedAt time.Time

	publishErr   error
	published    map[string]bool
	publishCalls []publishCall

	deleteErr error
	deleted   []string

	hasLessons    bool
	hasLessonsErr error
	lessonChecks  int
}

func (r *courseRepoStub) CreateCourse(ctx context.Context, course Course) (Course, error) {
	if r.createErr != nil {
		return Course{}, r.createErr
	}
	r.created = append(r.created, course)
	return course, nil
}

func (r *courseRepoStub) GetCourse(ctx context.Context, id string) (Course, error) {
	if r.getErr != nil {
		return Course{}, r.getErr
	}
	course, ok := r.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	return course, nil
}

func (r *courseRepoStub) ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error) {
	r.filter = filter
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.list, nil
}

func (r *courseRepoStub) UpdateCourse(ctx context.Context, id string, patch CoursePatch, updatedAt time.Time) (Course, error) {
	if r.updateErr != nil {
		return Course{}, r.updateErr
	}
	course, ok := r.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	r.patch = patch
	r.updatedAt = updatedAt
	if patch.Title != nil {
		course.Title = *patch.Title
	}
	if patch.Description != nil {
		course.Description = *patch.Description
	}
	if patch.Price != nil {
		course.Price = *patch.Price
	}
	course.UpdatedAt = updatedAt
	r.courses[id] = course
	return course, nil
}

type publishCall struct {
	published bool
	updatedAt time.Time
}

func (r *courseRepoStub) SetPublished(ctx context.Context, id string, published bool, updatedAt time.Time) (PublishResult, error) {
	if r.publishErr != nil {
		return PublishResult{}, r.publishErr
	}
	course, ok := r.courses[id]
	if !ok {
		return PublishResult{}, ErrNotFound
	}
	if r.published == nil {
		r.published = map[string]bool{}
	}
	r.published[id] = published
	r.publishCalls = append(r.publishCalls, publishCall{published: published, updatedAt: updatedAt})
	course.IsPublished = published
	course.UpdatedAt = updatedAt
	r.courses[id] = course
	return PublishResult{ID: id, Title: course.Title, IsPublished: published, UpdatedAt: updatedAt}, nil
}

func (r *courseRepoStub) DeleteCourse(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *courseRepoStub) HasLessons(ctx context.Context, courseID string) (bool, error) {
	r.lessonChecks++
	if r.hasLessonsErr != nil {
		return false, r.hasLessonsErr
	}
	return r.hasLessons, nil
}

type lessonRepoStub struct {
	byCourse map[string][]Lesson
	listErr  error

	createErr error
	created   []Lesson
	appended  int
}

func (r *lessonRepoStub) ListLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	src := r.byCourse[courseID]
	out := make([]Lesson, len(src))
	copy(out, src)
	return out, nil
}

func (r *lessonRepoStub) CreateLesson(ctx context.Context, lesson Lesson) (Lesson, error) {
	if r.createErr != nil {
		return Lesson{}, r.createErr
	}
	r.created = append(r.created, lesson)
	if r.byCourse == nil {
		r.byCourse = map[string][]Lesson{}
	}
	r.byCourse[lesson.CourseID] = append(r.byCourse[lesson.CourseID], lesson)
	return lesson, nil
}

func (r *lessonRepoStub) CreateLessonAfterLast(ctx context.Context, lesson Lesson, next func(last *int) int) (Lesson, error) {
	if r.createErr != nil {
		return Lesson{}, r.createErr
	}
	r.appended++
	var last *int
	for _, existing := range r.byCourse[lesson.CourseID] {
		idx := existing.OrderIndex
		if last == nil || idx > *last {
			last = &idx
		}
	}
	lesson.OrderIndex = next(last)
	return r.CreateLesson(ctx, lesson)
}

const (
	adminToken   = "admin-token"
	studentToken = "student-token"
	orphanToken  = "orphan-token"
)

// newAccessFixture returns an identity with an admin, a student and a session
// whose user has no profile.
func newAccessFixture() (*identityStub, *profileRepoStub) {
	identity := &identityStub{sessions: map[string]Session{
		adminToken:   {ID: "sess-admin", UserID: "admin-1", Email: "admin@example.com"},
		studentToken: {ID: "sess-student", UserID: "student-1", Email: "student@example.com"},
		orphanToken:  {ID: "sess-orphan", UserID: "ghost-1", Email: "ghost@example.com"},
	}}
	profiles := &profileRepoStub{profiles: map[string]Profile{
		"admin-1":   {ID: "admin-1", FullName: "Alice Admin", Role: RoleAdmin},
		"student-1": {ID: "student-1", FullName: "Sam Student", Role: RoleStudent},
	}}
	return identity, profiles
}

func newTestPolicy() *Policy {
	identity, profiles := newAccessFixture()
	return NewPolicy(identity, profiles, nil, nil)
}

func ptr[T any](v T) *T { return &v }
