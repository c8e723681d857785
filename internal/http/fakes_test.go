package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/elearning-platform/internal/application"
	"github.com/example/elearning-platform/internal/metrics"
)

var referenceTime = time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAuthService struct {
	signUpInput application.SignUpInput
	signUpCalls int
	signUpErr   error

	signInErr error

	signOutCaller application.Caller
	signOutErr    error

	meCaller application.Caller
	meErr    error
}

func (f *fakeAuthService) SignUp(ctx context.Context, input application.SignUpInput) (application.SignUpResult, error) {
	f.signUpCalls++
	f.signUpInput = input
	if f.signUpErr != nil {
		return application.SignUpResult{}, f.signUpErr
	}
	return application.SignUpResult{
		Identity: application.Identity{ID: "user-1", Email: input.Email, FullName: input.FullName},
		Profile:  application.Profile{ID: "user-1", FullName: input.FullName, Role: application.RoleStudent},
	}, nil
}

func (f *fakeAuthService) SignIn(ctx context.Context, input application.SignInInput) (application.SignInResult, error) {
	if f.signInErr != nil {
		return application.SignInResult{}, f.signInErr
	}
	return application.SignInResult{
		Session: application.Session{
			ID:          "session-1",
			UserID:      "user-1",
			Email:       input.Email,
			AccessToken: "token-1",
			ExpiresAt:   referenceTime.Add(time.Hour),
		},
		Profile: application.Profile{ID: "user-1", FullName: "Ada Lovelace", Role: application.RoleAdmin},
	}, nil
}

func (f *fakeAuthService) SignOut(ctx context.Context, caller application.Caller) error {
	f.signOutCaller = caller
	return f.signOutErr
}

func (f *fakeAuthService) Me(ctx context.Context, caller application.Caller) (application.CurrentUser, error) {
	f.meCaller = caller
	if f.meErr != nil {
		return application.CurrentUser{}, f.meErr
	}
	return application.CurrentUser{
		Email: "ada@example.com",
		Profile: application.Profile{
			ID:        "user-1",
			FullName:  "Ada Lovelace",
			Role:      application.RoleStudent,
			CreatedAt: referenceTime,
		},
	}, nil
}

type fakeCategoryService struct {
	categories  []application.Category
	listErr     error
	createInput application.CategoryInput
	createErr   error
}

func (f *fakeCategoryService) List(ctx context.Context) ([]application.Category, error) {
	return f.categories, f.listErr
}

func (f *fakeCategoryService) Create(ctx context.Context, caller application.Caller, input application.CategoryInput) (application.Category, error) {
	f.createInput = input
	if f.createErr != nil {
		return application.Category{}, f.createErr
	}
	return application.Category{ID: "cat-1", Name: input.Name, Description: input.Description, CreatedAt: referenceTime}, nil
}

type fakeCourseService struct {
	filter    application.CourseFilter
	courses   []application.Course
	course    application.Course
	getErr    error
	createIn  application.CourseInput
	createErr error

	patch     application.CoursePatch
	updateErr error

	deleteID  string
	deleteErr error

	publishCalls  int
	publishCaller application.Caller
	published     bool
	publishErr    error
}

func (f *fakeCourseService) List(ctx context.Context, filter application.CourseFilter) ([]application.Course, error) {
	f.filter = filter
	return f.courses, nil
}

func (f *fakeCourseService) Get(ctx context.Context, id string) (application.Course, error) {
	if f.getErr != nil {
		return application.Course{}, f.getErr
	}
	return f.course, nil
}

func (f *fakeCourseService) Create(ctx context.Context, caller application.Caller, input application.CourseInput) (application.Course, error) {
	f.createIn = input
	if f.createErr != nil {
		return application.Course{}, f.createErr
	}
	return application.Course{ID: "course-1", Title: input.Title, Description: input.Description, Price: *input.Price}, nil
}

func (f *fakeCourseService) Update(ctx context.Context, caller application.Caller, id string, patch application.CoursePatch) (application.Course, error) {
	f.patch = patch
	if f.updateErr != nil {
		return application.Course{}, f.updateErr
	}
	return application.Course{ID: id, Title: "Updated"}, nil
}

func (f *fakeCourseService) Delete(ctx context.Context, caller application.Caller, id string) error {
	f.deleteID = id
	return f.deleteErr
}

func (f *fakeCourseService) SetPublished(ctx context.Context, caller application.Caller, id string, published bool) (application.PublishResult, error) {
	f.publishCalls++
	f.publishCaller = caller
	f.published = published
	if f.publishErr != nil {
		return application.PublishResult{}, f.publishErr
	}
	return application.PublishResult{ID: id, Title: "Go basics", IsPublished: published, UpdatedAt: referenceTime}, nil
}

type fakeLessonService struct {
	courseID  string
	input     application.LessonInput
	lessons   []application.Lesson
	createErr error
}

func (f *fakeLessonService) List(ctx context.Context, courseID string) ([]application.Lesson, error) {
	f.courseID = courseID
	return f.lessons, nil
}

func (f *fakeLessonService) Create(ctx context.Context, caller application.Caller, courseID string, input application.LessonInput) (application.Lesson, error) {
	f.courseID = courseID
	f.input = input
	if f.createErr != nil {
		return application.Lesson{}, f.createErr
	}
	index := 1
	if input.OrderIndex != nil {
		index = *input.OrderIndex
	}
	return application.Lesson{ID: "lesson-1", CourseID: courseID, Title: input.Title, Content: input.Content, OrderIndex: index}, nil
}

type testAPI struct {
	auth       *fakeAuthService
	categories *fakeCategoryService
	courses    *fakeCourseService
	lessons    *fakeLessonService
	metrics    *metrics.Metrics
	handler    http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	api := &testAPI{
		auth:       &fakeAuthService{},
		categories: &fakeCategoryService{},
		courses:    &fakeCourseService{},
		lessons:    &fakeLessonService{},
		metrics:    metrics.New(nil),
	}
	logger := discardLogger()
	api.handler = NewRouter(RouterConfig{
		Auth:       NewAuthHandler(api.auth, logger, AuthHandlerOptions{Metrics: api.metrics}),
		Categories: NewCategoryHandler(api.categories, logger),
		Courses:    NewCourseHandler(api.courses, logger, api.metrics),
		Lessons:    NewLessonHandler(api.lessons, logger),
		Metrics:    api.metrics,
		Logger:     logger,
	})
	return api
}

func (a *testAPI) do(t *testing.T, method, path, body string, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["error"] != message {
		t.Fatalf("expected error %q, got %v", message, body["error"])
	}
}

// fakeAccessPolicy treats the bearer token as the caller's role.
type fakeAccessPolicy struct {
	checks []string
}

func (f *fakeAccessPolicy) Authorize(ctx context.Context, caller application.Caller, resource, action string) (application.Session, error) {
	f.checks = append(f.checks, resource+":"+action)
	switch caller.Token {
	case "":
		return application.Session{}, &application.Error{Kind: application.KindUnauthenticated, Message: application.MsgUnauthenticated}
	case "admin":
		return application.Session{UserID: "admin-1"}, nil
	default:
		return application.Session{}, &application.Error{Kind: application.KindForbidden, Message: application.MsgForbidden}
	}
}

func newGuardedTestAPI(t *testing.T) (*testAPI, *fakeAccessPolicy) {
	t.Helper()

	api := newTestAPI(t)
	policy := &fakeAccessPolicy{}
	logger := discardLogger()
	api.handler = NewRouter(RouterConfig{
		Categories: NewCategoryHandler(api.categories, logger),
		Courses:    NewCourseHandler(api.courses, logger, api.metrics),
		Lessons:    NewLessonHandler(api.lessons, logger),
		Access:     policy,
		Logger:     logger,
	})
	return api, policy
}
