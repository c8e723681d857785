package main

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
	"github.com/example/elearning-platform/internal/config"
	httptransport "github.com/example/elearning-platform/internal/http"
	"github.com/example/elearning-platform/internal/persistence"
	"github.com/example/elearning-platform/internal/testfixtures"
)

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func (c apiClient) call(method, path, token, body string) (int, map[string]any, http.Header) {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			c.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, decoded, rec.Header()
}

func (c apiClient) expect(method, path, token, body string, status int) map[string]any {
	c.t.Helper()
	code, decoded, _ := c.call(method, path, token, body)
	if code != status {
		c.t.Fatalf("%s %s: expected %d, got %d (%v)", method, path, status, code, decoded)
	}
	return decoded
}

func newTestServer(t *testing.T) (apiClient, *testfixtures.SQLiteHarness) {
	t.Helper()

	harness := testfixtures.NewSQLiteHarness(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Session: config.SessionConfig{
			Secret: "integration-secret-value",
			TTL:    time.Hour,
			Issuer: "elearning-test",
		},
		Guard: config.GuardConfig{LoginPath: "/login"},
	}

	clock := testfixtures.NewClock(time.Second)
	ids := testfixtures.NewIDs("e2e")
	handler, err := buildRouter(cfg, harness.Store, harness.Store,
		[]httptransport.HealthCheck{{Name: "database", Pinger: harness.Store}},
		clock.Tick, ids.Next, logger)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return apiClient{t: t, handler: handler}, harness
}

func signIn(c apiClient, email, password string) string {
	c.t.Helper()
	body := c.expect(http.MethodPost, "/api/auth/signin", "", `{"email":"`+email+`","password":"`+password+`"}`, http.StatusOK)
	token, _ := body["session"].(map[string]any)["access_token"].(string)
	if token == "" {
		c.t.Fatalf("expected an access token, got %v", body)
	}
	return token
}

func TestCourseLifecycle(t *testing.T) {
	api, harness := newTestServer(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api.expect(http.MethodPost, "/api/auth/signup", "", `{"email":"Admin@Example.com","password":"secret1","full_name":"Grace Hopper"}`, http.StatusOK)
	api.expect(http.MethodPost, "/api/auth/signup", "", `{"email":"student@example.com","password":"secret2","full_name":"Alan Turing"}`, http.StatusOK)

	dup := api.expect(http.MethodPost, "/api/auth/signup", "", `{"email":"student@example.com","password":"secret2","full_name":"Alan"}`, http.StatusBadRequest)
	if dup["error"] != "User already registered" {
		t.Fatalf("unexpected duplicate error %v", dup)
	}

	if err := assignAdminRole(ctx, harness.Store, "admin@example.com", logger); err != nil {
		t.Fatalf("promote admin: %v", err)
	}

	admin := signIn(api, "admin@example.com", "secret1")
	student := signIn(api, "student@example.com", "secret2")

	me := api.expect(http.MethodGet, "/api/auth/me", admin, "", http.StatusOK)
	if role := me["user"].(map[string]any)["role"]; role != "admin" {
		t.Fatalf("expected admin role, got %v", role)
	}

	wrong := api.expect(http.MethodPost, "/api/auth/signin", "", `{"email":"admin@example.com","password":"nope!!"}`, http.StatusUnauthorized)
	if wrong["error"] != application.MsgBadCredentials {
		t.Fatalf("unexpected sign-in error %v", wrong)
	}

	api.expect(http.MethodPost, "/api/categories", "", `{"name":"Go"}`, http.StatusUnauthorized)
	api.expect(http.MethodPost, "/api/categories", student, `{"name":"Go"}`, http.StatusForbidden)
	category := api.expect(http.MethodPost, "/api/categories", admin, `{"name":"Go"}`, http.StatusOK)["category"].(map[string]any)

	created := api.expect(http.MethodPost, "/api/courses", admin,
		`{"title":"Go basics","description":"From zero","price":0,"duration":"6 semaines","level":"débutant",`+
			`"image_url":"https://cdn.example.com/go.png","category_id":"`+category["id"].(string)+`"}`, http.StatusOK)
	course := created["course"].(map[string]any)
	courseID := course["id"].(string)
	if course["is_published"] != false {
		t.Fatalf("new courses start unpublished: %v", course)
	}

	fetched := api.expect(http.MethodGet, "/api/courses/"+courseID, "", "", http.StatusOK)["course"].(map[string]any)
	supplied := map[string]any{
		"title":       "Go basics",
		"description": "From zero",
		"price":       float64(0),
		"duration":    "6 semaines",
		"level":       "débutant",
		"image_url":   "https://cdn.example.com/go.png",
		"category_id": category["id"],
	}
	for field, want := range supplied {
		if fetched[field] != want {
			t.Fatalf("%s: created %v, fetched %v", field, want, fetched[field])
		}
	}
	for _, field := range []string{"id", "admin_id", "is_published", "created_at", "updated_at"} {
		if fetched[field] != course[field] {
			t.Fatalf("%s: created %v, fetched %v", field, course[field], fetched[field])
		}
	}
	if fetched["admin_id"] == "" || fetched["is_published"] != false || fetched["created_at"] == "" {
		t.Fatalf("expected server-assigned fields, got %v", fetched)
	}
	if course["admin"].(map[string]any)["full_name"] != "Grace Hopper" {
		t.Fatalf("expected admin ref, got %v", course["admin"])
	}

	refused := api.expect(http.MethodPost, "/api/courses/"+courseID+"/published", admin, `{"is_published":true}`, http.StatusBadRequest)
	if refused["error"] != application.MsgPublishWithoutLesson {
		t.Fatalf("unexpected publish error %v", refused)
	}

	lessonsPath := "/api/courses/" + courseID + "/lessons"
	api.expect(http.MethodPost, lessonsPath, student, `{"title":"Intro","content":"Hello"}`, http.StatusForbidden)
	first := api.expect(http.MethodPost, lessonsPath, admin, `{"title":"Intro","content":"Hello"}`, http.StatusOK)
	second := api.expect(http.MethodPost, lessonsPath, admin, `{"title":"Types","content":"int"}`, http.StatusOK)
	api.expect(http.MethodPost, lessonsPath, admin, `{"title":"Appendix","content":"x","order_index":10}`, http.StatusOK)
	after := api.expect(http.MethodPost, lessonsPath, admin, `{"title":"Epilogue","content":"y"}`, http.StatusOK)

	for name, tc := range map[string]struct {
		body map[string]any
		want float64
	}{
		"first": {first, 1}, "second": {second, 2}, "after explicit": {after, 11},
	} {
		if got := tc.body["lesson"].(map[string]any)["order_index"]; got != tc.want {
			t.Fatalf("%s lesson: expected order %v, got %v", name, tc.want, got)
		}
	}

	published := api.expect(http.MethodPost, "/api/courses/"+courseID+"/published", admin, `{"is_published":true}`, http.StatusOK)
	if published["message"] != "Cours publié avec succès" || published["course"].(map[string]any)["is_published"] != true {
		t.Fatalf("unexpected publish response %v", published)
	}

	api.expect(http.MethodPut, "/api/courses/"+courseID, admin, `{"is_published":false}`, http.StatusBadRequest)
	api.expect(http.MethodPut, "/api/courses/"+courseID, "", `{"is_published":false}`, http.StatusUnauthorized)
	api.expect(http.MethodPut, "/api/courses/"+courseID, student, `{"title":`, http.StatusForbidden)
	api.expect(http.MethodPost, "/api/courses/"+courseID+"/published", "", `{"is_published":"no"}`, http.StatusUnauthorized)
	api.expect(http.MethodPut, "/api/courses/"+courseID, admin, `{"title":"Go fundamentals","price":19.5}`, http.StatusOK)
	api.expect(http.MethodPut, "/api/courses/missing", admin, `{"title":"x"}`, http.StatusNotFound)

	detail := api.expect(http.MethodGet, "/api/courses/"+courseID, "", "", http.StatusOK)["course"].(map[string]any)
	if detail["title"] != "Go fundamentals" || detail["category"].(map[string]any)["name"] != "Go" {
		t.Fatalf("unexpected detail %v", detail)
	}
	lessons := detail["lessons"].([]any)
	var order []float64
	for _, l := range lessons {
		order = append(order, l.(map[string]any)["order_index"].(float64))
	}
	if len(order) != 4 || order[0] != 1 || order[1] != 2 || order[2] != 10 || order[3] != 11 {
		t.Fatalf("expected lessons sorted by order index, got %v", order)
	}

	list := api.expect(http.MethodGet, "/api/courses?published_only=true&search=FUNDAMENTALS", "", "", http.StatusOK)
	if n := len(list["courses"].([]any)); n != 1 {
		t.Fatalf("expected 1 matching course, got %d", n)
	}

	api.expect(http.MethodGet, "/api/courses/missing", "", "", http.StatusNotFound)
	missingLesson := api.expect(http.MethodPost, "/api/courses/missing/lessons", admin, `{"title":"a","content":"b"}`, http.StatusNotFound)
	if missingLesson["error"] != application.MsgCourseNotFound {
		t.Fatalf("unexpected error %v", missingLesson)
	}

	api.expect(http.MethodDelete, "/api/courses/"+courseID, admin, "", http.StatusOK)
	empty := api.expect(http.MethodGet, lessonsPath, "", "", http.StatusOK)
	if n := len(empty["lessons"].([]any)); n != 0 {
		t.Fatalf("expected lessons to cascade, got %d", n)
	}
	api.expect(http.MethodDelete, "/api/courses/"+courseID, admin, "", http.StatusOK)

	api.expect(http.MethodPost, "/api/auth/signout", student, "", http.StatusOK)
	api.expect(http.MethodGet, "/api/auth/me", student, "", http.StatusUnauthorized)
	api.expect(http.MethodPost, "/api/auth/signout", student, "", http.StatusBadRequest)
}

func TestRouteGuardRedirects(t *testing.T) {
	api, harness := newTestServer(t)

	api.expect(http.MethodPost, "/api/auth/signup", "", `{"email":"admin@example.com","password":"secret1","full_name":"Grace"}`, http.StatusOK)
	api.expect(http.MethodPost, "/api/auth/signup", "", `{"email":"student@example.com","password":"secret2","full_name":"Alan"}`, http.StatusOK)
	if err := assignAdminRole(context.Background(), harness.Store, "admin@example.com", slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	admin := signIn(api, "admin@example.com", "secret1")
	student := signIn(api, "student@example.com", "secret2")

	tests := []struct {
		name     string
		path     string
		token    string
		location string
	}{
		{name: "admin area without session", path: "/admin/courses", location: "/login"},
		{name: "admin area as student", path: "/admin", token: student, location: "/"},
		{name: "admin area as admin", path: "/admin", token: admin},
		{name: "dashboard without session", path: "/dashboard", location: "/login"},
		{name: "dashboard with session", path: "/dashboard", token: student},
		{name: "course page without session", path: "/courses/abc", location: "/login"},
		{name: "course index is not guarded", path: "/courses"},
		{name: "student area with forged token", path: "/student/me", token: "forged", location: "/login"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, _, header := api.call(http.MethodGet, tc.path, tc.token, "")
			if tc.location == "" {
				if code == http.StatusTemporaryRedirect {
					t.Fatalf("expected pass-through, got redirect to %q", header.Get("Location"))
				}
				return
			}
			if code != http.StatusTemporaryRedirect || header.Get("Location") != tc.location {
				t.Fatalf("expected 307 to %q, got %d %q", tc.location, code, header.Get("Location"))
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	api, _ := newTestServer(t)

	body := api.expect(http.MethodGet, "/healthz", "", "", http.StatusOK)
	if body["status"] != "healthy" {
		t.Fatalf("unexpected health %v", body)
	}
}

type roleAssignerStub struct {
	identities map[string]persistence.Identity
	promoted   map[string]string
	err        error
}

func (s *roleAssignerStub) GetIdentityByEmail(ctx context.Context, email string) (persistence.Identity, error) {
	identity, ok := s.identities[email]
	if !ok {
		return persistence.Identity{}, persistence.ErrNotFound
	}
	return identity, nil
}

func (s *roleAssignerStub) SetProfileRole(ctx context.Context, id, role string) error {
	if s.err != nil {
		return s.err
	}
	s.promoted[id] = role
	return nil
}

func TestAssignAdminRole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stub := &roleAssignerStub{
		identities: map[string]persistence.Identity{"ada@example.com": {ID: "user-1", Email: "ada@example.com"}},
		promoted:   map[string]string{},
	}

	if err := assignAdminRole(context.Background(), stub, "  ADA@example.com ", logger); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.promoted["user-1"] != "admin" {
		t.Fatalf("expected user-1 to be promoted, got %v", stub.promoted)
	}

	if err := assignAdminRole(context.Background(), stub, "nobody@example.com", logger); err == nil || !strings.Contains(err.Error(), "no account registered") {
		t.Fatalf("expected unknown account error, got %v", err)
	}
	if err := assignAdminRole(context.Background(), stub, " ", logger); err == nil {
		t.Fatalf("expected error for blank email")
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	t.Setenv("ELEARNING_SESSION_SECRET", "integration-secret-value")
	t.Setenv(config.ConfigPathEnvVar, "")

	err := run(context.Background(), []string{"frobnicate"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}
