package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/example/elearning-platform/internal/application"
	"github.com/example/elearning-platform/internal/metrics"
)

// RouterConfig collects the handlers and cross-cutting settings NewRouter
// mounts. A nil handler leaves its routes unmounted.
type RouterConfig struct {
	Auth       *AuthHandler
	Categories *CategoryHandler
	Courses    *CourseHandler
	Lessons    *LessonHandler
	Health     *HealthHandler

	Guard   GuardConfig
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// Access, when set, checks the caller's role on mutating routes before
	// the request body is read.
	Access accessPolicy

	// CORSAllowedOrigins disables CORS handling when empty.
	CORSAllowedOrigins []string
	// AuthRateLimit is the per-IP sign-in and sign-up budget per minute.
	// Zero disables the limit.
	AuthRateLimit int
}

// NewRouter mounts the JSON API under /api behind the request pipeline:
// request id, logger, recoverer, metrics, CORS, caller resolution, guard.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(Instrument(cfg.Metrics))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(WithCaller)
	guardCfg := cfg.Guard
	if guardCfg.Metrics == nil {
		guardCfg.Metrics = cfg.Metrics
	}
	r.Use(Guard(guardCfg))

	requireRole := func(resource, action string) func(http.Handler) http.Handler {
		return RequireRole(cfg.Access, resource, action, logger)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Ready)
		r.Get("/healthz/live", cfg.Health.Live)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.Auth != nil {
			api.Route("/auth", func(auth chi.Router) {
				auth.Group(func(limited chi.Router) {
					if cfg.AuthRateLimit > 0 {
						limited.Use(httprate.Limit(
							cfg.AuthRateLimit,
							time.Minute,
							httprate.WithKeyFuncs(httprate.KeyByIP),
							httprate.WithLimitHandler(func(w http.ResponseWriter, req *http.Request) {
								responder.writeError(req.Context(), w, http.StatusTooManyRequests, msgTooManyRequests)
							}),
						))
					}
					limited.Post("/signup", cfg.Auth.SignUp)
					limited.Post("/signin", cfg.Auth.SignIn)
				})
				auth.Post("/signout", cfg.Auth.SignOut)
				auth.Get("/me", cfg.Auth.Me)
			})
		}

		if cfg.Categories != nil {
			api.Get("/categories", cfg.Categories.List)
			api.With(requireRole(application.ResourceCategory, application.ActionCreate)).
				Post("/categories", cfg.Categories.Create)
		}

		api.Route("/courses", func(courses chi.Router) {
			if cfg.Courses != nil {
				courses.Get("/", cfg.Courses.List)
				courses.With(requireRole(application.ResourceCourse, application.ActionCreate)).Post("/", cfg.Courses.Create)
				courses.Get("/{id}", cfg.Courses.Get)
				courses.With(requireRole(application.ResourceCourse, application.ActionUpdate)).Put("/{id}", cfg.Courses.Update)
				courses.Delete("/{id}", cfg.Courses.Delete)
				courses.With(requireRole(application.ResourceCourse, application.ActionPublish)).Post("/{id}/published", cfg.Courses.SetPublished)
			}
			if cfg.Lessons != nil {
				courses.Get("/{id}/lessons", cfg.Lessons.List)
				courses.With(requireRole(application.ResourceLesson, application.ActionCreate)).Post("/{id}/lessons", cfg.Lessons.Create)
			}
		})
	})

	return r
}

const msgTooManyRequests = "Trop de requêtes, réessayez plus tard"
