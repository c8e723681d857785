package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/elearning-platform/internal/application"
	"github.com/example/elearning-platform/internal/authz"
	"github.com/example/elearning-platform/internal/config"
	httptransport "github.com/example/elearning-platform/internal/http"
	"github.com/example/elearning-platform/internal/identity"
	"github.com/example/elearning-platform/internal/logging"
	"github.com/example/elearning-platform/internal/metrics"
	"github.com/example/elearning-platform/internal/persistence"
	"github.com/example/elearning-platform/internal/persistence/redisstore"
	"github.com/example/elearning-platform/internal/persistence/sqlstore"
)

const revocationPurgeInterval = time.Hour

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run dispatches the optional subcommand. Without one it serves the API
// until ctx is cancelled.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, stdout)

	if len(args) > 0 {
		switch args[0] {
		case "promote-admin":
			if len(args) != 2 {
				return errors.New("usage: elearning promote-admin <email>")
			}
			return promoteAdmin(ctx, cfg, logger, args[1])
		case "serve":
		default:
			return fmt.Errorf("unknown command %q", args[0])
		}
	}
	return serve(ctx, cfg, logger)
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return store, nil
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	now := time.Now
	healthChecks := []httptransport.HealthCheck{{Name: "database", Pinger: store}}

	var revocations persistence.RevocationRepository = store
	if cfg.Redis.URL != "" {
		client, err := redisstore.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() {
			if cerr := client.Close(); cerr != nil {
				logger.Error("failed to close redis client", "error", cerr)
			}
		}()
		redisRevocations := redisstore.NewRevocationStore(client, now)
		revocations = redisRevocations
		healthChecks = append(healthChecks, httptransport.HealthCheck{Name: "redis", Pinger: redisRevocations, Optional: true})
		logger.Info("session revocations stored in redis")
	} else {
		go purgeRevocations(ctx, store, now, logger)
	}

	router, err := buildRouter(cfg, store, revocations, healthChecks, now, uuid.NewString, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("e-learning API listening", "addr", server.Addr, "driver", cfg.Database.Driver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server encountered error: %w", err)
	}
	return nil
}

// buildRouter wires the identity provider, authorizer and services over
// store and returns the HTTP handler. now and newID feed every timestamp and
// identifier the services and the provider assign.
func buildRouter(cfg config.Config, store *sqlstore.Store, revocations persistence.RevocationRepository, healthChecks []httptransport.HealthCheck, now func() time.Time, newID func() string, logger *slog.Logger) (http.Handler, error) {
	provider, err := identity.NewProvider(store, revocations, identity.Config{
		Secret:     []byte(cfg.Session.Secret),
		Issuer:     cfg.Session.Issuer,
		SessionTTL: cfg.Session.TTL,
		Now:        now,
		NewID:      newID,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build identity provider: %w", err)
	}

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		return nil, fmt.Errorf("failed to load authorization policy: %w", err)
	}

	profileRepo := newProfileRepositoryAdapter(store)
	categoryRepo := newCategoryRepositoryAdapter(store)
	courseRepo := newCourseRepositoryAdapter(store)
	lessonRepo := newLessonRepositoryAdapter(store)

	policy := application.NewPolicy(provider, profileRepo, enforcer, logger)
	guard := application.NewRouteGuard(provider, profileRepo, enforcer, logger)

	authService := application.NewAuthServiceWithLogger(provider, profileRepo, now, logger)
	categoryService := application.NewCategoryServiceWithLogger(categoryRepo, policy, now, newID, logger)
	courseService := application.NewCourseServiceWithLogger(courseRepo, lessonRepo, policy, now, newID, logger)
	lessonService := application.NewLessonServiceWithLogger(lessonRepo, policy, now, newID, logger)

	m := metrics.New(nil)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth: httptransport.NewAuthHandler(authService, logger, httptransport.AuthHandlerOptions{
			SecureCookie: cfg.Session.CookieSecure,
			Metrics:      m,
		}),
		Categories: httptransport.NewCategoryHandler(categoryService, logger),
		Courses:    httptransport.NewCourseHandler(courseService, logger, m),
		Lessons:    httptransport.NewLessonHandler(lessonService, logger),
		Health:     httptransport.NewHealthHandler(healthChecks, logger),
		Guard: httptransport.GuardConfig{
			Guard:     guard,
			LoginPath: cfg.Guard.LoginPath,
		},
		Access:             policy,
		Metrics:            m,
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthRateLimit:      cfg.RateLimit.AuthPerMinute,
	}), nil
}

type revocationPurger interface {
	PurgeRevoked(ctx context.Context, before time.Time) (int64, error)
}

// purgeRevocations drops SQL revocation entries whose tokens have expired.
func purgeRevocations(ctx context.Context, store revocationPurger, now func() time.Time, logger *slog.Logger) {
	ticker := time.NewTicker(revocationPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.PurgeRevoked(ctx, now())
			if err != nil {
				logger.Warn("failed to purge revoked sessions", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("purged revoked sessions", "count", removed)
			}
		}
	}
}

type roleAssigner interface {
	GetIdentityByEmail(ctx context.Context, email string) (persistence.Identity, error)
	SetProfileRole(ctx context.Context, id, role string) error
}

// promoteAdmin grants the admin role to the account registered under email.
func promoteAdmin(ctx context.Context, cfg config.Config, logger *slog.Logger, email string) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return assignAdminRole(ctx, store, email, logger)
}

func assignAdminRole(ctx context.Context, store roleAssigner, email string, logger *slog.Logger) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("email is required")
	}

	account, err := store.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("no account registered for %s", email)
		}
		return fmt.Errorf("look up %s: %w", email, err)
	}
	if err := store.SetProfileRole(ctx, account.ID, string(application.RoleAdmin)); err != nil {
		return fmt.Errorf("promote %s: %w", email, err)
	}
	logger.Info("account promoted to admin", "user_id", account.ID, "email", email)
	return nil
}
