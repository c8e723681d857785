package testfixtures

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/elearning-platform/internal/persistence/sqlstore"
)

// SQLiteHarness exposes a migrated store backed by a temporary SQLite file.
type SQLiteHarness struct {
	Store *sqlstore.Store

	cleanup func()
}

// Close releases the database. It is also registered with tb.Cleanup.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a fresh database under tb.TempDir.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "elearning.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s", path),
	}, logger)
	if err != nil {
		tb.Fatalf("failed to open store: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate store: %v", err)
	}

	harness := &SQLiteHarness{
		Store: store,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// SeedProfile inserts a profile row.
func (h *SQLiteHarness) SeedProfile(tb testing.TB, fixture ProfileFixture) ProfileFixture {
	tb.Helper()
	if err := h.Store.CreateProfile(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("seed profile %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedCategory inserts a category row.
func (h *SQLiteHarness) SeedCategory(tb testing.TB, fixture CategoryFixture) CategoryFixture {
	tb.Helper()
	if err := h.Store.CreateCategory(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("seed category %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedCourse inserts a course row. Its admin must already exist.
func (h *SQLiteHarness) SeedCourse(tb testing.TB, fixture CourseFixture) CourseFixture {
	tb.Helper()
	if err := h.Store.CreateCourse(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("seed course %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedLesson inserts a lesson row. Its course must already exist.
func (h *SQLiteHarness) SeedLesson(tb testing.TB, fixture LessonFixture) LessonFixture {
	tb.Helper()
	if err := h.Store.CreateLesson(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("seed lesson %s: %v", fixture.ID, err)
	}
	return fixture
}
