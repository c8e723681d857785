package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"
)

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for progress output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRebind converts "?" placeholders for drivers that use another style.
func WithRebind(rebind func(string) string) Option {
	return func(r *Runner) {
		if rebind != nil {
			r.exec.rebind = rebind
		}
	}
}

// WithClock overrides the time source used for applied_at and timings.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.exec.now = now
		}
	}
}

// Runner applies pending migrations from an fs.FS directory in version order.
type Runner struct {
	fsys   fs.FS
	dir    string
	exec   executor
	logger *slog.Logger
}

// NewRunner builds a Runner for db reading migrations from dir inside fsys.
func NewRunner(db *sql.DB, fsys fs.FS, dir string, opts ...Option) *Runner {
	r := &Runner{
		fsys: fsys,
		dir:  dir,
		exec: executor{
			db:     db,
			rebind: func(q string) string { return q },
			now:    time.Now,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "migration", "dir", dir)
	return r
}

// Run applies every pending migration and returns how many were applied.
func (r *Runner) Run(ctx context.Context) (int, error) {
	status, err := r.Status(ctx)
	if err != nil {
		return 0, err
	}

	r.logger.InfoContext(ctx, "schema version", "current", status.CurrentVersion, "pending", len(status.Pending))

	for i, m := range status.Pending {
		logger := r.logger.With("version", m.Version, "description", m.Description)
		if err := r.exec.apply(ctx, m); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return i, err
		}
		logger.InfoContext(ctx, "migration applied")
	}
	return len(status.Pending), nil
}

// Status compares the embedded migrations with the version table.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	if err := r.exec.initVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := Scan(r.fsys, r.dir)
	if err != nil {
		return Status{}, err
	}
	applied, err := r.exec.applied(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[int]Applied, len(applied))
	status := Status{Applied: applied}
	for _, a := range applied {
		byVersion[a.Version] = a
		if a.Version > status.CurrentVersion {
			status.CurrentVersion = a.Version
		}
	}

	for _, m := range available {
		a, ok := byVersion[m.Version]
		if !ok {
			status.Pending = append(status.Pending, m)
			continue
		}
		if a.Checksum != "" && a.Checksum != m.Checksum {
			return Status{}, newError(m.Version, m.Path, "verify checksum",
				fmt.Errorf("%w: recorded %s", ErrChecksumMismatch, a.Checksum))
		}
	}
	return status, nil
}
