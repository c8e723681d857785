package sqlstore

import (
	"context"
	"database/sql"

	"github.com/example/elearning-platform/internal/persistence"
)

var _ persistence.ProfileRepository = (*Store)(nil)
var _ persistence.CategoryRepository = (*Store)(nil)

// CreateProfile inserts the profile row for a new identity.
func (s *Store) CreateProfile(ctx context.Context, profile persistence.Profile) error {
	if profile.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO users (id, full_name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`),
		profile.ID,
		profile.FullName,
		profile.Role,
		s.timeArg(profile.CreatedAt),
		s.timeArg(profile.UpdatedAt),
	)
	return mapError(err)
}

// GetProfile loads a profile by user id.
func (s *Store) GetProfile(ctx context.Context, id string) (persistence.Profile, error) {
	var profile persistence.Profile
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, full_name, role, created_at, updated_at FROM users WHERE id = ?`), id,
	).Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Role,
		timeValue{&profile.CreatedAt},
		timeValue{&profile.UpdatedAt},
	)
	if err != nil {
		return persistence.Profile{}, mapError(err)
	}
	return profile, nil
}

// SetProfileRole changes a user's role. Used by operators to promote admins.
func (s *Store) SetProfileRole(ctx context.Context, id, role string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE users SET role = ? WHERE id = ?`), role, id)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, category persistence.Category) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO categories (id, name, description, created_at) VALUES (?, ?, ?, ?)`),
		category.ID,
		category.Name,
		stringArg(category.Description),
		s.timeArg(category.CreatedAt),
	)
	return mapError(err)
}

// GetCategory loads one category.
func (s *Store) GetCategory(ctx context.Context, id string) (persistence.Category, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, name, description, created_at FROM categories WHERE id = ?`), id)
	category, err := scanCategory(row)
	if err != nil {
		return persistence.Category{}, mapError(err)
	}
	return category, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]persistence.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	categories := make([]persistence.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, mapError(err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return categories, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (persistence.Category, error) {
	var (
		category    persistence.Category
		description sql.NullString
	)
	if err := row.Scan(&category.ID, &category.Name, &description, timeValue{&category.CreatedAt}); err != nil {
		return persistence.Category{}, err
	}
	category.Description = nullableString(description)
	return category, nil
}

func requireRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
