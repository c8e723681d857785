package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/elearning-platform/internal/persistence"
)

var _ persistence.CourseRepository = (*Store)(nil)

const courseSelect = `
	SELECT c.id, c.title, c.description, c.price, c.duration, c.level, c.image_url,
	       c.category_id, c.admin_id, c.is_published, c.created_at, c.updated_at,
	       cat.name, u.full_name
	FROM courses c
	LEFT JOIN categories cat ON cat.id = c.category_id
	LEFT JOIN users u ON u.id = c.admin_id`

// CreateCourse inserts a course.
func (s *Store) CreateCourse(ctx context.Context, course persistence.Course) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO courses (id, title, description, price, duration, level, image_url,
		                     category_id, admin_id, is_published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		course.ID,
		course.Title,
		course.Description,
		course.Price,
		stringArg(course.Duration),
		stringArg(course.Level),
		stringArg(course.ImageURL),
		stringArg(course.CategoryID),
		course.AdminID,
		course.IsPublished,
		s.timeArg(course.CreatedAt),
		s.timeArg(course.UpdatedAt),
	)
	return mapError(err)
}

// GetCourse loads a course with its category and admin names.
func (s *Store) GetCourse(ctx context.Context, id string) (persistence.Course, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(courseSelect+` WHERE c.id = ?`), id)
	course, err := scanCourse(row)
	if err != nil {
		return persistence.Course{}, mapError(err)
	}
	return course, nil
}

// ListCourses returns courses newest first.
func (s *Store) ListCourses(ctx context.Context, filter persistence.CourseFilter) ([]persistence.Course, error) {
	var (
		where []string
		args  []any
	)
	if filter.CategoryID != "" {
		where = append(where, "c.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.PublishedOnly {
		where = append(where, "c.is_published = ?")
		args = append(args, true)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		lower := s.lowerFunc()
		where = append(where, fmt.Sprintf(`(%[1]s(c.title) LIKE %[1]s(?) ESCAPE '\' OR %[1]s(c.description) LIKE %[1]s(?) ESCAPE '\')`, lower))
		args = append(args, pattern, pattern)
	}

	query := courseSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.created_at DESC, c.id DESC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	courses := make([]persistence.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, mapError(err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return courses, nil
}

// UpdateCourse writes the non-nil fields of changes plus updated_at.
func (s *Store) UpdateCourse(ctx context.Context, id string, changes persistence.CourseChanges) error {
	sets := []string{"updated_at = ?"}
	args := []any{s.timeArg(changes.UpdatedAt)}

	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if changes.Title != nil {
		add("title", *changes.Title)
	}
	if changes.Description != nil {
		add("description", *changes.Description)
	}
	if changes.Price != nil {
		add("price", *changes.Price)
	}
	if changes.Duration != nil {
		add("duration", *changes.Duration)
	}
	if changes.Level != nil {
		add("level", *changes.Level)
	}
	if changes.ImageURL != nil {
		add("image_url", *changes.ImageURL)
	}
	if changes.CategoryID != nil {
		// empty string detaches the course from its category
		if *changes.CategoryID == "" {
			add("category_id", nil)
		} else {
			add("category_id", *changes.CategoryID)
		}
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE courses SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}

// SetCoursePublished writes is_published and updated_at in one statement.
func (s *Store) SetCoursePublished(ctx context.Context, id string, published bool, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE courses SET is_published = ?, updated_at = ? WHERE id = ?`),
		published, s.timeArg(updatedAt), id)
	if err != nil {
		return mapError(err)
	}
	return requireRows(res)
}

// DeleteCourse removes a course; lessons go with it through ON DELETE CASCADE.
// Deleting an unknown id is not an error.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM courses WHERE id = ?`), id)
	return mapError(err)
}

// HasLessons reports whether at least one lesson references the course.
func (s *Store) HasLessons(ctx context.Context, courseID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM lessons WHERE course_id = ? LIMIT 1`), courseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}

func scanCourse(row rowScanner) (persistence.Course, error) {
	var (
		course                                persistence.Course
		duration, level, imageURL, categoryID sql.NullString
		categoryName, adminName               sql.NullString
	)
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.Price,
		&duration,
		&level,
		&imageURL,
		&categoryID,
		&course.AdminID,
		&course.IsPublished,
		timeValue{&course.CreatedAt},
		timeValue{&course.UpdatedAt},
		&categoryName,
		&adminName,
	)
	if err != nil {
		return persistence.Course{}, err
	}
	course.Duration = nullableString(duration)
	course.Level = nullableString(level)
	course.ImageURL = nullableString(imageURL)
	course.CategoryID = nullableString(categoryID)
	course.CategoryName = nullableString(categoryName)
	course.AdminName = nullableString(adminName)
	return course, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
