package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/elearning-platform/internal/persistence"
)

var _ persistence.LessonRepository = (*Store)(nil)

// ListLessons returns the lessons of a course in ascending order_index.
func (s *Store) ListLessons(ctx context.Context, courseID string) ([]persistence.Lesson, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, course_id, title, content, video_url, pdf_url, order_index, created_at
		FROM lessons WHERE course_id = ?
		ORDER BY order_index, created_at, id`), courseID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	lessons := make([]persistence.Lesson, 0)
	for rows.Next() {
		var (
			lesson           persistence.Lesson
			videoURL, pdfURL sql.NullString
		)
		if err := rows.Scan(
			&lesson.ID,
			&lesson.CourseID,
			&lesson.Title,
			&lesson.Content,
			&videoURL,
			&pdfURL,
			&lesson.OrderIndex,
			timeValue{&lesson.CreatedAt},
		); err != nil {
			return nil, mapError(err)
		}
		lesson.VideoURL = nullableString(videoURL)
		lesson.PDFURL = nullableString(pdfURL)
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return lessons, nil
}

// CreateLesson inserts a lesson with the order_index it already carries.
func (s *Store) CreateLesson(ctx context.Context, lesson persistence.Lesson) error {
	return s.insertLesson(ctx, s.db, lesson)
}

// CreateLessonAfterLast reads the highest order_index of the course, derives the
// new index with next and inserts, all in one transaction. On PostgreSQL the
// course row is locked first so concurrent inserts for the same course queue up.
func (s *Store) CreateLessonAfterLast(ctx context.Context, lesson persistence.Lesson, next persistence.NextOrderIndexFunc) (persistence.Lesson, error) {
	err := s.WithTransaction(ctx, func(tx *sql.Tx) error {
		lock := `SELECT id FROM courses WHERE id = ?`
		if s.dialect == DialectPostgres {
			lock += ` FOR UPDATE`
		}
		var courseID string
		if err := tx.QueryRowContext(ctx, s.rebind(lock), lesson.CourseID).Scan(&courseID); err != nil {
			return mapError(err)
		}

		var last sql.NullInt64
		err := tx.QueryRowContext(ctx, s.rebind(`
			SELECT order_index FROM lessons WHERE course_id = ?
			ORDER BY order_index DESC LIMIT 1`), lesson.CourseID).Scan(&last)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return mapError(err)
		}

		var current *int
		if last.Valid {
			value := int(last.Int64)
			current = &value
		}
		lesson.OrderIndex = next(current)

		return s.insertLesson(ctx, tx, lesson)
	})
	if err != nil {
		return persistence.Lesson{}, err
	}
	return lesson, nil
}

func (s *Store) insertLesson(ctx context.Context, q querier, lesson persistence.Lesson) error {
	_, err := q.ExecContext(ctx, s.rebind(`
		INSERT INTO lessons (id, course_id, title, content, video_url, pdf_url, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		lesson.ID,
		lesson.CourseID,
		lesson.Title,
		lesson.Content,
		stringArg(lesson.VideoURL),
		stringArg(lesson.PDFURL),
		lesson.OrderIndex,
		s.timeArg(lesson.CreatedAt),
	)
	return mapError(err)
}
