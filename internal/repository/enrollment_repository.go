package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// Postgres SQLSTATE codes surfaced by the join table.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// EnrollmentRepository owns the course_student join rows.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// StudentsInCourse returns the roster of a course with each enrollment timestamp.
func (r *EnrollmentRepository) StudentsInCourse(ctx context.Context, courseID int64) ([]models.EnrolledStudent, error) {
	query := `SELECT ` + studentColumns + `, cs.enrolled_at
        FROM course_student cs
        JOIN students s ON s.id = cs.student_id
        WHERE cs.course_id = $1
        ORDER BY s.name, s.id`
	students := []models.EnrolledStudent{}
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}

// StudentsNotInCourse returns every student not joined to the course, projected to id, name and email.
func (r *EnrollmentRepository) StudentsNotInCourse(ctx context.Context, courseID int64) ([]models.StudentSummary, error) {
	const query = `SELECT s.id, s.name, s.email
        FROM students s
        WHERE NOT EXISTS (SELECT 1 FROM course_student cs WHERE cs.student_id = s.id AND cs.course_id = $1)
        ORDER BY s.name, s.id`
	students := []models.StudentSummary{}
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list unenrolled students: %w", err)
	}
	return students, nil
}

// CoursesForStudent returns the courses a student is enrolled in.
func (r *EnrollmentRepository) CoursesForStudent(ctx context.Context, studentID int64) ([]models.EnrolledCourse, error) {
	query := `SELECT ` + courseColumns + `, cs.enrolled_at
        FROM course_student cs
        JOIN courses c ON c.id = cs.course_id
        WHERE cs.student_id = $1
        ORDER BY c.name, c.id`
	courses := []models.EnrolledCourse{}
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}

// CoursesNotForStudent returns every course the student is not enrolled in.
func (r *EnrollmentRepository) CoursesNotForStudent(ctx context.Context, studentID int64) ([]models.Course, error) {
	query := `SELECT ` + courseColumns + `
        FROM courses c
        WHERE NOT EXISTS (SELECT 1 FROM course_student cs WHERE cs.course_id = c.id AND cs.student_id = $1)
        ORDER BY c.name, c.id`
	courses := []models.Course{}
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list unenrolled courses: %w", err)
	}
	return courses, nil
}

// Attach inserts the given pairs in a single statement, skipping pairs that already exist.
// It returns the number of rows actually created.
func (r *EnrollmentRepository) Attach(ctx context.Context, pairs []models.Pair, enrolledAt time.Time) (int64, error) {
	if len(pairs) == 0 {
		return 0, nil
	}
	studentIDs := make([]int64, len(pairs))
	courseIDs := make([]int64, len(pairs))
	for i, p := range pairs {
		studentIDs[i] = p.StudentID
		courseIDs[i] = p.CourseID
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin attach transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO course_student (student_id, course_id, enrolled_at, created_at, updated_at)
        SELECT p.student_id, p.course_id, $3, $3, $3
        FROM UNNEST($1::bigint[], $2::bigint[]) AS p(student_id, course_id)
        ON CONFLICT (student_id, course_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, query, pq.Array(studentIDs), pq.Array(courseIDs), enrolledAt)
	if err != nil {
		return 0, fmt.Errorf("attach enrollments: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("attach enrollments: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit attach: %w", err)
	}
	return inserted, nil
}

// Detach removes the row for pair if present and reports how many rows were deleted.
func (r *EnrollmentRepository) Detach(ctx context.Context, pair models.Pair) (int64, error) {
	const query = `DELETE FROM course_student WHERE student_id = $1 AND course_id = $2`
	res, err := r.db.ExecContext(ctx, query, pair.StudentID, pair.CourseID)
	if err != nil {
		return 0, fmt.Errorf("detach enrollment: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("detach enrollment: %w", err)
	}
	return removed, nil
}

// IsUniqueViolation reports whether err came from a duplicate (student, course) insert.
func IsUniqueViolation(err error) bool {
	return hasCode(err, pqUniqueViolation)
}

// IsForeignKeyViolation reports whether err references a student or course that no longer exists.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, pqForeignKeyViolation)
}

func hasCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}
