package models

import "time"

// Enrollment is one row of the course_student join table.
type Enrollment struct {
	StudentID  int64     `db:"student_id" json:"student_id"`
	CourseID   int64     `db:"course_id" json:"course_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Pair identifies a (student, course) combination.
type Pair struct {
	StudentID int64
	CourseID  int64
}
