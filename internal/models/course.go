package models

import "time"

// Course represents an offering students can enroll in.
type Course struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Units       float64   `db:"units" json:"units"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EnrolledCourse is a course joined to a student together with the pivot timestamp.
type EnrolledCourse struct {
	Course
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// CourseWithStudents is a course with its current roster.
type CourseWithStudents struct {
	Course
	Students []EnrolledStudent `json:"students"`
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
