package models

import "time"

// Student represents a learner who can be enrolled in courses.
type Student struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Birthdate Date      `db:"birthdate" json:"birthdate"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentSummary is the minimal projection used for the "available students" list.
type StudentSummary struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

// EnrolledStudent is a student joined to a course together with the pivot timestamp.
type EnrolledStudent struct {
	Student
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// StudentWithCourses is a student with its current enrollment set.
type StudentWithCourses struct {
	Student
	Courses []EnrolledCourse `json:"courses"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
