package dto

import "github.com/noah-isme/enrollment-api/internal/models"

// EnrollByCourseRequest attaches students to one course.
type EnrollByCourseRequest struct {
	SelectedCourseID int64   `json:"selectedCourseId" validate:"required,gt=0"`
	Student          []int64 `json:"student" validate:"required,min=1,dive,gt=0"`
}

// EnrollByStudentRequest attaches courses to one student.
type EnrollByStudentRequest struct {
	SelectedStudentID int64   `json:"selectedStudentId" validate:"required,gt=0"`
	Course            []int64 `json:"course" validate:"required,min=1,dive,gt=0"`
}

// CoursePartition splits all students relative to a course.
type CoursePartition struct {
	Enrolled   []models.EnrolledStudent `json:"enrolled"`
	Unenrolled []models.StudentSummary  `json:"unenrolled"`
}

// StudentPartition holds a student with its courses and the courses it can still take.
type StudentPartition struct {
	Student *models.StudentWithCourses `json:"student"`
	Course  []models.Course            `json:"course"`
}

// RosterFormat selects the export encoding for a course roster.
type RosterFormat string

// Supported roster formats.
const (
	RosterFormatCSV RosterFormat = "csv"
	RosterFormatPDF RosterFormat = "pdf"
)

// RosterFile is a rendered roster ready to stream.
type RosterFile struct {
	Filename    string
	ContentType string
	Body        []byte
}
