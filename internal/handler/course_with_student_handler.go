package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

type courseEnrollmentReader interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	CoursePartition(ctx context.Context, courseID int64) (*dto.CoursePartition, error)
}

type courseEnrollmentWriter interface {
	EnrollStudents(ctx context.Context, req dto.EnrollByCourseRequest) (*models.CourseWithStudents, error)
	DropStudent(ctx context.Context, courseID, studentID int64) (*models.CourseWithStudents, error)
}

type rosterRenderer interface {
	Render(ctx context.Context, courseID int64, format dto.RosterFormat) (*dto.RosterFile, error)
}

// CourseWithStudentHandler manages enrollment from the course side.
type CourseWithStudentHandler struct {
	query    courseEnrollmentReader
	mutation courseEnrollmentWriter
	roster   rosterRenderer
}

// NewCourseWithStudentHandler builds a new handler.
func NewCourseWithStudentHandler(query courseEnrollmentReader, mutation courseEnrollmentWriter, roster rosterRenderer) *CourseWithStudentHandler {
	return &CourseWithStudentHandler{query: query, mutation: mutation, roster: roster}
}

// Index godoc
// @Summary List courses available as enrollment anchors
// @Tags CourseWithStudent
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /course-with-student [get]
func (h *CourseWithStudentHandler) Index(c *gin.Context) {
	courses, err := h.query.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Courses fetched successfully!", courses)
}

// Show godoc
// @Summary Enrolled and unenrolled students of a course
// @Tags CourseWithStudent
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /course-with-student/{courseId} [get]
func (h *CourseWithStudentHandler) Show(c *gin.Context) {
	courseID, err := pathID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}
	partition, err := h.query.CoursePartition(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Enrolled students fetched successfully!", partition)
}

// Store godoc
// @Summary Enroll students into a course
// @Tags CourseWithStudent
// @Accept json
// @Produce json
// @Param payload body dto.EnrollByCourseRequest true "Course and students"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /course-with-student [post]
func (h *CourseWithStudentHandler) Store(c *gin.Context) {
	var req dto.EnrollByCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	course, err := h.mutation.EnrollStudents(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Students Enrolled Successfully!", course)
}

// Destroy godoc
// @Summary Unenroll one student from a course
// @Tags CourseWithStudent
// @Produce json
// @Param courseId path int true "Course ID"
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /course-with-student/{courseId}/{studentId} [delete]
func (h *CourseWithStudentHandler) Destroy(c *gin.Context) {
	courseID, err := pathID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := pathID(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.mutation.DropStudent(c.Request.Context(), courseID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Student Unenrolled Successfully!", course)
}

// Roster godoc
// @Summary Download the roster of a course
// @Tags CourseWithStudent
// @Produce text/csv
// @Produce application/pdf
// @Param courseId path int true "Course ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorEnvelope
// @Router /course-with-student/{courseId}/roster [get]
func (h *CourseWithStudentHandler) Roster(c *gin.Context) {
	courseID, err := pathID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.roster.Render(c.Request.Context(), courseID, dto.RosterFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

