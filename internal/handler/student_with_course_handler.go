package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/pkg/response"
)

type studentEnrollmentReader interface {
	ListStudents(ctx context.Context) ([]models.Student, error)
	StudentPartition(ctx context.Context, studentID int64) (*dto.StudentPartition, error)
}

type studentEnrollmentWriter interface {
	EnrollCourses(ctx context.Context, req dto.EnrollByStudentRequest) (*models.StudentWithCourses, error)
	DropCourse(ctx context.Context, studentID, courseID int64) (*models.StudentWithCourses, error)
}

// StudentWithCourseHandler manages enrollment from the student side.
type StudentWithCourseHandler struct {
	query    studentEnrollmentReader
	mutation studentEnrollmentWriter
}

// NewStudentWithCourseHandler builds a new handler.
func NewStudentWithCourseHandler(query studentEnrollmentReader, mutation studentEnrollmentWriter) *StudentWithCourseHandler {
	return &StudentWithCourseHandler{query: query, mutation: mutation}
}

// Index godoc
// @Summary List students available as enrollment anchors
// @Tags StudentWithCourse
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student-with-course [get]
func (h *StudentWithCourseHandler) Index(c *gin.Context) {
	students, err := h.query.ListStudents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Students fetched successfully!", students)
}

// Show godoc
// @Summary Student with enrolled courses plus the courses still available
// @Tags StudentWithCourse
// @Produce json
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /student-with-course/{studentId} [get]
func (h *StudentWithCourseHandler) Show(c *gin.Context) {
	studentID, err := pathID(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	partition, err := h.query.StudentPartition(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Data fetched successfully!", partition)
}

// Store godoc
// @Summary Enroll a student into courses
// @Tags StudentWithCourse
// @Accept json
// @Produce json
// @Param payload body dto.EnrollByStudentRequest true "Student and courses"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /student-with-course [post]
func (h *StudentWithCourseHandler) Store(c *gin.Context) {
	var req dto.EnrollByStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	student, err := h.mutation.EnrollCourses(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Student Enrolled Successfully!", student)
}

// Destroy godoc
// @Summary Unenroll one course from a student
// @Tags StudentWithCourse
// @Produce json
// @Param studentId path int true "Student ID"
// @Param courseId path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /student-with-course/{studentId}/{courseId} [delete]
func (h *StudentWithCourseHandler) Destroy(c *gin.Context) {
	studentID, err := pathID(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	courseID, err := pathID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}
	student, err := h.mutation.DropCourse(c.Request.Context(), studentID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Course Unenrolled Successfully!", student)
}
