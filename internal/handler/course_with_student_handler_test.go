package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type courseEnrollmentMock struct {
	courses       []models.Course
	partition     *dto.CoursePartition
	course        *models.CourseWithStudents
	err           error
	lastRequest   dto.EnrollByCourseRequest
	lastCourseID  int64
	lastStudentID int64
	enrollCalled  bool
	dropCalled    bool
}

func (m *courseEnrollmentMock) ListCourses(ctx context.Context) ([]models.Course, error) {
	return m.courses, m.err
}

func (m *courseEnrollmentMock) CoursePartition(ctx context.Context, courseID int64) (*dto.CoursePartition, error) {
	m.lastCourseID = courseID
	return m.partition, m.err
}

func (m *courseEnrollmentMock) EnrollStudents(ctx context.Context, req dto.EnrollByCourseRequest) (*models.CourseWithStudents, error) {
	m.enrollCalled = true
	m.lastRequest = req
	return m.course, m.err
}

func (m *courseEnrollmentMock) DropStudent(ctx context.Context, courseID, studentID int64) (*models.CourseWithStudents, error) {
	m.dropCalled = true
	m.lastCourseID = courseID
	m.lastStudentID = studentID
	return m.course, m.err
}

type rosterMock struct {
	file   *dto.RosterFile
	err    error
	format dto.RosterFormat
}

func (m *rosterMock) Render(ctx context.Context, courseID int64, format dto.RosterFormat) (*dto.RosterFile, error) {
	m.format = format
	return m.file, m.err
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Detail  string          `json:"detail"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newContext(method, target string, body []byte, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Params = params
	return c, w
}

func TestCourseWithStudentIndex(t *testing.T) {
	mock := &courseEnrollmentMock{courses: []models.Course{{ID: 2, Code: "CS102", Name: "Algorithms"}}}
	h := NewCourseWithStudentHandler(mock, mock, &rosterMock{})

	c, w := newContext(http.MethodGet, "/course-with-student", nil)
	h.Index(c)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, "Courses fetched successfully!", env.Message)
	assert.Contains(t, string(env.Data), `"code":"CS102"`)
}

func TestCourseWithStudentShowScenarioAfterDrop(t *testing.T) {
	mock := &courseEnrollmentMock{partition: &dto.CoursePartition{
		Enrolled:   []models.EnrolledStudent{},
		Unenrolled: []models.StudentSummary{{ID: 1, Name: "Ana", Email: "ana@example.com"}},
	}}
	h := NewCourseWithStudentHandler(mock, mock, &rosterMock{})

	c, w := newContext(http.MethodGet, "/course-with-student/2", nil, gin.Param{Key: "courseId", Value: "2"})
	h.Show(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), mock.lastCourseID)
	var data dto.CoursePartition
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Empty(t, data.Enrolled)
	require.Len(t, data.Unenrolled, 1)
	assert.Equal(t, int64(1), data.Unenrolled[0].ID)
	assert.JSONEq(t, `{"enrolled":[],"unenrolled":[{"id":1,"name":"Ana","email":"ana@example.com"}]}`, string(decode(t, w).Data))
}

func TestCourseWithStudentShowRejectsNonNumericID(t *testing.T) {
	mock := &courseEnrollmentMock{}
	h := NewCourseWithStudentHandler(mock, mock, &rosterMock{})

	c, w := newContext(http.MethodGet, "/course-with-student/abc", nil, gin.Param{Key: "courseId", Value: "abc"})
	h.Show(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "invalid courseId", env.Message)
	assert.NotEmpty(t, env.Detail)
	assert.Zero(t, mock.lastCourseID)
}

func TestCourseWithStudentShowNotFound(t *testing.T) {
	mock := &courseEnrollmentMock{err: appErrors.Clone(appErrors.ErrNotFound, "course not found")}
	h := NewCourseWithStudentHandler(mock, mock, &rosterMock{})

	c, w := newContext(http.MethodGet, "/course-with-student/99", nil, gin.Param{Key: "courseId", Value: "99"})
	h.Show(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "course not found", decode(t, w).Message)
}

func TestCourseWithStudentStore(t *testing.T) {
	mock := &courseEnrollmentMock{course: &models.CourseWithStudents{
		Course:   models.Course{ID: 2},
		Students: []models.EnrolledStudent{{Student: models.Student{ID: 5}, EnrolledAt: time.Now()}},
	}}
	h := NewCourseWithStudentHandler(mock, mock, &rosterMock{})

	c, w := newContext(http.MethodPost, "/course-with-student", []byte(`{"selectedCourseId":2,"student":[5,6]}`))
	h.Store(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mock.enrollCalled)
	assert.Equal(t, dto.EnrollByCourseRequest{SelectedCourseID: 2, Student: []int64{5, 6}}, mock.lastRequest)
	assert.Equal(t, "Students Enrolled Successfully!", decode(t, w).Message)
}

func TestCourseWithStudentStoreInvalidBody(t *testing.T) {
	mock := &courseEnrollmentMock{}
	h := NewCourseWithStudentHandler(mock, mock, &rosterMock{})

	c, w := newContext(http.MethodPost, "/course-with-student", []byte(`{"selectedCourseId":"two"`))
	h.Store(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mock.enrollCalled)
	assert.NotEmpty(t, decode(t, w).Detail)
}

func TestCourseWithStudentStoreUnknownStudent(t *testing.T) {
	mock := &courseEnrollmentMock{err: appErrors.WithDetail(appErrors.ErrValidation, "unknown student ids", "student not found: 9999")}
	h := NewCourseWithStudentHandler(mock, mock, &rosterMock{})

	c, w := newContext(http.MethodPost, "/course-with-student", []byte(`{"selectedCourseId":2,"student":[1,9999]}`))
	h.Store(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, "unknown student ids", env.Message)
	assert.Equal(t, "student not found: 9999", env.Detail)
}

func TestCourseWithStudentDestroy(t *testing.T) {
	mock := &courseEnrollmentMock{course: &models.CourseWithStudents{Course: models.Course{ID: 2}, Students: []models.EnrolledStudent{}}}
	h := NewCourseWithStudentHandler(mock, mock, &rosterMock{})

	c, w := newContext(http.MethodDelete, "/course-with-student/2/1", nil,
		gin.Param{Key: "courseId", Value: "2"}, gin.Param{Key: "studentId", Value: "1"})
	h.Destroy(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2), mock.lastCourseID)
	assert.Equal(t, int64(1), mock.lastStudentID)
	assert.Equal(t, "Student Unenrolled Successfully!", decode(t, w).Message)
}

func TestCourseWithStudentInternalErrorHidesDetail(t *testing.T) {
	mock := &courseEnrollmentMock{err: appErrors.Wrap(assert.AnError, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Unable to enroll student.")}
	h := NewCourseWithStudentHandler(mock, mock, &rosterMock{})

	c, w := newContext(http.MethodPost, "/course-with-student", []byte(`{"selectedCourseId":2,"student":[1]}`))
	h.Store(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	env := decode(t, w)
	assert.Equal(t, "Unable to enroll student.", env.Message)
	assert.Empty(t, env.Detail)
}

func TestCourseWithStudentRoster(t *testing.T) {
	roster := &rosterMock{file: &dto.RosterFile{Filename: "roster-cs102.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("ID,Name\n")}}
	h := NewCourseWithStudentHandler(&courseEnrollmentMock{}, &courseEnrollmentMock{}, roster)

	c, w := newContext(http.MethodGet, "/course-with-student/2/roster?format=csv", nil, gin.Param{Key: "courseId", Value: "2"})
	h.Roster(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.RosterFormatCSV, roster.format)
	assert.Equal(t, `attachment; filename="roster-cs102.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID,Name\n", w.Body.String())
}
