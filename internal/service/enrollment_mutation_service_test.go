package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestEnrollCoursesScenario(t *testing.T) {
	m := seededStore()
	query, mutation := newEnrollmentServices(m)
	at := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	mutation.now = fixedClock(at)
	ctx := context.Background()

	student, err := mutation.EnrollCourses(ctx, dto.EnrollByStudentRequest{SelectedStudentID: 1, Course: []int64{2, 3}})
	require.NoError(t, err)
	require.Len(t, student.Courses, 2)
	for _, c := range student.Courses {
		assert.Equal(t, at, c.EnrolledAt)
	}

	partition, err := query.StudentPartition(ctx, 1)
	require.NoError(t, err)
	enrolled := []int64{}
	for _, c := range partition.Student.Courses {
		enrolled = append(enrolled, c.ID)
	}
	assert.ElementsMatch(t, []int64{2, 3}, enrolled)
	for _, c := range partition.Course {
		assert.NotContains(t, []int64{2, 3}, c.ID)
	}
}

func TestEnrollTwiceKeepsOneRow(t *testing.T) {
	m := seededStore()
	_, mutation := newEnrollmentServices(m)
	ctx := context.Background()
	req := dto.EnrollByCourseRequest{SelectedCourseID: 2, Student: []int64{1}}

	_, err := mutation.EnrollStudents(ctx, req)
	require.NoError(t, err)
	first := m.pairs[models.Pair{StudentID: 1, CourseID: 2}]

	mutation.now = fixedClock(first.Add(time.Hour))
	course, err := mutation.EnrollStudents(ctx, req)
	require.NoError(t, err)
	assert.Len(t, course.Students, 1)
	assert.Len(t, m.pairs, 1)
	assert.Equal(t, first, m.pairs[models.Pair{StudentID: 1, CourseID: 2}])
}

func TestEnrollCollapsesDuplicateIDs(t *testing.T) {
	m := seededStore()
	_, mutation := newEnrollmentServices(m)

	course, err := mutation.EnrollStudents(context.Background(), dto.EnrollByCourseRequest{SelectedCourseID: 2, Student: []int64{5, 5, 6}})
	require.NoError(t, err)
	assert.Len(t, course.Students, 2)
	assert.Equal(t, []int64{5, 6}, m.enrolled(2))
}

func TestEnrollWithUnknownTargetWritesNothing(t *testing.T) {
	m := seededStore()
	_, mutation := newEnrollmentServices(m)

	_, err := mutation.EnrollCourses(context.Background(), dto.EnrollByStudentRequest{SelectedStudentID: 1, Course: []int64{2, 9999}})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Detail, "9999")
	assert.Empty(t, m.pairs)
	assert.Zero(t, m.attachCalls)
}

func TestEnrollUnknownAnchorIsNotFound(t *testing.T) {
	_, mutation := newEnrollmentServices(seededStore())

	_, err := mutation.EnrollStudents(context.Background(), dto.EnrollByCourseRequest{SelectedCourseID: 77, Student: []int64{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "course not found", appErrors.FromError(err).Message)
}

func TestEnrollRejectsEmptyPayload(t *testing.T) {
	m := seededStore()
	_, mutation := newEnrollmentServices(m)

	cases := []dto.EnrollByCourseRequest{
		{SelectedCourseID: 2},
		{SelectedCourseID: 2, Student: []int64{}},
		{SelectedCourseID: 0, Student: []int64{1}},
		{SelectedCourseID: 2, Student: []int64{1, -4}},
	}
	for _, req := range cases {
		_, err := mutation.EnrollStudents(context.Background(), req)
		require.Error(t, err)
		assert.ErrorIs(t, err, appErrors.ErrValidation)
	}
	assert.Zero(t, m.attachCalls)
}

func TestEnrollSwallowsConcurrentDuplicate(t *testing.T) {
	m := seededStore()
	m.attachErrs = []error{&pq.Error{Code: "23505"}}
	_, mutation := newEnrollmentServices(m)

	course, err := mutation.EnrollStudents(context.Background(), dto.EnrollByCourseRequest{SelectedCourseID: 2, Student: []int64{1, 5}})
	require.NoError(t, err)
	assert.Equal(t, 2, m.attachCalls)
	assert.Len(t, course.Students, 2)
}

func TestEnrollForeignKeyRaceIsValidation(t *testing.T) {
	m := seededStore()
	m.attachErrs = []error{&pq.Error{Code: "23503"}}
	_, mutation := newEnrollmentServices(m)

	_, err := mutation.EnrollStudents(context.Background(), dto.EnrollByCourseRequest{SelectedCourseID: 2, Student: []int64{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEnrollStoreFailureIsInternal(t *testing.T) {
	m := seededStore()
	m.attachErrs = []error{errors.New("disk full")}
	_, mutation := newEnrollmentServices(m)

	_, err := mutation.EnrollStudents(context.Background(), dto.EnrollByCourseRequest{SelectedCourseID: 2, Student: []int64{1}})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestDropAbsentPairIsNoop(t *testing.T) {
	m := seededStore()
	_, mutation := newEnrollmentServices(m)

	course, err := mutation.DropStudent(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Empty(t, course.Students)

	student, err := mutation.DropCourse(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Empty(t, student.Courses)
}

func TestDropStudentScenario(t *testing.T) {
	m := seededStore()
	m.pairs[models.Pair{StudentID: 1, CourseID: 2}] = time.Now()
	m.pairs[models.Pair{StudentID: 5, CourseID: 2}] = time.Now()
	query, mutation := newEnrollmentServices(m)
	ctx := context.Background()

	_, err := mutation.DropStudent(ctx, 2, 1)
	require.NoError(t, err)

	partition, err := query.CoursePartition(ctx, 2)
	require.NoError(t, err)
	for _, s := range partition.Enrolled {
		assert.NotEqual(t, int64(1), s.ID)
	}
	found := false
	for _, s := range partition.Unenrolled {
		if s.ID == 1 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDropMissingAnchor(t *testing.T) {
	_, mutation := newEnrollmentServices(seededStore())

	_, err := mutation.DropCourse(context.Background(), 99, 2)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = mutation.DropStudent(context.Background(), 0, 1)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDeleteStudentRemovesEnrollments(t *testing.T) {
	m := seededStore()
	m.pairs[models.Pair{StudentID: 5, CourseID: 2}] = time.Now()
	m.pairs[models.Pair{StudentID: 5, CourseID: 3}] = time.Now()
	query, _ := newEnrollmentServices(m)
	students := NewStudentService(memStudents{m}, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, students.Delete(ctx, 5))
	for _, courseID := range []int64{2, 3} {
		roster, err := query.ListEnrolledForCourse(ctx, courseID)
		require.NoError(t, err)
		assert.Empty(t, roster)
	}
}

func TestUniqueIDs(t *testing.T) {
	assert.Equal(t, []int64{3, 1, 2}, uniqueIDs([]int64{3, 1, 3, 2, 1}))
	assert.Equal(t, "1, 9999", joinIDs([]int64{1, 9999}))
}
