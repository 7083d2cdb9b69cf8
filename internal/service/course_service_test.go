package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type courseRepoStub struct {
	courses map[int64]models.Course
	created *models.Course
	updated *models.Course
}

func (s *courseRepoStub) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	return nil, 0, nil
}

func (s *courseRepoStub) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (s *courseRepoStub) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	for _, c := range s.courses {
		if strings.EqualFold(c.Code, code) && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *courseRepoStub) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	for _, c := range s.courses {
		if strings.EqualFold(c.Name, name) && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *courseRepoStub) Create(ctx context.Context, course *models.Course) error {
	course.ID = 50
	s.created = course
	return nil
}

func (s *courseRepoStub) Update(ctx context.Context, course *models.Course) error {
	s.updated = course
	return nil
}

func (s *courseRepoStub) Delete(ctx context.Context, id int64) error {
	if _, ok := s.courses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.courses, id)
	return nil
}

func newCourseRepoStub() *courseRepoStub {
	return &courseRepoStub{courses: map[int64]models.Course{
		2: {ID: 2, Code: "CS102", Name: "Algorithms", Units: 4},
	}}
}

func TestCourseServiceCreate(t *testing.T) {
	repo := newCourseRepoStub()
	svc := NewCourseService(repo, nil, nil, nil)

	course, err := svc.Create(context.Background(), dto.CourseRequest{Code: " CS200 ", Name: "Operating Systems", Units: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(50), course.ID)
	assert.Equal(t, "CS200", repo.created.Code)
}

func TestCourseServiceRejectsNegativeUnits(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CourseRequest{Code: "CS200", Name: "OS", Units: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, appErrors.FromError(err).Detail, "units")
}

func TestCourseServiceConflicts(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CourseRequest{Code: "cs102", Name: "Other", Units: 1})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Create(context.Background(), dto.CourseRequest{Code: "CS300", Name: "algorithms", Units: 1})
	require.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, "course name already used", appErrors.FromError(err).Message)
}

func TestCourseServiceUpdate(t *testing.T) {
	repo := newCourseRepoStub()
	svc := NewCourseService(repo, nil, nil, nil)

	course, err := svc.Update(context.Background(), 2, dto.CourseRequest{Code: "CS102", Name: "Algorithms II", Units: 4.5})
	require.NoError(t, err)
	assert.Equal(t, "Algorithms II", course.Name)
	require.NotNil(t, repo.updated)

	_, err = svc.Update(context.Background(), 9, dto.CourseRequest{Code: "X", Name: "Y"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCourseServiceListNeverNil(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), nil, nil, nil)

	courses, pagination, err := svc.List(context.Background(), models.CourseFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.NotNil(t, courses)
	assert.Equal(t, 2, pagination.Page)
}
