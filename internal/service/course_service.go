package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/validator"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
}

// CourseService handles course use-cases.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validator, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns courses and pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	return courses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "course not found", "failed to load course")
	}
	return course, nil
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	if err := s.validate(ctx, req, 0); err != nil {
		return nil, err
	}
	course := &models.Course{
		Code:        strings.TrimSpace(req.Code),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Units:       req.Units,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, writeError(err, "course code or name already used", "failed to create course")
	}
	s.cache.Invalidate(ctx, catalogCoursesKey)
	s.logger.Info("course created", zap.Int64("course_id", course.ID))
	return course, nil
}

// Update replaces the editable fields of a course.
func (s *CourseService) Update(ctx context.Context, id int64, req dto.CourseRequest) (*models.Course, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req, id); err != nil {
		return nil, err
	}
	course.Code = strings.TrimSpace(req.Code)
	course.Name = strings.TrimSpace(req.Name)
	course.Description = req.Description
	course.Units = req.Units
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, writeError(err, "course code or name already used", "failed to update course")
	}
	s.cache.Invalidate(ctx, catalogCoursesKey)
	return course, nil
}

// Delete removes a course together with its roster.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundOrInternal(err, "course not found", "failed to delete course")
	}
	s.cache.Invalidate(ctx, catalogCoursesKey)
	s.logger.Info("course deleted", zap.Int64("course_id", id))
	return nil
}

func (s *CourseService) validate(ctx context.Context, req dto.CourseRequest, excludeID int64) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	exists, err := s.repo.ExistsByCode(ctx, strings.TrimSpace(req.Code), excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}
	exists, err = s.repo.ExistsByName(ctx, strings.TrimSpace(req.Name), excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate course name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "course name already used")
	}
	return nil
}
