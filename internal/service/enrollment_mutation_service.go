package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/internal/repository"
	"github.com/noah-isme/enrollment-api/internal/validator"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type entityChecker interface {
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type studentChecker interface {
	entityChecker
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type courseChecker interface {
	entityChecker
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type enrollmentWriter interface {
	Attach(ctx context.Context, pairs []models.Pair, enrolledAt time.Time) (int64, error)
	Detach(ctx context.Context, pair models.Pair) (int64, error)
}

type anchorLoader interface {
	CourseWithStudents(ctx context.Context, courseID int64) (*models.CourseWithStudents, error)
	StudentWithCourses(ctx context.Context, studentID int64) (*models.StudentWithCourses, error)
}

// EnrollmentMutationService attaches and detaches (student, course) pairs.
type EnrollmentMutationService struct {
	students    studentChecker
	courses     courseChecker
	enrollments enrollmentWriter
	anchors     anchorLoader
	metrics     *MetricsService
	validator   *validator.Validator
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentMutationService builds the mutation service with sane defaults.
func NewEnrollmentMutationService(
	students studentChecker,
	courses courseChecker,
	enrollments enrollmentWriter,
	anchors anchorLoader,
	metrics *MetricsService,
	validate *validator.Validator,
	logger *zap.Logger,
) *EnrollmentMutationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentMutationService{
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		anchors:     anchors,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// EnrollStudents attaches every student in req to the selected course and returns the updated roster.
// Either all students exist and the call commits, or nothing is written.
func (s *EnrollmentMutationService) EnrollStudents(ctx context.Context, req dto.EnrollByCourseRequest) (*models.CourseWithStudents, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordRejected("payload")
		return nil, err
	}
	courseID := req.SelectedCourseID
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		return nil, notFoundOrInternal(err, "course not found", "failed to load course")
	}

	studentIDs := uniqueIDs(req.Student)
	if err := s.ensureExist(ctx, s.students, "student", studentIDs); err != nil {
		return nil, err
	}

	pairs := make([]models.Pair, len(studentIDs))
	for i, id := range studentIDs {
		pairs[i] = models.Pair{StudentID: id, CourseID: courseID}
	}
	inserted, err := s.attach(ctx, pairs)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAttached(anchorCourse, inserted)
	s.logger.Info("students enrolled",
		zap.Int64("course_id", courseID),
		zap.Int64s("student_ids", studentIDs),
		zap.Int64("inserted", inserted),
	)
	return s.anchors.CourseWithStudents(ctx, courseID)
}

// EnrollCourses attaches every course in req to the selected student and returns the student with its courses.
func (s *EnrollmentMutationService) EnrollCourses(ctx context.Context, req dto.EnrollByStudentRequest) (*models.StudentWithCourses, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordRejected("payload")
		return nil, err
	}
	studentID := req.SelectedStudentID
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, notFoundOrInternal(err, "student not found", "failed to load student")
	}

	courseIDs := uniqueIDs(req.Course)
	if err := s.ensureExist(ctx, s.courses, "course", courseIDs); err != nil {
		return nil, err
	}

	pairs := make([]models.Pair, len(courseIDs))
	for i, id := range courseIDs {
		pairs[i] = models.Pair{StudentID: studentID, CourseID: id}
	}
	inserted, err := s.attach(ctx, pairs)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAttached(anchorStudent, inserted)
	s.logger.Info("courses enrolled",
		zap.Int64("student_id", studentID),
		zap.Int64s("course_ids", courseIDs),
		zap.Int64("inserted", inserted),
	)
	return s.anchors.StudentWithCourses(ctx, studentID)
}

// DropStudent removes studentID from courseID. Dropping a student who is not enrolled is a no-op.
func (s *EnrollmentMutationService) DropStudent(ctx context.Context, courseID, studentID int64) (*models.CourseWithStudents, error) {
	if err := validatePair(courseID, studentID); err != nil {
		return nil, err
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		return nil, notFoundOrInternal(err, "course not found", "failed to load course")
	}
	removed, err := s.detach(ctx, models.Pair{StudentID: studentID, CourseID: courseID})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDetached(anchorCourse, removed)
	s.logger.Info("student unenrolled",
		zap.Int64("course_id", courseID),
		zap.Int64("student_id", studentID),
		zap.Int64("removed", removed),
	)
	return s.anchors.CourseWithStudents(ctx, courseID)
}

// DropCourse removes courseID from studentID. Dropping a course the student does not take is a no-op.
func (s *EnrollmentMutationService) DropCourse(ctx context.Context, studentID, courseID int64) (*models.StudentWithCourses, error) {
	if err := validatePair(studentID, courseID); err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return nil, notFoundOrInternal(err, "student not found", "failed to load student")
	}
	removed, err := s.detach(ctx, models.Pair{StudentID: studentID, CourseID: courseID})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDetached(anchorStudent, removed)
	s.logger.Info("course unenrolled",
		zap.Int64("student_id", studentID),
		zap.Int64("course_id", courseID),
		zap.Int64("removed", removed),
	)
	return s.anchors.StudentWithCourses(ctx, studentID)
}

func (s *EnrollmentMutationService) ensureExist(ctx context.Context, checker entityChecker, entity string, ids []int64) error {
	missing, err := checker.MissingIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to validate %s ids", entity))
	}
	if len(missing) == 0 {
		return nil
	}
	s.metrics.RecordRejected("missing_" + entity)
	return appErrors.WithDetail(appErrors.ErrValidation, fmt.Sprintf("unknown %s ids", entity), fmt.Sprintf("%s not found: %s", entity, joinIDs(missing)))
}

// attach writes pairs with one shared timestamp. A unique violation means a concurrent call
// already inserted one of the pairs; the insert is replayed once since ON CONFLICT now skips it.
func (s *EnrollmentMutationService) attach(ctx context.Context, pairs []models.Pair) (int64, error) {
	at := s.now().UTC()
	inserted, err := s.enrollments.Attach(ctx, pairs, at)
	if err != nil && repository.IsUniqueViolation(err) {
		s.logger.Warn("concurrent enrollment detected, retrying", zap.Int("pairs", len(pairs)))
		inserted, err = s.enrollments.Attach(ctx, pairs, at)
	}
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return 0, nil
		}
		if repository.IsForeignKeyViolation(err) {
			return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "student or course no longer exists")
		}
		s.logger.Error("enrollment attach failed", zap.Error(err))
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Unable to enroll student.")
	}
	return inserted, nil
}

func (s *EnrollmentMutationService) detach(ctx context.Context, pair models.Pair) (int64, error) {
	removed, err := s.enrollments.Detach(ctx, pair)
	if err != nil {
		s.logger.Error("enrollment detach failed", zap.Int64("student_id", pair.StudentID), zap.Int64("course_id", pair.CourseID), zap.Error(err))
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Unable to unenroll.")
	}
	return removed, nil
}

func validatePair(anchorID, targetID int64) error {
	if anchorID <= 0 || targetID <= 0 {
		return appErrors.WithDetail(appErrors.ErrValidation, "invalid payload", "ids must be positive integers")
	}
	return nil
}

func notFoundOrInternal(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

// uniqueIDs drops repeated ids keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
