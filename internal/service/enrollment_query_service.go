package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
)

type studentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ListAll(ctx context.Context) ([]models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ListAll(ctx context.Context) ([]models.Course, error)
}

type enrollmentReader interface {
	StudentsInCourse(ctx context.Context, courseID int64) ([]models.EnrolledStudent, error)
	StudentsNotInCourse(ctx context.Context, courseID int64) ([]models.StudentSummary, error)
	CoursesForStudent(ctx context.Context, studentID int64) ([]models.EnrolledCourse, error)
	CoursesNotForStudent(ctx context.Context, studentID int64) ([]models.Course, error)
}

// EnrollmentQueryService builds enrolled/unenrolled partitions straight from the store.
// Only the flat anchor catalogs go through the cache; partitions are always read live.
type EnrollmentQueryService struct {
	students    studentReader
	courses     courseReader
	enrollments enrollmentReader
	cache       *CacheService
	logger      *zap.Logger
}

// NewEnrollmentQueryService constructs the query service. cache may be nil.
func NewEnrollmentQueryService(students studentReader, courses courseReader, enrollments enrollmentReader, cache *CacheService, logger *zap.Logger) *EnrollmentQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentQueryService{
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		cache:       cache,
		logger:      logger,
	}
}

// ListCourses returns every course for the by-course anchor picker.
func (s *EnrollmentQueryService) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if s.cache.Get(ctx, catalogCoursesKey, &courses) {
		return courses, nil
	}
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	s.cache.Set(ctx, catalogCoursesKey, courses, 0)
	return courses, nil
}

// ListStudents returns every student for the by-student anchor picker.
func (s *EnrollmentQueryService) ListStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if s.cache.Get(ctx, catalogStudentsKey, &students) {
		return students, nil
	}
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	s.cache.Set(ctx, catalogStudentsKey, students, 0)
	return students, nil
}

// ListEnrolledForCourse returns the students joined to courseID.
func (s *EnrollmentQueryService) ListEnrolledForCourse(ctx context.Context, courseID int64) ([]models.EnrolledStudent, error) {
	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}
	return s.studentsIn(ctx, courseID)
}

// ListUnenrolledForCourse returns the students not joined to courseID.
func (s *EnrollmentQueryService) ListUnenrolledForCourse(ctx context.Context, courseID int64) ([]models.StudentSummary, error) {
	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}
	return s.studentsNotIn(ctx, courseID)
}

// ListEnrolledForStudent returns the courses studentID is enrolled in.
func (s *EnrollmentQueryService) ListEnrolledForStudent(ctx context.Context, studentID int64) ([]models.EnrolledCourse, error) {
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}
	return s.coursesFor(ctx, studentID)
}

// ListUnenrolledForStudent returns the courses studentID can still take.
func (s *EnrollmentQueryService) ListUnenrolledForStudent(ctx context.Context, studentID int64) ([]models.Course, error) {
	if _, err := s.student(ctx, studentID); err != nil {
		return nil, err
	}
	return s.coursesNotFor(ctx, studentID)
}

// CoursePartition splits all students into enrolled and unenrolled relative to courseID.
func (s *EnrollmentQueryService) CoursePartition(ctx context.Context, courseID int64) (*dto.CoursePartition, error) {
	if _, err := s.course(ctx, courseID); err != nil {
		return nil, err
	}
	enrolled, err := s.studentsIn(ctx, courseID)
	if err != nil {
		return nil, err
	}
	unenrolled, err := s.studentsNotIn(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return &dto.CoursePartition{Enrolled: enrolled, Unenrolled: unenrolled}, nil
}

// StudentPartition returns the student with its courses plus the courses it is not enrolled in.
func (s *EnrollmentQueryService) StudentPartition(ctx context.Context, studentID int64) (*dto.StudentPartition, error) {
	student, err := s.StudentWithCourses(ctx, studentID)
	if err != nil {
		return nil, err
	}
	available, err := s.coursesNotFor(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &dto.StudentPartition{Student: student, Course: available}, nil
}

// CourseWithStudents loads a course together with its roster.
func (s *EnrollmentQueryService) CourseWithStudents(ctx context.Context, courseID int64) (*models.CourseWithStudents, error) {
	course, err := s.course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	students, err := s.studentsIn(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return &models.CourseWithStudents{Course: *course, Students: students}, nil
}

// StudentWithCourses loads a student together with its enrolled courses.
func (s *EnrollmentQueryService) StudentWithCourses(ctx context.Context, studentID int64) (*models.StudentWithCourses, error) {
	student, err := s.student(ctx, studentID)
	if err != nil {
		return nil, err
	}
	courses, err := s.coursesFor(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &models.StudentWithCourses{Student: *student, Courses: courses}, nil
}

func (s *EnrollmentQueryService) course(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *EnrollmentQueryService) student(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *EnrollmentQueryService) studentsIn(ctx context.Context, courseID int64) ([]models.EnrolledStudent, error) {
	students, err := s.enrollments.StudentsInCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students")
	}
	return students, nil
}

func (s *EnrollmentQueryService) studentsNotIn(ctx context.Context, courseID int64) ([]models.StudentSummary, error) {
	students, err := s.enrollments.StudentsNotInCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unenrolled students")
	}
	return students, nil
}

func (s *EnrollmentQueryService) coursesFor(ctx context.Context, studentID int64) ([]models.EnrolledCourse, error) {
	courses, err := s.enrollments.CoursesForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled courses")
	}
	return courses, nil
}

func (s *EnrollmentQueryService) coursesNotFor(ctx context.Context, studentID int64) ([]models.Course, error) {
	courses, err := s.enrollments.CoursesNotForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unenrolled courses")
	}
	return courses, nil
}
