package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// memStore is an in-memory stand-in for the three repositories sharing one join table.
type memStore struct {
	students map[int64]models.Student
	courses  map[int64]models.Course
	pairs    map[models.Pair]time.Time
	nextID   int64

	attachCalls int
	attachErrs  []error
	detachErr   error
	findErr     error
}

func newMemStore() *memStore {
	return &memStore{
		students: map[int64]models.Student{},
		courses:  map[int64]models.Course{},
		pairs:    map[models.Pair]time.Time{},
		nextID:   100,
	}
}

func (m *memStore) addStudent(id int64, name string) {
	m.students[id] = models.Student{ID: id, Name: name, Email: strings.ToLower(name) + "@example.com", Birthdate: models.NewDate(2001, time.April, 9)}
}

func (m *memStore) addCourse(id int64, code, name string) {
	m.courses[id] = models.Course{ID: id, Code: code, Name: name, Units: 3}
}

func (m *memStore) enrolled(courseID int64) []int64 {
	var ids []int64
	for p := range m.pairs {
		if p.CourseID == courseID {
			ids = append(ids, p.StudentID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *memStore) studentList() []models.Student {
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memStore) courseList() []models.Course {
	out := make([]models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type memStudents struct{ *memStore }

func (m memStudents) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (m memStudents) ListAll(ctx context.Context) ([]models.Student, error) {
	return m.studentList(), nil
}

func (m memStudents) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	var missing []int64
	for _, id := range ids {
		if _, ok := m.students[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (m memStudents) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	all := m.studentList()
	return all, len(all), nil
}

func (m memStudents) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	for _, s := range m.students {
		if strings.EqualFold(s.Email, email) && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m memStudents) Create(ctx context.Context, student *models.Student) error {
	m.nextID++
	student.ID = m.nextID
	m.students[student.ID] = *student
	return nil
}

func (m memStudents) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

// Delete mirrors ON DELETE CASCADE on course_student.
func (m memStudents) Delete(ctx context.Context, id int64) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	for p := range m.pairs {
		if p.StudentID == id {
			delete(m.pairs, p)
		}
	}
	return nil
}

type memCourses struct{ *memStore }

func (m memCourses) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (m memCourses) ListAll(ctx context.Context) ([]models.Course, error) {
	return m.courseList(), nil
}

func (m memCourses) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	var missing []int64
	for _, id := range ids {
		if _, ok := m.courses[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type memEnrollments struct{ *memStore }

func (m memEnrollments) StudentsInCourse(ctx context.Context, courseID int64) ([]models.EnrolledStudent, error) {
	out := []models.EnrolledStudent{}
	for _, s := range m.studentList() {
		if at, ok := m.pairs[models.Pair{StudentID: s.ID, CourseID: courseID}]; ok {
			out = append(out, models.EnrolledStudent{Student: s, EnrolledAt: at})
		}
	}
	return out, nil
}

func (m memEnrollments) StudentsNotInCourse(ctx context.Context, courseID int64) ([]models.StudentSummary, error) {
	out := []models.StudentSummary{}
	for _, s := range m.studentList() {
		if _, ok := m.pairs[models.Pair{StudentID: s.ID, CourseID: courseID}]; !ok {
			out = append(out, models.StudentSummary{ID: s.ID, Name: s.Name, Email: s.Email})
		}
	}
	return out, nil
}

func (m memEnrollments) CoursesForStudent(ctx context.Context, studentID int64) ([]models.EnrolledCourse, error) {
	out := []models.EnrolledCourse{}
	for _, c := range m.courseList() {
		if at, ok := m.pairs[models.Pair{StudentID: studentID, CourseID: c.ID}]; ok {
			out = append(out, models.EnrolledCourse{Course: c, EnrolledAt: at})
		}
	}
	return out, nil
}

func (m memEnrollments) CoursesNotForStudent(ctx context.Context, studentID int64) ([]models.Course, error) {
	out := []models.Course{}
	for _, c := range m.courseList() {
		if _, ok := m.pairs[models.Pair{StudentID: studentID, CourseID: c.ID}]; !ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memEnrollments) Attach(ctx context.Context, pairs []models.Pair, enrolledAt time.Time) (int64, error) {
	m.attachCalls++
	if len(m.attachErrs) > 0 {
		err := m.attachErrs[0]
		m.attachErrs = m.attachErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	var inserted int64
	for _, p := range pairs {
		if _, ok := m.pairs[p]; ok {
			continue
		}
		m.pairs[p] = enrolledAt
		inserted++
	}
	return inserted, nil
}

func (m memEnrollments) Detach(ctx context.Context, pair models.Pair) (int64, error) {
	if m.detachErr != nil {
		return 0, m.detachErr
	}
	if _, ok := m.pairs[pair]; !ok {
		return 0, nil
	}
	delete(m.pairs, pair)
	return 1, nil
}

// seededStore holds students 1, 5, 6 and courses 2, 3, 4.
func seededStore() *memStore {
	m := newMemStore()
	m.addStudent(1, "Ana")
	m.addStudent(5, "Budi")
	m.addStudent(6, "Citra")
	m.addCourse(2, "CS102", "Algorithms")
	m.addCourse(3, "CS103", "Compilers")
	m.addCourse(4, "CS104", "Databases")
	return m
}

func newEnrollmentServices(m *memStore) (*EnrollmentQueryService, *EnrollmentMutationService) {
	query := NewEnrollmentQueryService(memStudents{m}, memCourses{m}, memEnrollments{m}, nil, nil)
	mutation := NewEnrollmentMutationService(memStudents{m}, memCourses{m}, memEnrollments{m}, query, nil, nil, nil)
	return query, mutation
}
