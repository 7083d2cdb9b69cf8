package enrollclient

import (
	"context"
	"time"
)

// enrollmentAPI is the subset of Client the managers call.
type enrollmentAPI interface {
	ListCourses(ctx context.Context) ([]Course, error)
	ListStudents(ctx context.Context) ([]Student, error)
	CoursePartition(ctx context.Context, courseID int64) (*CoursePartitionData, error)
	StudentPartition(ctx context.Context, studentID int64) (*StudentPartitionData, error)
	EnrollStudents(ctx context.Context, courseID int64, studentIDs []int64) (*CourseWithStudents, error)
	EnrollCourses(ctx context.Context, studentID int64, courseIDs []int64) (*StudentWithCourses, error)
	DropStudent(ctx context.Context, courseID, studentID int64) (*CourseWithStudents, error)
	DropCourse(ctx context.Context, studentID, courseID int64) (*StudentWithCourses, error)
}

// enrollmentContext adapts one direction of the relationship to the manager.
type enrollmentContext interface {
	anchorsKey() QueryKey
	partitionKey(anchorID int64) QueryKey
	anchors(ctx context.Context) ([]Anchor, error)
	partition(ctx context.Context, anchorID int64) (*Partition, error)
	enroll(ctx context.Context, anchorID int64, targetIDs []int64) error
	unenroll(ctx context.Context, anchorID, targetID int64) error
	enrolledMessage() string
	unenrolledMessage() string
}

// byCourse anchors on a course and targets students.
type byCourse struct {
	api enrollmentAPI
}

func (byCourse) anchorsKey() QueryKey { return QueryKey{Resource: ResourceCourses} }

func (byCourse) partitionKey(anchorID int64) QueryKey {
	return QueryKey{Resource: ResourceCoursePartition, AnchorID: anchorID}
}

func (b byCourse) anchors(ctx context.Context) ([]Anchor, error) {
	courses, err := b.api.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Anchor, len(courses))
	for i, c := range courses {
		out[i] = Anchor{ID: c.ID, Label: c.Name, Detail: c.Code}
	}
	return out, nil
}

func (b byCourse) partition(ctx context.Context, courseID int64) (*Partition, error) {
	data, err := b.api.CoursePartition(ctx, courseID)
	if err != nil {
		return nil, err
	}
	p := &Partition{AnchorID: courseID, Enrolled: []Entry{}, Unenrolled: []Entry{}}
	for _, s := range data.Enrolled {
		p.Enrolled = append(p.Enrolled, confirmedEntry(s.ID, s.Name, s.Email, timePtr(s.EnrolledAt)))
	}
	for _, s := range data.Unenrolled {
		p.Unenrolled = append(p.Unenrolled, confirmedEntry(s.ID, s.Name, s.Email, nil))
	}
	return p, nil
}

func (b byCourse) enroll(ctx context.Context, courseID int64, studentIDs []int64) error {
	_, err := b.api.EnrollStudents(ctx, courseID, studentIDs)
	return err
}

func (b byCourse) unenroll(ctx context.Context, courseID, studentID int64) error {
	_, err := b.api.DropStudent(ctx, courseID, studentID)
	return err
}

func (byCourse) enrolledMessage() string   { return "Students Enrolled Successfully!" }
func (byCourse) unenrolledMessage() string { return "Student Unenrolled Successfully!" }

// byStudent anchors on a student and targets courses.
type byStudent struct {
	api enrollmentAPI
}

func (byStudent) anchorsKey() QueryKey { return QueryKey{Resource: ResourceStudents} }

func (byStudent) partitionKey(anchorID int64) QueryKey {
	return QueryKey{Resource: ResourceStudentPartition, AnchorID: anchorID}
}

func (b byStudent) anchors(ctx context.Context) ([]Anchor, error) {
	students, err := b.api.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Anchor, len(students))
	for i, s := range students {
		out[i] = Anchor{ID: s.ID, Label: s.Name, Detail: s.Email}
	}
	return out, nil
}

func (b byStudent) partition(ctx context.Context, studentID int64) (*Partition, error) {
	data, err := b.api.StudentPartition(ctx, studentID)
	if err != nil {
		return nil, err
	}
	p := &Partition{AnchorID: studentID, Enrolled: []Entry{}, Unenrolled: []Entry{}}
	if data.Student != nil {
		for _, c := range data.Student.Courses {
			p.Enrolled = append(p.Enrolled, confirmedEntry(c.ID, c.Name, c.Code, timePtr(c.EnrolledAt)))
		}
	}
	for _, c := range data.Course {
		p.Unenrolled = append(p.Unenrolled, confirmedEntry(c.ID, c.Name, c.Code, nil))
	}
	return p, nil
}

func (b byStudent) enroll(ctx context.Context, studentID int64, courseIDs []int64) error {
	_, err := b.api.EnrollCourses(ctx, studentID, courseIDs)
	return err
}

func (b byStudent) unenroll(ctx context.Context, studentID, courseID int64) error {
	_, err := b.api.DropCourse(ctx, studentID, courseID)
	return err
}

func (byStudent) enrolledMessage() string   { return "Student Enrolled Successfully!" }
func (byStudent) unenrolledMessage() string { return "Course Unenrolled Successfully!" }

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
