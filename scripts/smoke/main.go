package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	"github.com/noah-isme/enrollment-api/pkg/enrollclient"
)

type step struct {
	name string
	run  func(ctx context.Context) error
}

func main() {
	var (
		baseURL string
		timeout time.Duration
	)
	flag.StringVar(&baseURL, "base", "http://localhost:8000/api/v1", "Enrollment API base URL including prefix")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	logr, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	client := enrollclient.NewClient(baseURL, enrollclient.WithHTTPClient(&http.Client{Timeout: timeout}))
	run := newRun(client, logr)

	ctx := context.Background()
	failed := 0
	for _, s := range run.steps() {
		start := time.Now()
		if err := s.run(ctx); err != nil {
			failed++
			logr.Error("step failed", zap.String("step", s.name), zap.Error(err))
			break
		}
		logr.Info("step passed", zap.String("step", s.name), zap.Duration("took", time.Since(start)))
	}
	run.cleanup(ctx)

	if failed > 0 {
		os.Exit(1)
	}
}

type smokeRun struct {
	client   *enrollclient.Client
	logger   *zap.Logger
	byCourse *enrollclient.Manager
	suffix   string

	students []*models.Student
	course   *models.Course
	missing  int64
}

func newRun(client *enrollclient.Client, logger *zap.Logger) *smokeRun {
	notifier := enrollclient.NewLogNotifier(logger)
	return &smokeRun{
		client:   client,
		logger:   logger,
		byCourse: enrollclient.NewByCourse(client, enrollclient.WithNotifier(notifier)),
		suffix:   fmt.Sprintf("%d", time.Now().UnixNano()),
	}
}

func (r *smokeRun) steps() []step {
	return []step{
		{"create fixtures", r.createFixtures},
		{"open course dialog", r.openCourse},
		{"enroll selected students", r.enrollSelected},
		{"enroll twice keeps one row", r.enrollTwice},
		{"unknown student rejected", r.rejectUnknown},
		{"student view lists course", r.studentView},
		{"roster download", r.roster},
		{"unenroll and repeat is a no-op", r.unenroll},
	}
}

func (r *smokeRun) createFixtures(ctx context.Context) error {
	for i, name := range []string{"Smoke Ana", "Smoke Budi", "Smoke Ghost"} {
		s, err := r.client.CreateStudent(ctx, dto.StudentRequest{
			Name:      name,
			Email:     fmt.Sprintf("smoke-%d-%s@example.com", i, r.suffix),
			Birthdate: models.NewDate(2005, time.January, 2),
		})
		if err != nil {
			return err
		}
		r.students = append(r.students, s)
	}
	ghost := r.students[2]
	r.students = r.students[:2]
	if err := r.client.DeleteStudent(ctx, ghost.ID); err != nil {
		return err
	}
	r.missing = ghost.ID

	course, err := r.client.CreateCourse(ctx, dto.CourseRequest{
		Code:  "SMK-" + r.suffix[len(r.suffix)-6:],
		Name:  "Smoke Course " + r.suffix,
		Units: 3,
	})
	if err != nil {
		return err
	}
	r.course = course
	return nil
}

func (r *smokeRun) openCourse(ctx context.Context) error {
	p, err := r.byCourse.Open(ctx, r.course.ID)
	if err != nil {
		return err
	}
	if len(p.Enrolled) != 0 {
		return fmt.Errorf("new course has %d enrolled students", len(p.Enrolled))
	}
	for _, s := range r.students {
		if !contains(p.UnenrolledIDs(), s.ID) {
			return fmt.Errorf("student %d missing from unenrolled list", s.ID)
		}
	}
	return nil
}

func (r *smokeRun) enrollSelected(ctx context.Context) error {
	for _, s := range r.students {
		r.byCourse.Toggle(s.ID)
	}
	if err := r.byCourse.Enroll(ctx); err != nil {
		return err
	}
	return r.expectEnrolled(ctx, r.students[0].ID, r.students[1].ID)
}

func (r *smokeRun) enrollTwice(ctx context.Context) error {
	if _, err := r.client.EnrollStudents(ctx, r.course.ID, []int64{r.students[0].ID, r.students[0].ID}); err != nil {
		return err
	}
	return r.expectEnrolled(ctx, r.students[0].ID, r.students[1].ID)
}

func (r *smokeRun) rejectUnknown(ctx context.Context) error {
	_, err := r.client.EnrollStudents(ctx, r.course.ID, []int64{r.students[0].ID, r.missing})
	if !enrollclient.IsStatus(err, http.StatusBadRequest) {
		return fmt.Errorf("expected 400 for student %d, got %v", r.missing, err)
	}
	return nil
}

func (r *smokeRun) studentView(ctx context.Context) error {
	byStudent := enrollclient.NewByStudent(r.client)
	p, err := byStudent.Open(ctx, r.students[0].ID)
	if err != nil {
		return err
	}
	if !contains(p.EnrolledIDs(), r.course.ID) {
		return fmt.Errorf("course %d not listed for student %d", r.course.ID, r.students[0].ID)
	}
	if contains(p.UnenrolledIDs(), r.course.ID) {
		return errors.New("course listed as both enrolled and unenrolled")
	}
	return nil
}

func (r *smokeRun) roster(ctx context.Context) error {
	file, err := r.client.Roster(ctx, r.course.ID, dto.RosterFormatCSV)
	if err != nil {
		return err
	}
	if len(file.Body) == 0 || file.Filename == "" {
		return errors.New("empty roster download")
	}
	return nil
}

func (r *smokeRun) unenroll(ctx context.Context) error {
	target := r.students[1].ID
	for i := 0; i < 2; i++ {
		if err := r.byCourse.Unenroll(ctx, target); err != nil {
			return err
		}
	}
	return r.expectEnrolled(ctx, r.students[0].ID)
}

func (r *smokeRun) expectEnrolled(ctx context.Context, ids ...int64) error {
	p, err := r.byCourse.Partition(ctx)
	if err != nil {
		return err
	}
	got := p.EnrolledIDs()
	if len(got) != len(ids) {
		return fmt.Errorf("expected enrolled %v, got %v", ids, got)
	}
	for _, id := range ids {
		if !contains(got, id) {
			return fmt.Errorf("expected enrolled %v, got %v", ids, got)
		}
	}
	return nil
}

func (r *smokeRun) cleanup(ctx context.Context) {
	if r.course != nil {
		if err := r.client.DeleteCourse(ctx, r.course.ID); err != nil {
			r.logger.Warn("cleanup course", zap.Error(err))
		}
	}
	for _, s := range r.students {
		if err := r.client.DeleteStudent(ctx, s.ID); err != nil {
			r.logger.Warn("cleanup student", zap.Int64("id", s.ID), zap.Error(err))
		}
	}
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
