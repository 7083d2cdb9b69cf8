// Package enrollclient is a typed client for the enrollment API together with the
// per-context state manager that drives enroll/unenroll dialogs.
package enrollclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("enrollclient: %d %s: %s", e.Status, e.Message, e.Detail)
	}
	return fmt.Sprintf("enrollclient: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Client talks to the API under a base URL that already includes the prefix, e.g. http://host/api/v1.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient constructs a Client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCourses returns every course, the anchors of the by-course context.
func (c *Client) ListCourses(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	err := c.do(ctx, http.MethodGet, "/course-with-student", nil, &out)
	return out, err
}

// CoursePartition returns the enrolled and unenrolled students of a course.
func (c *Client) CoursePartition(ctx context.Context, courseID int64) (*dto.CoursePartition, error) {
	var out dto.CoursePartition
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/course-with-student/%d", courseID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrollStudents attaches studentIDs to courseID.
func (c *Client) EnrollStudents(ctx context.Context, courseID int64, studentIDs []int64) (*models.CourseWithStudents, error) {
	body := dto.EnrollByCourseRequest{SelectedCourseID: courseID, Student: studentIDs}
	var out models.CourseWithStudents
	if err := c.do(ctx, http.MethodPost, "/course-with-student", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DropStudent detaches studentID from courseID.
func (c *Client) DropStudent(ctx context.Context, courseID, studentID int64) (*models.CourseWithStudents, error) {
	var out models.CourseWithStudents
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/course-with-student/%d/%d", courseID, studentID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListStudents returns every student, the anchors of the by-student context.
func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	err := c.do(ctx, http.MethodGet, "/student-with-course", nil, &out)
	return out, err
}

// StudentPartition returns a student with its courses and the courses still available.
func (c *Client) StudentPartition(ctx context.Context, studentID int64) (*dto.StudentPartition, error) {
	var out dto.StudentPartition
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/student-with-course/%d", studentID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrollCourses attaches courseIDs to studentID.
func (c *Client) EnrollCourses(ctx context.Context, studentID int64, courseIDs []int64) (*models.StudentWithCourses, error) {
	body := dto.EnrollByStudentRequest{SelectedStudentID: studentID, Course: courseIDs}
	var out models.StudentWithCourses
	if err := c.do(ctx, http.MethodPost, "/student-with-course", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DropCourse detaches courseID from studentID.
func (c *Client) DropCourse(ctx context.Context, studentID, courseID int64) (*models.StudentWithCourses, error) {
	var out models.StudentWithCourses
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/student-with-course/%d/%d", studentID, courseID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Roster downloads the roster of a course as csv or pdf.
func (c *Client) Roster(ctx context.Context, courseID int64, format dto.RosterFormat) (*dto.RosterFile, error) {
	path := fmt.Sprintf("/course-with-student/%d/roster", courseID)
	if format != "" {
		path += "?format=" + url.QueryEscape(string(format))
	}
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp.StatusCode, body)
	}
	file := &dto.RosterFile{ContentType: resp.Header.Get("Content-Type"), Body: body}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		file.Filename = params["filename"]
	}
	return file, nil
}

// GetStudent fetches one student.
func (c *Client) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	var out models.Student
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/students/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateStudent registers a student.
func (c *Client) CreateStudent(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	var out models.Student
	if err := c.do(ctx, http.MethodPost, "/students", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStudent replaces a student's fields.
func (c *Client) UpdateStudent(ctx context.Context, id int64, req dto.StudentRequest) (*models.Student, error) {
	var out models.Student
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/students/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteStudent removes a student together with its enrollments.
func (c *Client) DeleteStudent(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/students/%d", id), nil, nil)
}

// GetCourse fetches one course.
func (c *Client) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCourse registers a course.
func (c *Client) CreateCourse(ctx context.Context, req dto.CourseRequest) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodPost, "/courses", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCourse replaces a course's fields.
func (c *Client) UpdateCourse(ctx context.Context, id int64, req dto.CourseRequest) (*models.Course, error) {
	var out models.Course
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/courses/%d", id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCourse removes a course together with its roster.
func (c *Client) DeleteCourse(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/courses/%d", id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		apiErr.Message = env.Message
		apiErr.Detail = env.Detail
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
