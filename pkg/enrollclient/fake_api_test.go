package enrollclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
)

var enrolledAt = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// fakeAPI serves the by-course routes over an in-memory join table.
type fakeAPI struct {
	mu       sync.Mutex
	students map[int64]string
	courses  map[int64]string
	enrolled map[int64]map[int64]bool

	gets       map[string]int
	lastEnroll dto.EnrollByCourseRequest

	getHit        chan int64
	getGate       map[int64]chan struct{}
	enrollHit     chan struct{}
	enrollRelease chan struct{}
	enrollStatus  int
	dropStatus    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		students: map[int64]string{1: "Ana", 5: "Budi", 6: "Citra"},
		courses:  map[int64]string{2: "Algorithms", 3: "Databases"},
		enrolled: map[int64]map[int64]bool{2: {1: true}, 3: {}},
		gets:     map[string]int{},
		getGate:  map[int64]chan struct{}{},
	}
}

func (f *fakeAPI) start(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/api/v1")
}

func (f *fakeAPI) getCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets[path]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/course-with-student"), "/")
	var parts []string
	if rest != "" {
		parts = strings.Split(rest, "/")
	}

	switch {
	case r.Method == http.MethodGet && len(parts) == 0:
		f.mu.Lock()
		f.gets[r.URL.Path]++
		var courses []models.Course
		for _, id := range sortedKeys(f.courses) {
			courses = append(courses, models.Course{ID: id, Code: "C" + strconv.FormatInt(id, 10), Name: f.courses[id]})
		}
		f.mu.Unlock()
		writeEnvelope(w, http.StatusOK, "Courses fetched successfully!", courses)

	case r.Method == http.MethodGet && len(parts) == 1:
		courseID, _ := strconv.ParseInt(parts[0], 10, 64)
		f.mu.Lock()
		f.gets[r.URL.Path]++
		gate := f.getGate[courseID]
		hit := f.getHit
		f.mu.Unlock()
		if hit != nil {
			hit <- courseID
		}
		if gate != nil {
			<-gate
		}
		f.mu.Lock()
		partition := f.partition(courseID)
		f.mu.Unlock()
		writeEnvelope(w, http.StatusOK, "Enrolled students fetched successfully!", partition)

	case r.Method == http.MethodPost && len(parts) == 0:
		var req dto.EnrollByCourseRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.lastEnroll = req
		hit, release, status := f.enrollHit, f.enrollRelease, f.enrollStatus
		f.mu.Unlock()
		if hit != nil {
			hit <- struct{}{}
		}
		if release != nil {
			<-release
		}
		if status >= http.StatusBadRequest {
			writeError(w, status, "Unable to enroll student.")
			return
		}
		f.mu.Lock()
		for _, id := range req.Student {
			f.enrolled[req.SelectedCourseID][id] = true
		}
		f.mu.Unlock()
		writeEnvelope(w, http.StatusCreated, "Students Enrolled Successfully!", map[string]interface{}{"id": req.SelectedCourseID})

	case r.Method == http.MethodDelete && len(parts) == 2:
		courseID, _ := strconv.ParseInt(parts[0], 10, 64)
		studentID, _ := strconv.ParseInt(parts[1], 10, 64)
		f.mu.Lock()
		status := f.dropStatus
		if status < http.StatusBadRequest {
			delete(f.enrolled[courseID], studentID)
		}
		f.mu.Unlock()
		if status >= http.StatusBadRequest {
			writeError(w, status, "Unable to unenroll.")
			return
		}
		writeEnvelope(w, http.StatusOK, "Student Unenrolled Successfully!", map[string]interface{}{"id": courseID})

	default:
		writeError(w, http.StatusNotFound, "route not found")
	}
}

// partition must be called with mu held.
func (f *fakeAPI) partition(courseID int64) dto.CoursePartition {
	out := dto.CoursePartition{Enrolled: []models.EnrolledStudent{}, Unenrolled: []models.StudentSummary{}}
	for _, id := range sortedKeys(f.students) {
		name := f.students[id]
		email := strings.ToLower(name) + "@example.com"
		if f.enrolled[courseID][id] {
			out.Enrolled = append(out.Enrolled, models.EnrolledStudent{
				Student:    models.Student{ID: id, Name: name, Email: email},
				EnrolledAt: enrolledAt,
			})
			continue
		}
		out.Unenrolled = append(out.Unenrolled, models.StudentSummary{ID: id, Name: name, Email: email})
	}
	return out
}

func sortedKeys(m map[int64]string) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"message": message, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

type recordingNotifier struct {
	mu      sync.Mutex
	loading []string
	success []string
	errors  []error
}

func (n *recordingNotifier) Loading(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loading = append(n.loading, msg)
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.success = append(n.success, msg)
}

func (n *recordingNotifier) Error(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, err)
}

func (n *recordingNotifier) counts() (int, int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.loading), len(n.success), len(n.errors)
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for request")
	}
	var zero T
	return zero
}
