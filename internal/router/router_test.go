package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/config"
	"github.com/stemsi/gradebook-backend/internal/handler"
	"github.com/stemsi/gradebook-backend/internal/middleware"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
	"github.com/stemsi/gradebook-backend/internal/repository/memstore"
	"github.com/stemsi/gradebook-backend/internal/service"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
	Pagination *struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	auth   *service.AuthService
	token  string
}

func newTestServer(t *testing.T, store repository.Store, authEnabled bool) *testServer {
	t.Helper()
	cfg := &config.Config{
		GinMode:     gin.TestMode,
		AuthEnabled: authEnabled,
		JWTSecret:   "test-secret",
		JWTExpiry:   time.Hour,
		BcryptCost:  bcrypt.MinCost,
	}
	log := zerolog.Nop()
	pub := service.NewStoreAuditPublisher(store)

	authService := service.NewAuthService(cfg, store, log)
	gradeService := service.NewGradeService(store, pub, log)
	enrollmentService := service.NewEnrollmentService(store, pub, log)

	handlers := &Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Course:     handler.NewCourseHandler(service.NewCourseService(store, pub, log)),
		Professor:  handler.NewProfessorHandler(service.NewProfessorService(store, pub, log)),
		Student:    handler.NewStudentHandler(service.NewStudentService(store, pub, log)),
		Discipline: handler.NewDisciplineHandler(service.NewDisciplineService(store, pub, log), enrollmentService, gradeService),
		Enrollment: handler.NewEnrollmentHandler(enrollmentService),
		Grade:      handler.NewGradeHandler(gradeService),
		Audit:      handler.NewAuditHandler(service.NewAuditService(store, log)),
		System:     handler.NewSystemHandler(nil, nil, config.StorageMemory, log),
	}
	limiter := middleware.NewRateLimiter(nil, "login", 3, time.Minute, log)

	return &testServer{
		t:      t,
		engine: SetupRouter(authService, limiter, handlers, cfg, log),
		auth:   authService,
	}
}

func (s *testServer) do(method, path string, body interface{}) (int, envelope) {
	s.t.Helper()
	w := s.raw(method, path, body)
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		s.t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func (s *testServer) raw(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				s.t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// create posts body and returns the id of the created record under key.
func (s *testServer) create(path, key string, body interface{}) int64 {
	s.t.Helper()
	status, env := s.do(http.MethodPost, path, body)
	if status != http.StatusCreated {
		s.t.Fatalf("POST %s: status %d, error %+v", path, status, env.Error)
	}
	var data map[string]struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		s.t.Fatalf("POST %s: decode data: %v", path, err)
	}
	return data[key].ID
}

func expectError(t *testing.T, status int, env envelope, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status = %d, want %d (error %+v)", status, wantStatus, env.Error)
	}
	if env.Error == nil || env.Error.Code != wantCode {
		t.Fatalf("error = %+v, want code %s", env.Error, wantCode)
	}
}

// seed creates a course, a professor, a discipline, and a student.
func (s *testServer) seed() (courseID, professorID, disciplineID, studentID int64) {
	courseID = s.create("/api/v1/courses", "course", gin.H{"name": "CS"})
	professorID = s.create("/api/v1/professors", "professor", gin.H{"name": "Ana", "registration": "P1"})
	disciplineID = s.create("/api/v1/disciplines", "discipline", gin.H{
		"name": "POO", "course_id": courseID, "professor_id": professorID,
	})
	studentID = s.create("/api/v1/students", "student", gin.H{"name": "Pedro", "matricula": "2024001"})
	return
}

func TestDisciplineNameUniquePerCourse(t *testing.T) {
	s := newTestServer(t, memstore.New(), false)
	courseID, professorID, _, _ := s.seed()

	status, env := s.do(http.MethodPost, "/api/v1/disciplines", gin.H{
		"name": "POO", "course_id": courseID, "professor_id": professorID,
	})
	expectError(t, status, env, http.StatusBadRequest, "VALIDATION_ERROR")
	if !strings.Contains(env.Error.Message, "already exists") {
		t.Errorf("message = %q", env.Error.Message)
	}

	otherCourse := s.create("/api/v1/courses", "course", gin.H{"name": "IS"})
	s.create("/api/v1/disciplines", "discipline", gin.H{
		"name": "POO", "course_id": otherCourse, "professor_id": professorID,
	})

	status, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/disciplines?course_id=%d", courseID), nil)
	if status != http.StatusOK {
		t.Fatalf("list status %d", status)
	}
	var data struct {
		Disciplines []struct {
			Name       string `json:"name"`
			CourseName string `json:"course_name"`
		} `json:"disciplines"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Disciplines) != 1 || data.Disciplines[0].CourseName != "CS" {
		t.Errorf("filtered list = %+v", data.Disciplines)
	}
}

func TestGradeAverageAndClassification(t *testing.T) {
	s := newTestServer(t, memstore.New(), false)
	_, _, disciplineID, studentID := s.seed()
	s.create(fmt.Sprintf("/api/v1/disciplines/%d/students/%d", disciplineID, studentID), "enrollment", nil)

	w := s.raw(http.MethodPost, "/api/v1/grades", fmt.Sprintf(
		`{"student_id":%d,"discipline_id":%d,"score1":10.0,"score2":4.0}`, studentID, disciplineID))
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{`"average":7.00`, `"score1":10.0`, `"score2":4.0`, `"classification":"PASS"`} {
		if !strings.Contains(body, want) {
			t.Errorf("response %s missing %s", body, want)
		}
	}

	status, env := s.do(http.MethodPost, "/api/v1/grades", fmt.Sprintf(
		`{"student_id":%d,"discipline_id":%d,"score1":10.0,"score2":4.0}`, studentID, disciplineID))
	expectError(t, status, env, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestGradeScoreValidation(t *testing.T) {
	s := newTestServer(t, memstore.New(), false)
	_, _, disciplineID, studentID := s.seed()
	s.create(fmt.Sprintf("/api/v1/disciplines/%d/students/%d", disciplineID, studentID), "enrollment", nil)

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"above range", `{"student_id":%d,"discipline_id":%d,"score1":11,"score2":4}`, "score1"},
		{"two decimals", `{"student_id":%d,"discipline_id":%d,"score1":5,"score2":4.25}`, "score2"},
		{"missing", `{"student_id":%d,"discipline_id":%d,"score1":5}`, "score2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := s.do(http.MethodPost, "/api/v1/grades", fmt.Sprintf(tc.body, studentID, disciplineID))
			expectError(t, status, env, http.StatusBadRequest, "VALIDATION_ERROR")
			if _, ok := env.Error.Fields[tc.field]; !ok {
				t.Errorf("fields = %v, want %s", env.Error.Fields, tc.field)
			}
		})
	}
}

func TestEnrollUnenrollLifecycle(t *testing.T) {
	s := newTestServer(t, memstore.New(), false)
	_, _, disciplineID, studentID := s.seed()
	path := fmt.Sprintf("/api/v1/disciplines/%d/students/%d", disciplineID, studentID)

	s.create(path, "enrollment", nil)

	status, env := s.do(http.MethodPost, path, nil)
	expectError(t, status, env, http.StatusBadRequest, "VALIDATION_ERROR")

	status, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/enrollments?student_id=%d&discipline_id=%d", studentID, disciplineID), nil)
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"student_name":"Pedro"`) {
		t.Fatalf("pair lookup: %d %s", status, env.Data)
	}

	if status, env = s.do(http.MethodDelete, path, nil); status != http.StatusOK {
		t.Fatalf("unenroll status %d (%+v)", status, env.Error)
	}
	status, env = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/enrollments/disciplines/%d/students/%d", disciplineID, studentID), nil)
	expectError(t, status, env, http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteBlockedByDependents(t *testing.T) {
	s := newTestServer(t, memstore.New(), false)
	courseID, professorID, disciplineID, _ := s.seed()

	for _, path := range []string{
		fmt.Sprintf("/api/v1/courses/%d", courseID),
		fmt.Sprintf("/api/v1/professors/%d", professorID),
	} {
		status, env := s.do(http.MethodDelete, path, nil)
		expectError(t, status, env, http.StatusConflict, "DEPENDENCY_EXISTS")
	}

	if status, _ := s.do(http.MethodDelete, fmt.Sprintf("/api/v1/disciplines/%d", disciplineID), nil); status != http.StatusOK {
		t.Fatalf("delete discipline status %d", status)
	}
	if status, _ := s.do(http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", courseID), nil); status != http.StatusOK {
		t.Fatalf("delete course status %d", status)
	}
	status, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/courses/%d", courseID), nil)
	expectError(t, status, env, http.StatusNotFound, "NOT_FOUND")
}

func TestRequestShapeErrors(t *testing.T) {
	s := newTestServer(t, memstore.New(), false)

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"non numeric id", http.MethodGet, "/api/v1/courses/abc", nil, http.StatusBadRequest, "INVALID_ID"},
		{"zero id", http.MethodDelete, "/api/v1/grades/0", nil, http.StatusBadRequest, "INVALID_ID"},
		{"bad filter", http.MethodGet, "/api/v1/grades?student_id=x", nil, http.StatusBadRequest, "INVALID_QUERY"},
		{"blank name", http.MethodPost, "/api/v1/courses", gin.H{"name": "   "}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed json", http.MethodPost, "/api/v1/students", `{"name":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown filter target", http.MethodGet, "/api/v1/disciplines?professor_id=99", nil, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, env := s.do(tc.method, tc.path, tc.body)
			expectError(t, status, env, tc.status, tc.code)
		})
	}
}

func TestExportGrades(t *testing.T) {
	s := newTestServer(t, memstore.New(), false)
	_, _, disciplineID, studentID := s.seed()
	s.create(fmt.Sprintf("/api/v1/disciplines/%d/students/%d", disciplineID, studentID), "enrollment", nil)
	s.create("/api/v1/grades", "grade", fmt.Sprintf(
		`{"student_id":%d,"discipline_id":%d,"score1":6.0,"score2":5.0}`, studentID, disciplineID))

	w := s.raw(http.MethodGet, fmt.Sprintf("/api/v1/disciplines/%d/grades/export", disciplineID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/vnd.openxmlformats") {
		t.Errorf("content type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "grades_poo_") {
		t.Errorf("content disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip archive")
	}
}

func TestAuditLogs(t *testing.T) {
	s := newTestServer(t, memstore.New(), false)
	s.seed()

	status, env := s.do(http.MethodGet, "/api/v1/audit-logs?entity=course&per_page=10", nil)
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if env.Pagination == nil || env.Pagination.TotalItems != 1 || env.Pagination.PerPage != 10 {
		t.Fatalf("pagination = %+v", env.Pagination)
	}
	if !strings.Contains(string(env.Data), `"actor":"anonymous"`) {
		t.Errorf("data = %s", env.Data)
	}

	status, env = s.do(http.MethodGet, "/api/v1/audit-logs", nil)
	if status != http.StatusOK || env.Pagination.TotalItems != 4 || env.Pagination.TotalPages != 1 {
		t.Errorf("unfiltered: %d %+v", status, env.Pagination)
	}
}

func TestAuthEnabled(t *testing.T) {
	s := newTestServer(t, memstore.New(), true)
	if _, err := s.auth.CreateOperator(context.Background(), "registrar@example.com", "Registrar", "secret123"); err != nil {
		t.Fatalf("CreateOperator: %v", err)
	}

	status, env := s.do(http.MethodPost, "/api/v1/courses", gin.H{"name": "CS"})
	expectError(t, status, env, http.StatusUnauthorized, "TOKEN_REQUIRED")

	if status, _ := s.do(http.MethodGet, "/api/v1/courses", nil); status != http.StatusOK {
		t.Errorf("reads should stay open, got %d", status)
	}

	status, env = s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "registrar@example.com", "password": "wrong-pass"})
	expectError(t, status, env, http.StatusUnauthorized, "INVALID_CREDENTIALS")

	status, env = s.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "registrar@example.com", "password": "secret123"})
	if status != http.StatusOK {
		t.Fatalf("login status %d (%+v)", status, env.Error)
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil || login.Token == "" {
		t.Fatalf("login data %s (%v)", env.Data, err)
	}
	s.token = login.Token

	s.create("/api/v1/courses", "course", gin.H{"name": "CS"})

	status, env = s.do(http.MethodGet, "/api/v1/audit-logs", nil)
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"actor":"registrar@example.com"`) {
		t.Errorf("audit actor: %d %s", status, env.Data)
	}

	status, env = s.do(http.MethodGet, "/api/v1/auth/me", nil)
	if status != http.StatusOK || !strings.Contains(string(env.Data), "registrar@example.com") {
		t.Errorf("me: %d %s", status, env.Data)
	}
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestServer(t, memstore.New(), false)
	body := gin.H{"email": "nobody@example.com", "password": "secret123"}

	for i := 0; i < 3; i++ {
		status, env := s.do(http.MethodPost, "/api/v1/auth/login", body)
		expectError(t, status, env, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	}
	status, env := s.do(http.MethodPost, "/api/v1/auth/login", body)
	expectError(t, status, env, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED")
}

type brokenStore struct{}

func (brokenStore) WithTx(context.Context, func(*repository.Repository) error) error {
	return errors.New("connection reset by peer")
}

type racingCourses struct{ repository.CourseRepository }

func (racingCourses) ExistsByName(context.Context, string) (bool, error) { return false, nil }

func (racingCourses) Create(context.Context, *model.Course) error {
	return fmt.Errorf("insert course: %w", repository.ErrDuplicateKey)
}

// racingStore makes every course insert hit the unique constraint after the
// existence check has passed.
type racingStore struct{ repository.Store }

func (s racingStore) WithTx(ctx context.Context, fn func(*repository.Repository) error) error {
	return s.Store.WithTx(ctx, func(r *repository.Repository) error {
		racing := *r
		racing.Courses = racingCourses{r.Courses}
		return fn(&racing)
	})
}

func TestDuplicateKeyRaceIsClientError(t *testing.T) {
	s := newTestServer(t, racingStore{memstore.New()}, false)

	status, env := s.do(http.MethodPost, "/api/v1/courses", map[string]string{"name": "Physics"})
	expectError(t, status, env, http.StatusBadRequest, "DUPLICATE_RECORD")
}

func TestStorageFailureIsOpaque(t *testing.T) {
	s := newTestServer(t, brokenStore{}, false)

	status, env := s.do(http.MethodGet, "/api/v1/students", nil)
	expectError(t, status, env, http.StatusInternalServerError, "PERSISTENCE_ERROR")
	if strings.Contains(env.Error.Message, "connection reset") {
		t.Errorf("storage detail leaked: %q", env.Error.Message)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, memstore.New(), false)
	status, env := s.do(http.MethodGet, "/health", nil)
	if status != http.StatusOK || !strings.Contains(string(env.Data), `"status":"ok"`) {
		t.Errorf("health: %d %s", status, env.Data)
	}
}
