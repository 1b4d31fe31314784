package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
	"github.com/stemsi/gradebook-backend/internal/repository/memstore"
)

// ── Test helpers ──

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AuditEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e model.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

// failingStore fails every transaction with err.
type failingStore struct{ err error }

func (s failingStore) WithTx(context.Context, func(*repository.Repository) error) error {
	return s.err
}

// racingCourses loses the race between the uniqueness check and the insert.
type racingCourses struct{ repository.CourseRepository }

func (racingCourses) ExistsByName(context.Context, string) (bool, error) { return false, nil }

func (racingCourses) Create(context.Context, *model.Course) error {
	return fmt.Errorf("insert course: %w", repository.ErrDuplicateKey)
}

type racingStore struct{ inner repository.Store }

func (s racingStore) WithTx(ctx context.Context, fn func(*repository.Repository) error) error {
	return s.inner.WithTx(ctx, func(r *repository.Repository) error {
		racing := *r
		racing.Courses = racingCourses{r.Courses}
		return fn(&racing)
	})
}

type testEnv struct {
	store       *memstore.Store
	pub         *recordingPublisher
	courses     *CourseService
	professors  *ProfessorService
	students    *StudentService
	disciplines *DisciplineService
	enrollments *EnrollmentService
	grades      *GradeService
}

func newTestEnv() *testEnv {
	store := memstore.New()
	pub := &recordingPublisher{}
	log := zerolog.Nop()
	return &testEnv{
		store:       store,
		pub:         pub,
		courses:     NewCourseService(store, pub, log),
		professors:  NewProfessorService(store, pub, log),
		students:    NewStudentService(store, pub, log),
		disciplines: NewDisciplineService(store, pub, log),
		enrollments: NewEnrollmentService(store, pub, log),
		grades:      NewGradeService(store, pub, log),
	}
}

func (e *testEnv) course(t *testing.T, name string) *model.CourseResponse {
	t.Helper()
	c, err := e.courses.Create(context.Background(), model.CourseRequest{Name: name})
	if err != nil {
		t.Fatalf("create course %q: %v", name, err)
	}
	return c
}

func (e *testEnv) professor(t *testing.T, name, registration string) *model.ProfessorResponse {
	t.Helper()
	p, err := e.professors.Create(context.Background(), model.ProfessorRequest{Name: name, Registration: registration})
	if err != nil {
		t.Fatalf("create professor %q: %v", registration, err)
	}
	return p
}

func (e *testEnv) student(t *testing.T, name, matricula string) *model.StudentResponse {
	t.Helper()
	s, err := e.students.Create(context.Background(), model.StudentRequest{Name: name, Matricula: matricula})
	if err != nil {
		t.Fatalf("create student %q: %v", matricula, err)
	}
	return s
}

func (e *testEnv) discipline(t *testing.T, name string, courseID, professorID int64) *model.DisciplineResponse {
	t.Helper()
	d, err := e.disciplines.Create(context.Background(), model.DisciplineRequest{Name: name, CourseID: courseID, ProfessorID: professorID})
	if err != nil {
		t.Fatalf("create discipline %q: %v", name, err)
	}
	return d
}

// fixture creates one course, professor, discipline, and student.
func (e *testEnv) fixture(t *testing.T) (course *model.CourseResponse, prof *model.ProfessorResponse, disc *model.DisciplineResponse, stu *model.StudentResponse) {
	t.Helper()
	course = e.course(t, "Computer Science")
	prof = e.professor(t, "Ada Lovelace", "P-001")
	disc = e.discipline(t, "POO", course.ID, prof.ID)
	stu = e.student(t, "Pedro Oliveira", "2024001")
	return
}

func score(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func ptr(v int64) *int64 { return &v }

func assertKind(t *testing.T, err error, want apperror.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperror.KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}

func TestFinish_ClassifiesUnknownErrorsAsPersistence(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewCourseService(failingStore{err: boom}, nil, zerolog.Nop())

	_, err := svc.List(context.Background())
	assertKind(t, err, apperror.KindPersistence)
	if !errors.Is(err, boom) {
		t.Errorf("expected persistence error to wrap cause, got %v", err)
	}
}

func TestWriteErr_DuplicateKeyIsValidation(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewCourseService(racingStore{inner: memstore.New()}, pub, zerolog.Nop())

	_, err := svc.Create(context.Background(), model.CourseRequest{Name: "Physics"})
	assertKind(t, err, apperror.KindValidation)

	appErr, ok := apperror.As(err)
	if !ok || !appErr.Duplicate {
		t.Fatalf("expected a duplicate validation error, got %#v", err)
	}
	if !errors.Is(err, repository.ErrDuplicateKey) {
		t.Errorf("expected the storage cause to be kept, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("failed create published %d audit events", len(pub.events))
	}
}

func TestAuditor_PublishFailureIsNotReturned(t *testing.T) {
	store := memstore.New()
	pub := &recordingPublisher{err: errors.New("queue down")}
	svc := NewCourseService(store, pub, zerolog.Nop())

	if _, err := svc.Create(context.Background(), model.CourseRequest{Name: "Physics"}); err != nil {
		t.Fatalf("Create should succeed even when publishing fails: %v", err)
	}
}

func TestActorFrom(t *testing.T) {
	if got := ActorFrom(context.Background()); got != "anonymous" {
		t.Errorf("ActorFrom(empty) = %q", got)
	}
	ctx := WithActor(context.Background(), "registrar@example.com")
	if got := ActorFrom(ctx); got != "registrar@example.com" {
		t.Errorf("ActorFrom = %q", got)
	}
}
