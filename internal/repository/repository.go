package repository

import (
	"context"
	"errors"

	"github.com/stemsi/gradebook-backend/internal/model"
)

// Storage errors shared by every Store implementation.
var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// CourseRepository handles course data access.
type CourseRepository interface {
	Create(ctx context.Context, c *model.Course) error
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id int64) error
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByNameExcludingID(ctx context.Context, name string, id int64) (bool, error)
}

// ProfessorRepository handles professor data access.
type ProfessorRepository interface {
	Create(ctx context.Context, p *model.Professor) error
	GetByID(ctx context.Context, id int64) (*model.Professor, error)
	List(ctx context.Context) ([]model.Professor, error)
	Update(ctx context.Context, p *model.Professor) error
	Delete(ctx context.Context, id int64) error
	ExistsByRegistration(ctx context.Context, registration string) (bool, error)
	ExistsByRegistrationExcludingID(ctx context.Context, registration string, id int64) (bool, error)
}

// StudentRepository handles student data access.
type StudentRepository interface {
	Create(ctx context.Context, s *model.Student) error
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
	Update(ctx context.Context, s *model.Student) error
	Delete(ctx context.Context, id int64) error
	ExistsByMatricula(ctx context.Context, matricula string) (bool, error)
	ExistsByMatriculaExcludingID(ctx context.Context, matricula string, id int64) (bool, error)
}

// DisciplineRepository handles discipline data access.
// Reads fill CourseName and ProfessorName.
type DisciplineRepository interface {
	Create(ctx context.Context, d *model.Discipline) error
	GetByID(ctx context.Context, id int64) (*model.Discipline, error)
	List(ctx context.Context, filter model.DisciplineFilter) ([]model.Discipline, error)
	Update(ctx context.Context, d *model.Discipline) error
	Delete(ctx context.Context, id int64) error
	ExistsByNameInCourse(ctx context.Context, name string, courseID int64) (bool, error)
	ExistsByNameInCourseExcludingID(ctx context.Context, name string, courseID, id int64) (bool, error)
	CountByCourse(ctx context.Context, courseID int64) (int64, error)
	CountByProfessor(ctx context.Context, professorID int64) (int64, error)
	SummariesByCourse(ctx context.Context, courseID int64) ([]model.DisciplineSummary, error)
	SummariesByProfessor(ctx context.Context, professorID int64) ([]model.DisciplineSummary, error)
}

// EnrollmentRepository handles enrollment data access. Lists are ordered by id.
type EnrollmentRepository interface {
	Create(ctx context.Context, e *model.Enrollment) error
	GetByPair(ctx context.Context, studentID, disciplineID int64) (*model.Enrollment, error)
	List(ctx context.Context, filter model.PairFilter) ([]model.Enrollment, error)
	Delete(ctx context.Context, id int64) error
	ExistsByStudentAndDiscipline(ctx context.Context, studentID, disciplineID int64) (bool, error)
	CountByDiscipline(ctx context.Context, disciplineID int64) (int64, error)
	CountByStudent(ctx context.Context, studentID int64) (int64, error)
}

// GradeRepository handles grade record data access. Lists are ordered by id.
type GradeRepository interface {
	Create(ctx context.Context, g *model.Grade) error
	GetByID(ctx context.Context, id int64) (*model.Grade, error)
	List(ctx context.Context, filter model.PairFilter) ([]model.Grade, error)
	Update(ctx context.Context, g *model.Grade) error
	Delete(ctx context.Context, id int64) error
	ExistsByStudentAndDiscipline(ctx context.Context, studentID, disciplineID int64) (bool, error)
	CountByDiscipline(ctx context.Context, disciplineID int64) (int64, error)
	CountByStudent(ctx context.Context, studentID int64) (int64, error)
}

// OperatorRepository handles operator account data access.
type OperatorRepository interface {
	Create(ctx context.Context, o *model.Operator) error
	GetByID(ctx context.Context, id int64) (*model.Operator, error)
	GetByEmail(ctx context.Context, email string) (*model.Operator, error)
}

// AuditRepository persists and lists audit events.
type AuditRepository interface {
	InsertBatch(ctx context.Context, events []model.AuditEvent) (int64, error)
	List(ctx context.Context, filter model.AuditFilter) ([]model.AuditLog, int64, error)
}

// Repository groups the repositories bound to one transaction.
type Repository struct {
	Courses     CourseRepository
	Professors  ProfessorRepository
	Students    StudentRepository
	Disciplines DisciplineRepository
	Enrollments EnrollmentRepository
	Grades      GradeRepository
	Operators   OperatorRepository
	Audit       AuditRepository
}

// Store runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(r *Repository) error) error
}
