package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

const entityStudent = "student"

// StudentService handles student business logic.
type StudentService struct {
	store repository.Store
	audit auditor
	log   zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(store repository.Store, pub AuditPublisher, log zerolog.Logger) *StudentService {
	l := log.With().Str("component", "student_service").Logger()
	return &StudentService{store: store, audit: auditor{pub: pub, log: l}, log: l}
}

func studentResponse(st *model.Student) model.StudentResponse {
	return model.StudentResponse{ID: st.ID, Name: st.Name, Matricula: st.Matricula}
}

func normalizeStudent(req *model.StudentRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Matricula = strings.TrimSpace(req.Matricula)
}

func matriculaTaken(matricula string) error {
	return apperror.ValidationField("matricula", "matricula '"+matricula+"' is already in use")
}

// Create validates and stores a new student.
func (s *StudentService) Create(ctx context.Context, req model.StudentRequest) (*model.StudentResponse, error) {
	normalizeStudent(&req)
	if err := validate(req); err != nil {
		return nil, err
	}

	var out model.StudentResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		taken, err := r.Students.ExistsByMatricula(ctx, req.Matricula)
		if err != nil {
			return err
		}
		if taken {
			return matriculaTaken(req.Matricula)
		}

		st := &model.Student{Name: req.Name, Matricula: req.Matricula}
		if err := r.Students.Create(ctx, st); err != nil {
			return writeErr(err, entityStudent)
		}
		out = studentResponse(st)
		return nil
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityStudent, out.ID, model.AuditCreate)
	return &out, nil
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id int64) (*model.StudentResponse, error) {
	var out model.StudentResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		st, err := r.Students.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, entityStudent, id)
		}
		out = studentResponse(st)
		return nil
	})
	if err != nil {
		return nil, finish(err)
	}
	return &out, nil
}

// List retrieves all students ordered by name.
func (s *StudentService) List(ctx context.Context) ([]model.StudentResponse, error) {
	var out []model.StudentResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		students, err := r.Students.List(ctx)
		if err != nil {
			return err
		}
		out = make([]model.StudentResponse, 0, len(students))
		for i := range students {
			out = append(out, studentResponse(&students[i]))
		}
		return nil
	})
	return out, finish(err)
}

// Update modifies a student's name and matricula.
func (s *StudentService) Update(ctx context.Context, id int64, req model.StudentRequest) (*model.StudentResponse, error) {
	normalizeStudent(&req)
	if err := validate(req); err != nil {
		return nil, err
	}

	var out model.StudentResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		st, err := r.Students.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, entityStudent, id)
		}

		taken, err := r.Students.ExistsByMatriculaExcludingID(ctx, req.Matricula, id)
		if err != nil {
			return err
		}
		if taken {
			return matriculaTaken(req.Matricula)
		}

		st.Name = req.Name
		st.Matricula = req.Matricula
		if err := r.Students.Update(ctx, st); err != nil {
			return writeErr(lookupErr(err, entityStudent, id), entityStudent)
		}
		out = studentResponse(st)
		return nil
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityStudent, id, model.AuditUpdate)
	return &out, nil
}

// Delete removes a student with no enrollments and no grade records.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if _, err := r.Students.GetByID(ctx, id); err != nil {
			return lookupErr(err, entityStudent, id)
		}

		enrollments, err := r.Enrollments.CountByStudent(ctx, id)
		if err != nil {
			return err
		}
		grades, err := r.Grades.CountByStudent(ctx, id)
		if err != nil {
			return err
		}
		if enrollments > 0 || grades > 0 {
			return apperror.Integrityf("student %d has %d enrollment(s) and %d grade record(s)", id, enrollments, grades)
		}

		if err := r.Students.Delete(ctx, id); err != nil {
			return writeErr(lookupErr(err, entityStudent, id), entityStudent)
		}
		return nil
	})
	if err != nil {
		return finish(err)
	}

	s.audit.record(ctx, entityStudent, id, model.AuditDelete)
	return nil
}
