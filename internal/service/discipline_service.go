package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

const entityDiscipline = "discipline"

// DisciplineService handles discipline business logic.
type DisciplineService struct {
	store repository.Store
	audit auditor
	log   zerolog.Logger
}

// NewDisciplineService creates a new DisciplineService.
func NewDisciplineService(store repository.Store, pub AuditPublisher, log zerolog.Logger) *DisciplineService {
	l := log.With().Str("component", "discipline_service").Logger()
	return &DisciplineService{store: store, audit: auditor{pub: pub, log: l}, log: l}
}

func disciplineResponse(d *model.Discipline) model.DisciplineResponse {
	return model.DisciplineResponse{
		ID:            d.ID,
		Name:          d.Name,
		CourseID:      d.CourseID,
		CourseName:    d.CourseName,
		ProfessorID:   d.ProfessorID,
		ProfessorName: d.ProfessorName,
	}
}

// checkDisciplineRefs verifies that the referenced course and professor exist.
func checkDisciplineRefs(ctx context.Context, r *repository.Repository, courseID, professorID int64) error {
	if _, err := r.Courses.GetByID(ctx, courseID); err != nil {
		return lookupErr(err, entityCourse, courseID)
	}
	if _, err := r.Professors.GetByID(ctx, professorID); err != nil {
		return lookupErr(err, entityProfessor, professorID)
	}
	return nil
}

func disciplineNameTaken(name string, courseID int64) error {
	return apperror.ValidationField("name", fmt.Sprintf("discipline '%s' already exists in course %d", name, courseID))
}

// Create validates and stores a new discipline.
func (s *DisciplineService) Create(ctx context.Context, req model.DisciplineRequest) (*model.DisciplineResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	var out model.DisciplineResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if err := checkDisciplineRefs(ctx, r, req.CourseID, req.ProfessorID); err != nil {
			return err
		}

		taken, err := r.Disciplines.ExistsByNameInCourse(ctx, req.Name, req.CourseID)
		if err != nil {
			return err
		}
		if taken {
			return disciplineNameTaken(req.Name, req.CourseID)
		}

		d := &model.Discipline{Name: req.Name, CourseID: req.CourseID, ProfessorID: req.ProfessorID}
		if err := r.Disciplines.Create(ctx, d); err != nil {
			return writeErr(err, entityDiscipline)
		}

		created, err := r.Disciplines.GetByID(ctx, d.ID)
		if err != nil {
			return err
		}
		out = disciplineResponse(created)
		return nil
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityDiscipline, out.ID, model.AuditCreate)
	return &out, nil
}

// GetByID retrieves a discipline with its course and professor names.
func (s *DisciplineService) GetByID(ctx context.Context, id int64) (*model.DisciplineResponse, error) {
	var out model.DisciplineResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		d, err := r.Disciplines.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, entityDiscipline, id)
		}
		out = disciplineResponse(d)
		return nil
	})
	if err != nil {
		return nil, finish(err)
	}
	return &out, nil
}

// List retrieves disciplines ordered by name, optionally filtered by course and/or professor.
// A filter naming a missing course or professor is a not-found error.
func (s *DisciplineService) List(ctx context.Context, filter model.DisciplineFilter) ([]model.DisciplineResponse, error) {
	var out []model.DisciplineResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if filter.CourseID != nil {
			if _, err := r.Courses.GetByID(ctx, *filter.CourseID); err != nil {
				return lookupErr(err, entityCourse, *filter.CourseID)
			}
		}
		if filter.ProfessorID != nil {
			if _, err := r.Professors.GetByID(ctx, *filter.ProfessorID); err != nil {
				return lookupErr(err, entityProfessor, *filter.ProfessorID)
			}
		}

		disciplines, err := r.Disciplines.List(ctx, filter)
		if err != nil {
			return err
		}
		out = make([]model.DisciplineResponse, 0, len(disciplines))
		for i := range disciplines {
			out = append(out, disciplineResponse(&disciplines[i]))
		}
		return nil
	})
	return out, finish(err)
}

// Update modifies a discipline's name, course, and professor.
func (s *DisciplineService) Update(ctx context.Context, id int64, req model.DisciplineRequest) (*model.DisciplineResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	var out model.DisciplineResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		d, err := r.Disciplines.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, entityDiscipline, id)
		}
		if err := checkDisciplineRefs(ctx, r, req.CourseID, req.ProfessorID); err != nil {
			return err
		}

		taken, err := r.Disciplines.ExistsByNameInCourseExcludingID(ctx, req.Name, req.CourseID, id)
		if err != nil {
			return err
		}
		if taken {
			return disciplineNameTaken(req.Name, req.CourseID)
		}

		d.Name = req.Name
		d.CourseID = req.CourseID
		d.ProfessorID = req.ProfessorID
		if err := r.Disciplines.Update(ctx, d); err != nil {
			return writeErr(lookupErr(err, entityDiscipline, id), entityDiscipline)
		}

		updated, err := r.Disciplines.GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = disciplineResponse(updated)
		return nil
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityDiscipline, id, model.AuditUpdate)
	return &out, nil
}

// Delete removes a discipline with no enrollments and no grade records.
func (s *DisciplineService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if _, err := r.Disciplines.GetByID(ctx, id); err != nil {
			return lookupErr(err, entityDiscipline, id)
		}

		enrollments, err := r.Enrollments.CountByDiscipline(ctx, id)
		if err != nil {
			return err
		}
		grades, err := r.Grades.CountByDiscipline(ctx, id)
		if err != nil {
			return err
		}
		if enrollments > 0 || grades > 0 {
			return apperror.Integrityf("discipline %d has %d enrollment(s) and %d grade record(s)", id, enrollments, grades)
		}

		if err := r.Disciplines.Delete(ctx, id); err != nil {
			return writeErr(lookupErr(err, entityDiscipline, id), entityDiscipline)
		}
		return nil
	})
	if err != nil {
		return finish(err)
	}

	s.audit.record(ctx, entityDiscipline, id, model.AuditDelete)
	return nil
}
