package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

const entityEnrollment = "enrollment"

// EnrollmentService handles enrolling students in disciplines.
type EnrollmentService struct {
	store repository.Store
	audit auditor
	log   zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(store repository.Store, pub AuditPublisher, log zerolog.Logger) *EnrollmentService {
	l := log.With().Str("component", "enrollment_service").Logger()
	return &EnrollmentService{store: store, audit: auditor{pub: pub, log: l}, log: l}
}

func enrollmentResponse(e *model.Enrollment) model.EnrollmentResponse {
	return model.EnrollmentResponse{
		ID:             e.ID,
		StudentID:      e.StudentID,
		StudentName:    e.StudentName,
		DisciplineID:   e.DisciplineID,
		DisciplineName: e.DisciplineName,
	}
}

// checkPairRefs verifies that the student and discipline of an association exist.
func checkPairRefs(ctx context.Context, r *repository.Repository, studentID, disciplineID int64) error {
	if _, err := r.Students.GetByID(ctx, studentID); err != nil {
		return lookupErr(err, entityStudent, studentID)
	}
	if _, err := r.Disciplines.GetByID(ctx, disciplineID); err != nil {
		return lookupErr(err, entityDiscipline, disciplineID)
	}
	return nil
}

// Enroll enrolls the student of req in its discipline.
func (s *EnrollmentService) Enroll(ctx context.Context, req model.EnrollmentRequest) (*model.EnrollmentResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var out model.EnrollmentResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if err := checkPairRefs(ctx, r, req.StudentID, req.DisciplineID); err != nil {
			return err
		}

		taken, err := r.Enrollments.ExistsByStudentAndDiscipline(ctx, req.StudentID, req.DisciplineID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Validationf("student %d is already enrolled in discipline %d", req.StudentID, req.DisciplineID)
		}

		e := &model.Enrollment{StudentID: req.StudentID, DisciplineID: req.DisciplineID}
		if err := r.Enrollments.Create(ctx, e); err != nil {
			return writeErr(err, entityEnrollment)
		}

		created, err := r.Enrollments.GetByPair(ctx, req.StudentID, req.DisciplineID)
		if err != nil {
			return err
		}
		out = enrollmentResponse(created)
		return nil
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityEnrollment, out.ID, model.AuditCreate)
	return &out, nil
}

// EnrollPair enrolls a student in a discipline given both ids.
func (s *EnrollmentService) EnrollPair(ctx context.Context, studentID, disciplineID int64) (*model.EnrollmentResponse, error) {
	return s.Enroll(ctx, model.EnrollmentRequest{StudentID: studentID, DisciplineID: disciplineID})
}

// List retrieves enrollments ordered by id. With both filters set it is the
// pair lookup and returns at most one element.
func (s *EnrollmentService) List(ctx context.Context, filter model.PairFilter) ([]model.EnrollmentResponse, error) {
	var out []model.EnrollmentResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if err := checkFilterRefs(ctx, r, filter); err != nil {
			return err
		}

		if filter.StudentID != nil && filter.DisciplineID != nil {
			out = []model.EnrollmentResponse{}
			e, err := r.Enrollments.GetByPair(ctx, *filter.StudentID, *filter.DisciplineID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			out = append(out, enrollmentResponse(e))
			return nil
		}

		enrollments, err := r.Enrollments.List(ctx, filter)
		if err != nil {
			return err
		}
		out = make([]model.EnrollmentResponse, 0, len(enrollments))
		for i := range enrollments {
			out = append(out, enrollmentResponse(&enrollments[i]))
		}
		return nil
	})
	return out, finish(err)
}

// Unenroll removes the enrollment of a student in a discipline.
func (s *EnrollmentService) Unenroll(ctx context.Context, studentID, disciplineID int64) error {
	var id int64
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if err := checkPairRefs(ctx, r, studentID, disciplineID); err != nil {
			return err
		}

		e, err := r.Enrollments.GetByPair(ctx, studentID, disciplineID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFoundf("student %d is not enrolled in discipline %d", studentID, disciplineID)
		}
		if err != nil {
			return err
		}

		id = e.ID
		if err := r.Enrollments.Delete(ctx, e.ID); err != nil {
			return lookupErr(err, entityEnrollment, e.ID)
		}
		return nil
	})
	if err != nil {
		return finish(err)
	}

	s.audit.record(ctx, entityEnrollment, id, model.AuditDelete)
	return nil
}

// checkFilterRefs verifies every id named by a pair filter.
func checkFilterRefs(ctx context.Context, r *repository.Repository, filter model.PairFilter) error {
	if filter.StudentID != nil {
		if _, err := r.Students.GetByID(ctx, *filter.StudentID); err != nil {
			return lookupErr(err, entityStudent, *filter.StudentID)
		}
	}
	if filter.DisciplineID != nil {
		if _, err := r.Disciplines.GetByID(ctx, *filter.DisciplineID); err != nil {
			return lookupErr(err, entityDiscipline, *filter.DisciplineID)
		}
	}
	return nil
}

func pairLabel(studentID, disciplineID int64) string {
	return fmt.Sprintf("student %d / discipline %d", studentID, disciplineID)
}
