package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

const entityGrade = "grade"

// GradeService handles grade records and their derived classification.
type GradeService struct {
	store repository.Store
	audit auditor
	log   zerolog.Logger
}

// NewGradeService creates a new GradeService.
func NewGradeService(store repository.Store, pub AuditPublisher, log zerolog.Logger) *GradeService {
	l := log.With().Str("component", "grade_service").Logger()
	return &GradeService{store: store, audit: auditor{pub: pub, log: l}, log: l}
}

// scoreErr maps a score rule violation to a validation error on field.
func scoreErr(field string, err error) error {
	if errors.Is(err, model.ErrScoreOutOfRange) || errors.Is(err, model.ErrScorePrecision) {
		return apperror.ValidationField(field, field+": "+err.Error())
	}
	return err
}

func checkScores(s1, s2 decimal.Decimal) error {
	if err := model.ValidateScore(s1); err != nil {
		return scoreErr("score1", err)
	}
	if err := model.ValidateScore(s2); err != nil {
		return scoreErr("score2", err)
	}
	return nil
}

// Create records the scores of a student in a discipline.
func (s *GradeService) Create(ctx context.Context, req model.GradeRequest) (*model.GradeResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkScores(*req.Score1, *req.Score2); err != nil {
		return nil, err
	}

	var out model.GradeResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if err := checkPairRefs(ctx, r, req.StudentID, req.DisciplineID); err != nil {
			return err
		}

		taken, err := r.Grades.ExistsByStudentAndDiscipline(ctx, req.StudentID, req.DisciplineID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Validationf("%s: a grade record already exists", pairLabel(req.StudentID, req.DisciplineID))
		}

		g, err := model.NewGrade(req.StudentID, req.DisciplineID, *req.Score1, *req.Score2)
		if err != nil {
			return scoreErr("score1", err)
		}
		if err := r.Grades.Create(ctx, g); err != nil {
			return writeErr(err, entityGrade)
		}

		created, err := r.Grades.GetByID(ctx, g.ID)
		if err != nil {
			return err
		}
		out = model.NewGradeResponse(created)
		return nil
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityGrade, out.ID, model.AuditCreate)
	return &out, nil
}

// GetByID retrieves a grade record.
func (s *GradeService) GetByID(ctx context.Context, id int64) (*model.GradeResponse, error) {
	var out model.GradeResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		g, err := r.Grades.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, entityGrade, id)
		}
		out = model.NewGradeResponse(g)
		return nil
	})
	if err != nil {
		return nil, finish(err)
	}
	return &out, nil
}

// List retrieves grade records ordered by id, optionally filtered by student and/or discipline.
func (s *GradeService) List(ctx context.Context, filter model.PairFilter) ([]model.GradeResponse, error) {
	var out []model.GradeResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if err := checkFilterRefs(ctx, r, filter); err != nil {
			return err
		}

		grades, err := r.Grades.List(ctx, filter)
		if err != nil {
			return err
		}
		out = make([]model.GradeResponse, 0, len(grades))
		for i := range grades {
			out = append(out, model.NewGradeResponse(&grades[i]))
		}
		return nil
	})
	return out, finish(err)
}

// Update replaces both scores of a grade record and re-derives its average and classification.
func (s *GradeService) Update(ctx context.Context, id int64, req model.GradeScoresRequest) (*model.GradeResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkScores(*req.Score1, *req.Score2); err != nil {
		return nil, err
	}

	var out model.GradeResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		g, err := r.Grades.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, entityGrade, id)
		}

		if err := g.SetScores(*req.Score1, *req.Score2); err != nil {
			return scoreErr("score1", err)
		}
		if err := r.Grades.Update(ctx, g); err != nil {
			return lookupErr(err, entityGrade, id)
		}
		out = model.NewGradeResponse(g)
		return nil
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityGrade, id, model.AuditUpdate)
	return &out, nil
}

// Delete removes a grade record.
func (s *GradeService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if err := r.Grades.Delete(ctx, id); err != nil {
			return lookupErr(err, entityGrade, id)
		}
		return nil
	})
	if err != nil {
		return finish(err)
	}

	s.audit.record(ctx, entityGrade, id, model.AuditDelete)
	return nil
}
