package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

const entityProfessor = "professor"

// ProfessorService handles professor business logic.
type ProfessorService struct {
	store repository.Store
	audit auditor
	log   zerolog.Logger
}

// NewProfessorService creates a new ProfessorService.
func NewProfessorService(store repository.Store, pub AuditPublisher, log zerolog.Logger) *ProfessorService {
	l := log.With().Str("component", "professor_service").Logger()
	return &ProfessorService{store: store, audit: auditor{pub: pub, log: l}, log: l}
}

func professorResponse(ctx context.Context, r *repository.Repository, p *model.Professor) (*model.ProfessorResponse, error) {
	summaries, err := r.Disciplines.SummariesByProfessor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &model.ProfessorResponse{
		ID:           p.ID,
		Name:         p.Name,
		Registration: p.Registration,
		Disciplines:  summaries,
	}, nil
}

func normalizeProfessor(req *model.ProfessorRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Registration = strings.TrimSpace(req.Registration)
}

func registrationTaken(registration string) error {
	return apperror.ValidationField("registration", "registration '"+registration+"' is already in use")
}

// Create validates and stores a new professor.
func (s *ProfessorService) Create(ctx context.Context, req model.ProfessorRequest) (*model.ProfessorResponse, error) {
	normalizeProfessor(&req)
	if err := validate(req); err != nil {
		return nil, err
	}

	var out *model.ProfessorResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		taken, err := r.Professors.ExistsByRegistration(ctx, req.Registration)
		if err != nil {
			return err
		}
		if taken {
			return registrationTaken(req.Registration)
		}

		p := &model.Professor{Name: req.Name, Registration: req.Registration}
		if err := r.Professors.Create(ctx, p); err != nil {
			return writeErr(err, entityProfessor)
		}
		out, err = professorResponse(ctx, r, p)
		return err
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityProfessor, out.ID, model.AuditCreate)
	return out, nil
}

// GetByID retrieves a professor with their disciplines.
func (s *ProfessorService) GetByID(ctx context.Context, id int64) (*model.ProfessorResponse, error) {
	var out *model.ProfessorResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		p, err := r.Professors.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, entityProfessor, id)
		}
		out, err = professorResponse(ctx, r, p)
		return err
	})
	return out, finish(err)
}

// List retrieves all professors ordered by name.
func (s *ProfessorService) List(ctx context.Context) ([]model.ProfessorResponse, error) {
	var out []model.ProfessorResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		professors, err := r.Professors.List(ctx)
		if err != nil {
			return err
		}
		out = make([]model.ProfessorResponse, 0, len(professors))
		for i := range professors {
			resp, err := professorResponse(ctx, r, &professors[i])
			if err != nil {
				return err
			}
			out = append(out, *resp)
		}
		return nil
	})
	return out, finish(err)
}

// Update modifies a professor's name and registration.
func (s *ProfessorService) Update(ctx context.Context, id int64, req model.ProfessorRequest) (*model.ProfessorResponse, error) {
	normalizeProfessor(&req)
	if err := validate(req); err != nil {
		return nil, err
	}

	var out *model.ProfessorResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		p, err := r.Professors.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, entityProfessor, id)
		}

		taken, err := r.Professors.ExistsByRegistrationExcludingID(ctx, req.Registration, id)
		if err != nil {
			return err
		}
		if taken {
			return registrationTaken(req.Registration)
		}

		p.Name = req.Name
		p.Registration = req.Registration
		if err := r.Professors.Update(ctx, p); err != nil {
			return writeErr(lookupErr(err, entityProfessor, id), entityProfessor)
		}
		out, err = professorResponse(ctx, r, p)
		return err
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityProfessor, id, model.AuditUpdate)
	return out, nil
}

// Delete removes a professor who teaches no discipline.
func (s *ProfessorService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if _, err := r.Professors.GetByID(ctx, id); err != nil {
			return lookupErr(err, entityProfessor, id)
		}

		n, err := r.Disciplines.CountByProfessor(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperror.Integrityf("professor %d teaches %d discipline(s)", id, n)
		}

		if err := r.Professors.Delete(ctx, id); err != nil {
			return writeErr(lookupErr(err, entityProfessor, id), entityProfessor)
		}
		return nil
	})
	if err != nil {
		return finish(err)
	}

	s.audit.record(ctx, entityProfessor, id, model.AuditDelete)
	return nil
}
