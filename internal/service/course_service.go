package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

const entityCourse = "course"

// CourseService handles course business logic.
type CourseService struct {
	store repository.Store
	audit auditor
	log   zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(store repository.Store, pub AuditPublisher, log zerolog.Logger) *CourseService {
	l := log.With().Str("component", "course_service").Logger()
	return &CourseService{store: store, audit: auditor{pub: pub, log: l}, log: l}
}

func courseResponse(ctx context.Context, r *repository.Repository, c *model.Course) (*model.CourseResponse, error) {
	summaries, err := r.Disciplines.SummariesByCourse(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &model.CourseResponse{ID: c.ID, Name: c.Name, Disciplines: summaries}, nil
}

// Create validates and stores a new course.
func (s *CourseService) Create(ctx context.Context, req model.CourseRequest) (*model.CourseResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	var out *model.CourseResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		taken, err := r.Courses.ExistsByName(ctx, req.Name)
		if err != nil {
			return err
		}
		if taken {
			return apperror.ValidationField("name", "a course named '"+req.Name+"' already exists")
		}

		c := &model.Course{Name: req.Name}
		if err := r.Courses.Create(ctx, c); err != nil {
			return writeErr(err, entityCourse)
		}
		out, err = courseResponse(ctx, r, c)
		return err
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityCourse, out.ID, model.AuditCreate)
	return out, nil
}

// GetByID retrieves a course with its disciplines.
func (s *CourseService) GetByID(ctx context.Context, id int64) (*model.CourseResponse, error) {
	var out *model.CourseResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		c, err := r.Courses.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, entityCourse, id)
		}
		out, err = courseResponse(ctx, r, c)
		return err
	})
	return out, finish(err)
}

// List retrieves all courses ordered by name.
func (s *CourseService) List(ctx context.Context) ([]model.CourseResponse, error) {
	var out []model.CourseResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		courses, err := r.Courses.List(ctx)
		if err != nil {
			return err
		}
		out = make([]model.CourseResponse, 0, len(courses))
		for i := range courses {
			resp, err := courseResponse(ctx, r, &courses[i])
			if err != nil {
				return err
			}
			out = append(out, *resp)
		}
		return nil
	})
	return out, finish(err)
}

// Update renames a course.
func (s *CourseService) Update(ctx context.Context, id int64, req model.CourseRequest) (*model.CourseResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validate(req); err != nil {
		return nil, err
	}

	var out *model.CourseResponse
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		c, err := r.Courses.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, entityCourse, id)
		}

		taken, err := r.Courses.ExistsByNameExcludingID(ctx, req.Name, id)
		if err != nil {
			return err
		}
		if taken {
			return apperror.ValidationField("name", "a course named '"+req.Name+"' already exists")
		}

		c.Name = req.Name
		if err := r.Courses.Update(ctx, c); err != nil {
			return writeErr(lookupErr(err, entityCourse, id), entityCourse)
		}
		out, err = courseResponse(ctx, r, c)
		return err
	})
	if err != nil {
		return nil, finish(err)
	}

	s.audit.record(ctx, entityCourse, id, model.AuditUpdate)
	return out, nil
}

// Delete removes a course that has no disciplines.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		if _, err := r.Courses.GetByID(ctx, id); err != nil {
			return lookupErr(err, entityCourse, id)
		}

		n, err := r.Disciplines.CountByCourse(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperror.Integrityf("course %d has %d discipline(s)", id, n)
		}

		if err := r.Courses.Delete(ctx, id); err != nil {
			return writeErr(lookupErr(err, entityCourse, id), entityCourse)
		}
		return nil
	})
	if err != nil {
		return finish(err)
	}

	s.audit.record(ctx, entityCourse, id, model.AuditDelete)
	return nil
}
