package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

type courseRepo struct {
	st  *state
	now func() time.Time
}

func (r *courseRepo) Create(_ context.Context, c *model.Course) error {
	if _, taken := r.st.courseNames[c.Name]; taken {
		return repository.ErrDuplicateKey
	}
	r.st.seq.course++
	c.ID = r.st.seq.course
	c.CreatedAt = r.now()
	c.UpdatedAt = c.CreatedAt
	r.st.courses[c.ID] = *c
	r.st.courseNames[c.Name] = c.ID
	return nil
}

func (r *courseRepo) GetByID(_ context.Context, id int64) (*model.Course, error) {
	c, ok := r.st.courses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *courseRepo) List(_ context.Context) ([]model.Course, error) {
	out := make([]model.Course, 0, len(r.st.courses))
	for _, c := range r.st.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *courseRepo) Update(_ context.Context, c *model.Course) error {
	old, ok := r.st.courses[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if id, taken := r.st.courseNames[c.Name]; taken && id != c.ID {
		return repository.ErrDuplicateKey
	}
	delete(r.st.courseNames, old.Name)
	r.st.courseNames[c.Name] = c.ID
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = r.now()
	r.st.courses[c.ID] = *c
	return nil
}

func (r *courseRepo) Delete(_ context.Context, id int64) error {
	c, ok := r.st.courses[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.st.disciplinesByCourse.count(id) > 0 {
		return repository.ErrForeignKeyViolation
	}
	delete(r.st.courseNames, c.Name)
	delete(r.st.courses, id)
	return nil
}

func (r *courseRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	_, ok := r.st.courseNames[name]
	return ok, nil
}

func (r *courseRepo) ExistsByNameExcludingID(_ context.Context, name string, id int64) (bool, error) {
	owner, ok := r.st.courseNames[name]
	return ok && owner != id, nil
}

type professorRepo struct {
	st  *state
	now func() time.Time
}

func (r *professorRepo) Create(_ context.Context, p *model.Professor) error {
	if _, taken := r.st.registrations[p.Registration]; taken {
		return repository.ErrDuplicateKey
	}
	r.st.seq.professor++
	p.ID = r.st.seq.professor
	p.CreatedAt = r.now()
	p.UpdatedAt = p.CreatedAt
	r.st.professors[p.ID] = *p
	r.st.registrations[p.Registration] = p.ID
	return nil
}

func (r *professorRepo) GetByID(_ context.Context, id int64) (*model.Professor, error) {
	p, ok := r.st.professors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *professorRepo) List(_ context.Context) ([]model.Professor, error) {
	out := make([]model.Professor, 0, len(r.st.professors))
	for _, p := range r.st.professors {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *professorRepo) Update(_ context.Context, p *model.Professor) error {
	old, ok := r.st.professors[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if id, taken := r.st.registrations[p.Registration]; taken && id != p.ID {
		return repository.ErrDuplicateKey
	}
	delete(r.st.registrations, old.Registration)
	r.st.registrations[p.Registration] = p.ID
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = r.now()
	r.st.professors[p.ID] = *p
	return nil
}

func (r *professorRepo) Delete(_ context.Context, id int64) error {
	p, ok := r.st.professors[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.st.disciplinesByProfessor.count(id) > 0 {
		return repository.ErrForeignKeyViolation
	}
	delete(r.st.registrations, p.Registration)
	delete(r.st.professors, id)
	return nil
}

func (r *professorRepo) ExistsByRegistration(_ context.Context, registration string) (bool, error) {
	_, ok := r.st.registrations[registration]
	return ok, nil
}

func (r *professorRepo) ExistsByRegistrationExcludingID(_ context.Context, registration string, id int64) (bool, error) {
	owner, ok := r.st.registrations[registration]
	return ok && owner != id, nil
}

type studentRepo struct {
	st  *state
	now func() time.Time
}

func (r *studentRepo) Create(_ context.Context, s *model.Student) error {
	if _, taken := r.st.matriculas[s.Matricula]; taken {
		return repository.ErrDuplicateKey
	}
	r.st.seq.student++
	s.ID = r.st.seq.student
	s.CreatedAt = r.now()
	s.UpdatedAt = s.CreatedAt
	r.st.students[s.ID] = *s
	r.st.matriculas[s.Matricula] = s.ID
	return nil
}

func (r *studentRepo) GetByID(_ context.Context, id int64) (*model.Student, error) {
	s, ok := r.st.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *studentRepo) List(_ context.Context) ([]model.Student, error) {
	out := make([]model.Student, 0, len(r.st.students))
	for _, s := range r.st.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *studentRepo) Update(_ context.Context, s *model.Student) error {
	old, ok := r.st.students[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if id, taken := r.st.matriculas[s.Matricula]; taken && id != s.ID {
		return repository.ErrDuplicateKey
	}
	delete(r.st.matriculas, old.Matricula)
	r.st.matriculas[s.Matricula] = s.ID
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = r.now()
	r.st.students[s.ID] = *s
	return nil
}

func (r *studentRepo) Delete(_ context.Context, id int64) error {
	s, ok := r.st.students[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.st.enrollmentsByStudent.count(id) > 0 || r.st.gradesByStudent.count(id) > 0 {
		return repository.ErrForeignKeyViolation
	}
	delete(r.st.matriculas, s.Matricula)
	delete(r.st.students, id)
	return nil
}

func (r *studentRepo) ExistsByMatricula(_ context.Context, matricula string) (bool, error) {
	_, ok := r.st.matriculas[matricula]
	return ok, nil
}

func (r *studentRepo) ExistsByMatriculaExcludingID(_ context.Context, matricula string, id int64) (bool, error) {
	owner, ok := r.st.matriculas[matricula]
	return ok && owner != id, nil
}
