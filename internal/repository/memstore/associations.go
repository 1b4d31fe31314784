package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

type disciplineRepo struct {
	st  *state
	now func() time.Time
}

// withNames fills the denormalized course and professor names.
func (r *disciplineRepo) withNames(d model.Discipline) model.Discipline {
	d.CourseName = r.st.courses[d.CourseID].Name
	d.ProfessorName = r.st.professors[d.ProfessorID].Name
	return d
}

func (r *disciplineRepo) checkRefs(d *model.Discipline) error {
	if _, ok := r.st.courses[d.CourseID]; !ok {
		return repository.ErrForeignKeyViolation
	}
	if _, ok := r.st.professors[d.ProfessorID]; !ok {
		return repository.ErrForeignKeyViolation
	}
	return nil
}

func (r *disciplineRepo) Create(_ context.Context, d *model.Discipline) error {
	if err := r.checkRefs(d); err != nil {
		return err
	}
	key := nameInCourse{d.Name, d.CourseID}
	if _, taken := r.st.disciplineNames[key]; taken {
		return repository.ErrDuplicateKey
	}
	r.st.seq.discipline++
	d.ID = r.st.seq.discipline
	d.CreatedAt = r.now()
	d.UpdatedAt = d.CreatedAt
	r.st.disciplines[d.ID] = *d
	r.st.disciplineNames[key] = d.ID
	r.st.disciplinesByCourse.add(d.CourseID, d.ID)
	r.st.disciplinesByProfessor.add(d.ProfessorID, d.ID)
	return nil
}

func (r *disciplineRepo) GetByID(_ context.Context, id int64) (*model.Discipline, error) {
	d, ok := r.st.disciplines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d = r.withNames(d)
	return &d, nil
}

func (r *disciplineRepo) List(_ context.Context, filter model.DisciplineFilter) ([]model.Discipline, error) {
	out := []model.Discipline{}
	for _, d := range r.st.disciplines {
		if filter.CourseID != nil && d.CourseID != *filter.CourseID {
			continue
		}
		if filter.ProfessorID != nil && d.ProfessorID != *filter.ProfessorID {
			continue
		}
		out = append(out, r.withNames(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *disciplineRepo) Update(_ context.Context, d *model.Discipline) error {
	old, ok := r.st.disciplines[d.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkRefs(d); err != nil {
		return err
	}
	key := nameInCourse{d.Name, d.CourseID}
	if id, taken := r.st.disciplineNames[key]; taken && id != d.ID {
		return repository.ErrDuplicateKey
	}
	delete(r.st.disciplineNames, nameInCourse{old.Name, old.CourseID})
	r.st.disciplineNames[key] = d.ID
	r.st.disciplinesByCourse.remove(old.CourseID, d.ID)
	r.st.disciplinesByCourse.add(d.CourseID, d.ID)
	r.st.disciplinesByProfessor.remove(old.ProfessorID, d.ID)
	r.st.disciplinesByProfessor.add(d.ProfessorID, d.ID)
	d.CreatedAt = old.CreatedAt
	d.UpdatedAt = r.now()
	r.st.disciplines[d.ID] = *d
	return nil
}

func (r *disciplineRepo) Delete(_ context.Context, id int64) error {
	d, ok := r.st.disciplines[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.st.enrollmentsByDiscipline.count(id) > 0 || r.st.gradesByDiscipline.count(id) > 0 {
		return repository.ErrForeignKeyViolation
	}
	delete(r.st.disciplineNames, nameInCourse{d.Name, d.CourseID})
	r.st.disciplinesByCourse.remove(d.CourseID, id)
	r.st.disciplinesByProfessor.remove(d.ProfessorID, id)
	delete(r.st.disciplines, id)
	return nil
}

func (r *disciplineRepo) ExistsByNameInCourse(_ context.Context, name string, courseID int64) (bool, error) {
	_, ok := r.st.disciplineNames[nameInCourse{name, courseID}]
	return ok, nil
}

func (r *disciplineRepo) ExistsByNameInCourseExcludingID(_ context.Context, name string, courseID, id int64) (bool, error) {
	owner, ok := r.st.disciplineNames[nameInCourse{name, courseID}]
	return ok && owner != id, nil
}

func (r *disciplineRepo) CountByCourse(_ context.Context, courseID int64) (int64, error) {
	return r.st.disciplinesByCourse.count(courseID), nil
}

func (r *disciplineRepo) CountByProfessor(_ context.Context, professorID int64) (int64, error) {
	return r.st.disciplinesByProfessor.count(professorID), nil
}

func (r *disciplineRepo) SummariesByCourse(_ context.Context, courseID int64) ([]model.DisciplineSummary, error) {
	return r.summaries(r.st.disciplinesByCourse.ids(courseID)), nil
}

func (r *disciplineRepo) SummariesByProfessor(_ context.Context, professorID int64) ([]model.DisciplineSummary, error) {
	return r.summaries(r.st.disciplinesByProfessor.ids(professorID)), nil
}

func (r *disciplineRepo) summaries(ids []int64) []model.DisciplineSummary {
	out := make([]model.DisciplineSummary, 0, len(ids))
	for _, id := range ids {
		d := r.st.disciplines[id]
		out = append(out, model.DisciplineSummary{ID: d.ID, Name: d.Name})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// pairIDs resolves a student/discipline filter through the reverse indexes.
// ok is false when the filter is empty and every record matches.
func pairIDs(filter model.PairFilter, byStudent, byDiscipline index, pairs map[pair]int64) (ids []int64, ok bool) {
	switch {
	case filter.StudentID != nil && filter.DisciplineID != nil:
		if id, found := pairs[pair{*filter.StudentID, *filter.DisciplineID}]; found {
			return []int64{id}, true
		}
		return []int64{}, true
	case filter.StudentID != nil:
		return byStudent.ids(*filter.StudentID), true
	case filter.DisciplineID != nil:
		return byDiscipline.ids(*filter.DisciplineID), true
	default:
		return nil, false
	}
}

func sortedKeys[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type enrollmentRepo struct {
	st  *state
	now func() time.Time
}

func (r *enrollmentRepo) withNames(e model.Enrollment) model.Enrollment {
	e.StudentName = r.st.students[e.StudentID].Name
	e.DisciplineName = r.st.disciplines[e.DisciplineID].Name
	return e
}

func (r *enrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	if _, ok := r.st.students[e.StudentID]; !ok {
		return repository.ErrForeignKeyViolation
	}
	if _, ok := r.st.disciplines[e.DisciplineID]; !ok {
		return repository.ErrForeignKeyViolation
	}
	key := pair{e.StudentID, e.DisciplineID}
	if _, taken := r.st.enrollmentPairs[key]; taken {
		return repository.ErrDuplicateKey
	}
	r.st.seq.enrollment++
	e.ID = r.st.seq.enrollment
	e.CreatedAt = r.now()
	r.st.enrollments[e.ID] = *e
	r.st.enrollmentPairs[key] = e.ID
	r.st.enrollmentsByStudent.add(e.StudentID, e.ID)
	r.st.enrollmentsByDiscipline.add(e.DisciplineID, e.ID)
	return nil
}

func (r *enrollmentRepo) GetByPair(_ context.Context, studentID, disciplineID int64) (*model.Enrollment, error) {
	id, ok := r.st.enrollmentPairs[pair{studentID, disciplineID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e := r.withNames(r.st.enrollments[id])
	return &e, nil
}

func (r *enrollmentRepo) List(_ context.Context, filter model.PairFilter) ([]model.Enrollment, error) {
	ids, ok := pairIDs(filter, r.st.enrollmentsByStudent, r.st.enrollmentsByDiscipline, r.st.enrollmentPairs)
	if !ok {
		ids = sortedKeys(r.st.enrollments)
	}
	out := make([]model.Enrollment, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.withNames(r.st.enrollments[id]))
	}
	return out, nil
}

func (r *enrollmentRepo) Delete(_ context.Context, id int64) error {
	e, ok := r.st.enrollments[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.st.enrollmentPairs, pair{e.StudentID, e.DisciplineID})
	r.st.enrollmentsByStudent.remove(e.StudentID, id)
	r.st.enrollmentsByDiscipline.remove(e.DisciplineID, id)
	delete(r.st.enrollments, id)
	return nil
}

func (r *enrollmentRepo) ExistsByStudentAndDiscipline(_ context.Context, studentID, disciplineID int64) (bool, error) {
	_, ok := r.st.enrollmentPairs[pair{studentID, disciplineID}]
	return ok, nil
}

func (r *enrollmentRepo) CountByDiscipline(_ context.Context, disciplineID int64) (int64, error) {
	return r.st.enrollmentsByDiscipline.count(disciplineID), nil
}

func (r *enrollmentRepo) CountByStudent(_ context.Context, studentID int64) (int64, error) {
	return r.st.enrollmentsByStudent.count(studentID), nil
}

type gradeRepo struct {
	st  *state
	now func() time.Time
}

func (r *gradeRepo) withNames(g model.Grade) model.Grade {
	s := r.st.students[g.StudentID]
	g.StudentName = s.Name
	g.Matricula = s.Matricula
	g.DisciplineName = r.st.disciplines[g.DisciplineID].Name
	return g
}

func (r *gradeRepo) Create(_ context.Context, g *model.Grade) error {
	if _, ok := r.st.students[g.StudentID]; !ok {
		return repository.ErrForeignKeyViolation
	}
	if _, ok := r.st.disciplines[g.DisciplineID]; !ok {
		return repository.ErrForeignKeyViolation
	}
	key := pair{g.StudentID, g.DisciplineID}
	if _, taken := r.st.gradePairs[key]; taken {
		return repository.ErrDuplicateKey
	}
	r.st.seq.grade++
	g.ID = r.st.seq.grade
	g.CreatedAt = r.now()
	g.UpdatedAt = g.CreatedAt
	r.st.grades[g.ID] = *g
	r.st.gradePairs[key] = g.ID
	r.st.gradesByStudent.add(g.StudentID, g.ID)
	r.st.gradesByDiscipline.add(g.DisciplineID, g.ID)
	return nil
}

func (r *gradeRepo) GetByID(_ context.Context, id int64) (*model.Grade, error) {
	g, ok := r.st.grades[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	g = r.withNames(g)
	return &g, nil
}

func (r *gradeRepo) List(_ context.Context, filter model.PairFilter) ([]model.Grade, error) {
	ids, ok := pairIDs(filter, r.st.gradesByStudent, r.st.gradesByDiscipline, r.st.gradePairs)
	if !ok {
		ids = sortedKeys(r.st.grades)
	}
	out := make([]model.Grade, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.withNames(r.st.grades[id]))
	}
	return out, nil
}

func (r *gradeRepo) Update(_ context.Context, g *model.Grade) error {
	old, ok := r.st.grades[g.ID]
	if !ok {
		return repository.ErrNotFound
	}
	old.Score1, old.Score2 = g.Score1, g.Score2
	old.Average, old.Classification = g.Average, g.Classification
	old.UpdatedAt = r.now()
	r.st.grades[g.ID] = old
	g.UpdatedAt = old.UpdatedAt
	return nil
}

func (r *gradeRepo) Delete(_ context.Context, id int64) error {
	g, ok := r.st.grades[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.st.gradePairs, pair{g.StudentID, g.DisciplineID})
	r.st.gradesByStudent.remove(g.StudentID, id)
	r.st.gradesByDiscipline.remove(g.DisciplineID, id)
	delete(r.st.grades, id)
	return nil
}

func (r *gradeRepo) ExistsByStudentAndDiscipline(_ context.Context, studentID, disciplineID int64) (bool, error) {
	_, ok := r.st.gradePairs[pair{studentID, disciplineID}]
	return ok, nil
}

func (r *gradeRepo) CountByDiscipline(_ context.Context, disciplineID int64) (int64, error) {
	return r.st.gradesByDiscipline.count(disciplineID), nil
}

func (r *gradeRepo) CountByStudent(_ context.Context, studentID int64) (int64, error) {
	return r.st.gradesByStudent.count(studentID), nil
}
