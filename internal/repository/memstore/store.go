// Package memstore is an in-memory implementation of repository.Store.
//
// Records live in id-indexed tables. Relationships are kept as reverse
// indexes keyed by foreign key, so "the disciplines of a course" is a lookup
// rather than a pointer held by the course. Transactions are serialized and
// run against a copy of the state that replaces the live state on commit.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

type pair struct {
	studentID    int64
	disciplineID int64
}

type nameInCourse struct {
	name     string
	courseID int64
}

// index maps a foreign key to the set of record ids referencing it.
type index map[int64]map[int64]struct{}

func (ix index) add(key, id int64) {
	set, ok := ix[key]
	if !ok {
		set = make(map[int64]struct{})
		ix[key] = set
	}
	set[id] = struct{}{}
}

func (ix index) remove(key, id int64) {
	if set, ok := ix[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(ix, key)
		}
	}
}

func (ix index) count(key int64) int64 {
	return int64(len(ix[key]))
}

func (ix index) ids(key int64) []int64 {
	out := make([]int64, 0, len(ix[key]))
	for id := range ix[key] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (ix index) clone() index {
	out := make(index, len(ix))
	for k, set := range ix {
		cp := make(map[int64]struct{}, len(set))
		for id := range set {
			cp[id] = struct{}{}
		}
		out[k] = cp
	}
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type sequences struct {
	course, professor, student, discipline, enrollment, grade, operator, audit int64
}

type state struct {
	seq sequences

	courses     map[int64]model.Course
	professors  map[int64]model.Professor
	students    map[int64]model.Student
	disciplines map[int64]model.Discipline
	enrollments map[int64]model.Enrollment
	grades      map[int64]model.Grade
	operators   map[int64]model.Operator
	audit       []model.AuditLog

	// unique keys
	courseNames     map[string]int64
	registrations   map[string]int64
	matriculas      map[string]int64
	disciplineNames map[nameInCourse]int64
	enrollmentPairs map[pair]int64
	gradePairs      map[pair]int64
	operatorEmails  map[string]int64

	// reverse lookups
	disciplinesByCourse     index
	disciplinesByProfessor  index
	enrollmentsByStudent    index
	enrollmentsByDiscipline index
	gradesByStudent         index
	gradesByDiscipline      index
}

func newState() *state {
	return &state{
		courses:                 map[int64]model.Course{},
		professors:              map[int64]model.Professor{},
		students:                map[int64]model.Student{},
		disciplines:             map[int64]model.Discipline{},
		enrollments:             map[int64]model.Enrollment{},
		grades:                  map[int64]model.Grade{},
		operators:               map[int64]model.Operator{},
		courseNames:             map[string]int64{},
		registrations:           map[string]int64{},
		matriculas:              map[string]int64{},
		disciplineNames:         map[nameInCourse]int64{},
		enrollmentPairs:         map[pair]int64{},
		gradePairs:              map[pair]int64{},
		operatorEmails:          map[string]int64{},
		disciplinesByCourse:     index{},
		disciplinesByProfessor:  index{},
		enrollmentsByStudent:    index{},
		enrollmentsByDiscipline: index{},
		gradesByStudent:         index{},
		gradesByDiscipline:      index{},
	}
}

func (s *state) clone() *state {
	return &state{
		seq:                     s.seq,
		courses:                 cloneMap(s.courses),
		professors:              cloneMap(s.professors),
		students:                cloneMap(s.students),
		disciplines:             cloneMap(s.disciplines),
		enrollments:             cloneMap(s.enrollments),
		grades:                  cloneMap(s.grades),
		operators:               cloneMap(s.operators),
		audit:                   append([]model.AuditLog(nil), s.audit...),
		courseNames:             cloneMap(s.courseNames),
		registrations:           cloneMap(s.registrations),
		matriculas:              cloneMap(s.matriculas),
		disciplineNames:         cloneMap(s.disciplineNames),
		enrollmentPairs:         cloneMap(s.enrollmentPairs),
		gradePairs:              cloneMap(s.gradePairs),
		operatorEmails:          cloneMap(s.operatorEmails),
		disciplinesByCourse:     s.disciplinesByCourse.clone(),
		disciplinesByProfessor:  s.disciplinesByProfessor.clone(),
		enrollmentsByStudent:    s.enrollmentsByStudent.clone(),
		enrollmentsByDiscipline: s.enrollmentsByDiscipline.clone(),
		gradesByStudent:         s.gradesByStudent.clone(),
		gradesByDiscipline:      s.gradesByDiscipline.clone(),
	}
}

// Store is an in-memory repository.Store.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{state: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// WithTx runs fn against a private copy of the state and publishes the copy
// only if fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(r *repository.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(newRepository(work, s.now)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

func newRepository(st *state, now func() time.Time) *repository.Repository {
	return &repository.Repository{
		Courses:     &courseRepo{st: st, now: now},
		Professors:  &professorRepo{st: st, now: now},
		Students:    &studentRepo{st: st, now: now},
		Disciplines: &disciplineRepo{st: st, now: now},
		Enrollments: &enrollmentRepo{st: st, now: now},
		Grades:      &gradeRepo{st: st, now: now},
		Operators:   &operatorRepo{st: st, now: now},
		Audit:       &auditRepo{st: st},
	}
}
