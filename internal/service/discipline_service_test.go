package service

import (
	"context"
	"testing"

	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
)

func TestDisciplineService_Create_EmbedsNames(t *testing.T) {
	env := newTestEnv()
	course, prof, disc, _ := env.fixture(t)

	if disc.CourseID != course.ID || disc.CourseName != "Computer Science" {
		t.Errorf("unexpected course fields %+v", disc)
	}
	if disc.ProfessorID != prof.ID || disc.ProfessorName != "Ada Lovelace" {
		t.Errorf("unexpected professor fields %+v", disc)
	}
}

func TestDisciplineService_Create_NameScopedToCourse(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	course, prof, _, _ := env.fixture(t)

	_, err := env.disciplines.Create(ctx, model.DisciplineRequest{Name: "POO", CourseID: course.ID, ProfessorID: prof.ID})
	assertKind(t, err, apperror.KindValidation)

	other := env.course(t, "Information Systems")
	if _, err := env.disciplines.Create(ctx, model.DisciplineRequest{Name: "POO", CourseID: other.ID, ProfessorID: prof.ID}); err != nil {
		t.Fatalf("same name under a different course should succeed: %v", err)
	}
}

func TestDisciplineService_Create_MissingReferences(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	course := env.course(t, "CS")
	prof := env.professor(t, "Ada", "P-001")

	cases := []struct {
		name string
		req  model.DisciplineRequest
		kind apperror.Kind
	}{
		{"missing course", model.DisciplineRequest{Name: "POO", CourseID: 99, ProfessorID: prof.ID}, apperror.KindNotFound},
		{"missing professor", model.DisciplineRequest{Name: "POO", CourseID: course.ID, ProfessorID: 99}, apperror.KindNotFound},
		{"zero course id", model.DisciplineRequest{Name: "POO", CourseID: 0, ProfessorID: prof.ID}, apperror.KindValidation},
		{"blank name", model.DisciplineRequest{Name: " ", CourseID: course.ID, ProfessorID: prof.ID}, apperror.KindValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.disciplines.Create(ctx, tc.req)
			assertKind(t, err, tc.kind)
		})
	}
}

func TestDisciplineService_List_Filters(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	course, prof, _, _ := env.fixture(t)
	other := env.professor(t, "Alan Turing", "P-002")
	env.discipline(t, "Algorithms", course.ID, other.ID)
	math := env.course(t, "Mathematics")
	env.discipline(t, "Calculus", math.ID, prof.ID)

	cases := []struct {
		name   string
		filter model.DisciplineFilter
		want   []string
	}{
		{"all", model.DisciplineFilter{}, []string{"Algorithms", "Calculus", "POO"}},
		{"by course", model.DisciplineFilter{CourseID: &course.ID}, []string{"Algorithms", "POO"}},
		{"by professor", model.DisciplineFilter{ProfessorID: &prof.ID}, []string{"Calculus", "POO"}},
		{"by both", model.DisciplineFilter{CourseID: &course.ID, ProfessorID: &other.ID}, []string{"Algorithms"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := env.disciplines.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != len(tc.want) {
				t.Fatalf("got %d disciplines, want %v", len(list), tc.want)
			}
			for i, d := range list {
				if d.Name != tc.want[i] {
					t.Errorf("position %d = %q, want %q", i, d.Name, tc.want[i])
				}
			}
		})
	}

	_, err := env.disciplines.List(ctx, model.DisciplineFilter{CourseID: ptr(404)})
	assertKind(t, err, apperror.KindNotFound)
}

func TestDisciplineService_Update_MovesCourse(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	course, prof, disc, _ := env.fixture(t)
	math := env.course(t, "Mathematics")

	updated, err := env.disciplines.Update(ctx, disc.ID, model.DisciplineRequest{Name: "POO", CourseID: math.ID, ProfessorID: prof.ID})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.CourseName != "Mathematics" {
		t.Errorf("course name = %q", updated.CourseName)
	}

	n, err := env.disciplines.List(ctx, model.DisciplineFilter{CourseID: &course.ID})
	if err != nil || len(n) != 0 {
		t.Errorf("old course should have no disciplines, got %v (%v)", n, err)
	}
}

func TestDisciplineService_Delete_BlockedByEnrollment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, _, disc, stu := env.fixture(t)

	if _, err := env.enrollments.EnrollPair(ctx, stu.ID, disc.ID); err != nil {
		t.Fatalf("EnrollPair: %v", err)
	}
	assertKind(t, env.disciplines.Delete(ctx, disc.ID), apperror.KindIntegrity)

	if _, err := env.disciplines.GetByID(ctx, disc.ID); err != nil {
		t.Fatalf("discipline should survive a refused delete: %v", err)
	}
}

func TestDisciplineService_Delete_BlockedByGrade(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, _, disc, stu := env.fixture(t)

	if _, err := env.enrollments.EnrollPair(ctx, stu.ID, disc.ID); err != nil {
		t.Fatalf("EnrollPair: %v", err)
	}
	g, err := env.grades.Create(ctx, model.GradeRequest{
		StudentID: stu.ID, DisciplineID: disc.ID, Score1: score("8.0"), Score2: score("6.0"),
	})
	if err != nil {
		t.Fatalf("Create grade: %v", err)
	}
	if err := env.enrollments.Unenroll(ctx, stu.ID, disc.ID); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}

	assertKind(t, env.disciplines.Delete(ctx, disc.ID), apperror.KindIntegrity)
	if _, err := env.disciplines.GetByID(ctx, disc.ID); err != nil {
		t.Fatalf("discipline should survive a refused delete: %v", err)
	}

	if err := env.grades.Delete(ctx, g.ID); err != nil {
		t.Fatalf("Delete grade: %v", err)
	}
	if err := env.disciplines.Delete(ctx, disc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = env.disciplines.GetByID(ctx, disc.ID)
	assertKind(t, err, apperror.KindNotFound)
}
