package service

import (
	"context"
	"testing"

	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
)

func TestStudentService_Create_DuplicateMatricula(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	s, err := env.students.Create(ctx, model.StudentRequest{Name: "Pedro Oliveira", Matricula: "2024001"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Matricula != "2024001" {
		t.Errorf("matricula = %q", s.Matricula)
	}

	_, err = env.students.Create(ctx, model.StudentRequest{Name: "Maria Souza", Matricula: "2024001"})
	assertKind(t, err, apperror.KindValidation)
}

func TestStudentService_GetByID_RoundTrip(t *testing.T) {
	env := newTestEnv()
	created := env.student(t, "Pedro Oliveira", "2024001")

	got, err := env.students.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if *got != *created {
		t.Errorf("GetByID = %+v, want %+v", got, created)
	}
}

func TestStudentService_Update_OwnMatricula(t *testing.T) {
	env := newTestEnv()
	s := env.student(t, "Pedro", "2024001")

	got, err := env.students.Update(context.Background(), s.ID, model.StudentRequest{Name: "Pedro Oliveira", Matricula: "2024001"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Pedro Oliveira" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestStudentService_Delete_BlockedByEnrollment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, _, disc, stu := env.fixture(t)

	if _, err := env.enrollments.EnrollPair(ctx, stu.ID, disc.ID); err != nil {
		t.Fatalf("EnrollPair: %v", err)
	}

	err := env.students.Delete(ctx, stu.ID)
	assertKind(t, err, apperror.KindIntegrity)
	if _, err := env.students.GetByID(ctx, stu.ID); err != nil {
		t.Fatalf("student should survive a refused delete: %v", err)
	}

	if err := env.enrollments.Unenroll(ctx, stu.ID, disc.ID); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}
	if err := env.students.Delete(ctx, stu.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestStudentService_Delete_BlockedByGrade(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, _, disc, stu := env.fixture(t)

	if _, err := env.enrollments.EnrollPair(ctx, stu.ID, disc.ID); err != nil {
		t.Fatalf("EnrollPair: %v", err)
	}
	if _, err := env.grades.Create(ctx, model.GradeRequest{
		StudentID: stu.ID, DisciplineID: disc.ID, Score1: score("8.0"), Score2: score("6.0"),
	}); err != nil {
		t.Fatalf("Create grade: %v", err)
	}
	if err := env.enrollments.Unenroll(ctx, stu.ID, disc.ID); err != nil {
		t.Fatalf("Unenroll: %v", err)
	}

	assertKind(t, env.students.Delete(ctx, stu.ID), apperror.KindIntegrity)
	if _, err := env.students.GetByID(ctx, stu.ID); err != nil {
		t.Fatalf("student should survive a refused delete: %v", err)
	}
}
