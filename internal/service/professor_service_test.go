package service

import (
	"context"
	"testing"

	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/model"
)

func TestProfessorService_Create_DuplicateRegistration(t *testing.T) {
	env := newTestEnv()
	env.professor(t, "Ada Lovelace", "P-001")

	_, err := env.professors.Create(context.Background(), model.ProfessorRequest{Name: "Alan Turing", Registration: "P-001"})
	assertKind(t, err, apperror.KindValidation)

	e, _ := apperror.As(err)
	if e.Fields["registration"] == "" {
		t.Errorf("expected a registration field error, got %+v", e.Fields)
	}
}

func TestProfessorService_Create_RegistrationTooLong(t *testing.T) {
	env := newTestEnv()
	_, err := env.professors.Create(context.Background(), model.ProfessorRequest{Name: "Ada", Registration: "123456789012345678901"})
	assertKind(t, err, apperror.KindValidation)
}

func TestProfessorService_Update(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p := env.professor(t, "Ada", "P-001")
	env.professor(t, "Alan", "P-002")

	updated, err := env.professors.Update(ctx, p.ID, model.ProfessorRequest{Name: "Ada Lovelace", Registration: "P-001"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Ada Lovelace" {
		t.Errorf("name = %q", updated.Name)
	}

	_, err = env.professors.Update(ctx, p.ID, model.ProfessorRequest{Name: "Ada", Registration: "P-002"})
	assertKind(t, err, apperror.KindValidation)
}

func TestProfessorService_Delete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, prof, disc, _ := env.fixture(t)

	assertKind(t, env.professors.Delete(ctx, prof.ID), apperror.KindIntegrity)

	got, err := env.professors.GetByID(ctx, prof.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Disciplines) != 1 || got.Disciplines[0].ID != disc.ID {
		t.Errorf("unexpected disciplines %+v", got.Disciplines)
	}

	if err := env.disciplines.Delete(ctx, disc.ID); err != nil {
		t.Fatalf("delete discipline: %v", err)
	}
	if err := env.professors.Delete(ctx, prof.ID); err != nil {
		t.Fatalf("delete professor: %v", err)
	}
	assertKind(t, env.professors.Delete(ctx, prof.ID), apperror.KindNotFound)
}
