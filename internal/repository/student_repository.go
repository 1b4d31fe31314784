package repository

import (
	"context"

	"github.com/stemsi/gradebook-backend/internal/model"
)

type studentRepository struct {
	db DBTX
}

func (r *studentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO students (name, matricula) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		s.Name, s.Matricula).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return mapError(err)
}

func (r *studentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	s := &model.Student{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, matricula, created_at, updated_at FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Matricula, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *studentRepository) List(ctx context.Context) ([]model.Student, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, matricula, created_at, updated_at FROM students ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Matricula, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (r *studentRepository) Update(ctx context.Context, s *model.Student) error {
	err := r.db.QueryRow(ctx,
		`UPDATE students SET name = $1, matricula = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3 RETURNING updated_at`,
		s.Name, s.Matricula, s.ID).Scan(&s.UpdatedAt)
	return mapError(err)
}

func (r *studentRepository) Delete(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, `DELETE FROM students WHERE id = $1`, id)
}

func (r *studentRepository) ExistsByMatricula(ctx context.Context, matricula string) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM students WHERE matricula = $1)`, matricula)
}

func (r *studentRepository) ExistsByMatriculaExcludingID(ctx context.Context, matricula string, id int64) (bool, error) {
	return exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM students WHERE matricula = $1 AND id <> $2)`, matricula, id)
}
