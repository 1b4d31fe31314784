package repository

import (
	"context"

	"github.com/stemsi/gradebook-backend/internal/model"
)

type professorRepository struct {
	db DBTX
}

func (r *professorRepository) Create(ctx context.Context, p *model.Professor) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO professors (name, registration) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		p.Name, p.Registration).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err)
}

func (r *professorRepository) GetByID(ctx context.Context, id int64) (*model.Professor, error) {
	p := &model.Professor{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, registration, created_at, updated_at FROM professors WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Registration, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *professorRepository) List(ctx context.Context) ([]model.Professor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, registration, created_at, updated_at FROM professors ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	professors := []model.Professor{}
	for rows.Next() {
		var p model.Professor
		if err := rows.Scan(&p.ID, &p.Name, &p.Registration, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		professors = append(professors, p)
	}
	return professors, rows.Err()
}

func (r *professorRepository) Update(ctx context.Context, p *model.Professor) error {
	err := r.db.QueryRow(ctx,
		`UPDATE professors SET name = $1, registration = $2, updated_at = NOW() WHERE id = $3 RETURNING updated_at`,
		p.Name, p.Registration, p.ID).Scan(&p.UpdatedAt)
	return mapError(err)
}

func (r *professorRepository) Delete(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, `DELETE FROM professors WHERE id = $1`, id)
}

func (r *professorRepository) ExistsByRegistration(ctx context.Context, registration string) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM professors WHERE registration = $1)`, registration)
}

func (r *professorRepository) ExistsByRegistrationExcludingID(ctx context.Context, registration string, id int64) (bool, error) {
	return exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM professors WHERE registration = $1 AND id <> $2)`, registration, id)
}
