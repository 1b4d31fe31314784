package repository

import (
	"context"

	"github.com/stemsi/gradebook-backend/internal/model"
)

type courseRepository struct {
	db DBTX
}

func (r *courseRepository) Create(ctx context.Context, c *model.Course) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO courses (name) VALUES ($1) RETURNING id, created_at, updated_at`,
		c.Name).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return mapError(err)
}

func (r *courseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	c := &model.Course{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM courses WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return c, nil
}

func (r *courseRepository) List(ctx context.Context) ([]model.Course, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at, updated_at FROM courses ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *courseRepository) Update(ctx context.Context, c *model.Course) error {
	err := r.db.QueryRow(ctx,
		`UPDATE courses SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`,
		c.Name, c.ID).Scan(&c.UpdatedAt)
	return mapError(err)
}

func (r *courseRepository) Delete(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, `DELETE FROM courses WHERE id = $1`, id)
}

func (r *courseRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM courses WHERE name = $1)`, name)
}

func (r *courseRepository) ExistsByNameExcludingID(ctx context.Context, name string, id int64) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM courses WHERE name = $1 AND id <> $2)`, name, id)
}
