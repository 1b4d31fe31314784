package repository

import (
	"context"

	"github.com/stemsi/gradebook-backend/internal/model"
)

type operatorRepository struct {
	db DBTX
}

// GetByID retrieves an operator by ID.
func (r *operatorRepository) GetByID(ctx context.Context, id int64) (*model.Operator, error) {
	o := &model.Operator{}
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM operators WHERE id = $1`, id,
	).Scan(&o.ID, &o.Email, &o.Name, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return o, nil
}

// GetByEmail retrieves an operator by their unique email.
func (r *operatorRepository) GetByEmail(ctx context.Context, email string) (*model.Operator, error) {
	o := &model.Operator{}
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at FROM operators WHERE email = $1`, email,
	).Scan(&o.ID, &o.Email, &o.Name, &o.PasswordHash, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return o, nil
}

// Create inserts a new operator.
func (r *operatorRepository) Create(ctx context.Context, o *model.Operator) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO operators (email, name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		o.Email, o.Name, o.PasswordHash,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return mapError(err)
}
