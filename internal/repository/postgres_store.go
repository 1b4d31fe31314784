package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PostgresStore is a Store backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// WithTx runs fn in a pgx transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(r *Repository) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(NewRepository(tx))
	})
}

// NewRepository binds every Postgres repository to db.
func NewRepository(db DBTX) *Repository {
	return &Repository{
		Courses:     &courseRepository{db: db},
		Professors:  &professorRepository{db: db},
		Students:    &studentRepository{db: db},
		Disciplines: &disciplineRepository{db: db},
		Enrollments: &enrollmentRepository{db: db},
		Grades:      &gradeRepository{db: db},
		Operators:   &operatorRepository{db: db},
		Audit:       &auditRepository{db: db},
	}
}

// mapError translates driver errors into the package's storage errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicateKey, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", ErrForeignKeyViolation, pgErr.ConstraintName)
		}
	}
	return err
}

// exists runs a SELECT EXISTS(...) query.
func exists(ctx context.Context, db DBTX, sql string, args ...any) (bool, error) {
	var ok bool
	if err := db.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// count runs a SELECT COUNT(*) query.
func count(ctx context.Context, db DBTX, sql string, args ...any) (int64, error) {
	var n int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// execAffecting runs a write and reports ErrNotFound when no row matched.
func execAffecting(ctx context.Context, db DBTX, sql string, args ...any) error {
	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
