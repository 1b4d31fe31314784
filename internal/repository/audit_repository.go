package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/gradebook-backend/internal/model"
)

type auditRepository struct {
	db DBTX
}

// InsertBatch writes events with COPY and returns the number of rows written.
func (r *auditRepository) InsertBatch(ctx context.Context, events []model.AuditEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	return r.db.CopyFrom(
		ctx,
		pgx.Identifier{"audit_logs"},
		[]string{"entity", "entity_id", "action", "actor", "occurred_at"},
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			return []any{e.Entity, e.EntityID, e.Action, e.Actor, e.OccurredAt}, nil
		}),
	)
}

// List returns one page of audit logs, newest first, and the total matching count.
func (r *auditRepository) List(ctx context.Context, filter model.AuditFilter) ([]model.AuditLog, int64, error) {
	where := ``
	var args []any
	if filter.Entity != "" {
		where = ` WHERE entity = $1`
		args = append(args, filter.Entity)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.PerPage
	offset := (filter.Page - 1) * filter.PerPage
	query := `SELECT id, entity, entity_id, action, actor, occurred_at FROM audit_logs` + where
	if filter.Entity != "" {
		query += ` ORDER BY occurred_at DESC, id DESC LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY occurred_at DESC, id DESC LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := []model.AuditLog{}
	for rows.Next() {
		var l model.AuditLog
		if err := rows.Scan(&l.ID, &l.Entity, &l.EntityID, &l.Action, &l.Actor, &l.OccurredAt); err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}
