package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

type operatorRepo struct {
	st  *state
	now func() time.Time
}

func (r *operatorRepo) Create(_ context.Context, o *model.Operator) error {
	if _, taken := r.st.operatorEmails[o.Email]; taken {
		return repository.ErrDuplicateKey
	}
	r.st.seq.operator++
	o.ID = r.st.seq.operator
	o.CreatedAt = r.now()
	o.UpdatedAt = o.CreatedAt
	r.st.operators[o.ID] = *o
	r.st.operatorEmails[o.Email] = o.ID
	return nil
}

func (r *operatorRepo) GetByID(_ context.Context, id int64) (*model.Operator, error) {
	o, ok := r.st.operators[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (r *operatorRepo) GetByEmail(_ context.Context, email string) (*model.Operator, error) {
	id, ok := r.st.operatorEmails[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o := r.st.operators[id]
	return &o, nil
}

type auditRepo struct {
	st *state
}

func (r *auditRepo) InsertBatch(_ context.Context, events []model.AuditEvent) (int64, error) {
	for _, e := range events {
		r.st.seq.audit++
		r.st.audit = append(r.st.audit, model.AuditLog{
			ID:         r.st.seq.audit,
			Entity:     e.Entity,
			EntityID:   e.EntityID,
			Action:     e.Action,
			Actor:      e.Actor,
			OccurredAt: e.OccurredAt,
		})
	}
	return int64(len(events)), nil
}

func (r *auditRepo) List(_ context.Context, filter model.AuditFilter) ([]model.AuditLog, int64, error) {
	matched := []model.AuditLog{}
	for _, l := range r.st.audit {
		if filter.Entity == "" || l.Entity == filter.Entity {
			matched = append(matched, l)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].OccurredAt.Equal(matched[j].OccurredAt) {
			return matched[i].OccurredAt.After(matched[j].OccurredAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.PerPage
	if start < 0 || start >= len(matched) {
		return []model.AuditLog{}, total, nil
	}
	end := min(start+filter.PerPage, len(matched))
	return matched[start:end], total, nil
}
