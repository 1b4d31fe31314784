package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/config"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
)

const (
	defaultAuditPerPage = 20
	maxAuditPerPage     = 100
)

// AuditPublisher hands audit events off for persistence.
type AuditPublisher interface {
	Publish(ctx context.Context, event model.AuditEvent) error
}

// QueueAuditPublisher pushes events onto the Redis audit queue, to be
// persisted in batches by the audit worker.
type QueueAuditPublisher struct {
	rdb *redis.Client
}

// NewQueueAuditPublisher creates a new QueueAuditPublisher.
func NewQueueAuditPublisher(rdb *redis.Client) *QueueAuditPublisher {
	return &QueueAuditPublisher{rdb: rdb}
}

// Publish enqueues event as JSON.
func (p *QueueAuditPublisher) Publish(ctx context.Context, event model.AuditEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	if err := p.rdb.RPush(ctx, config.WorkerKey.AuditEventsQueue, data).Err(); err != nil {
		return fmt.Errorf("enqueue audit event: %w", err)
	}
	return nil
}

// StoreAuditPublisher writes each event straight to the store. Used when Redis is disabled.
type StoreAuditPublisher struct {
	store repository.Store
}

// NewStoreAuditPublisher creates a new StoreAuditPublisher.
func NewStoreAuditPublisher(store repository.Store) *StoreAuditPublisher {
	return &StoreAuditPublisher{store: store}
}

// Publish persists event in its own transaction.
func (p *StoreAuditPublisher) Publish(ctx context.Context, event model.AuditEvent) error {
	return p.store.WithTx(ctx, func(r *repository.Repository) error {
		_, err := r.Audit.InsertBatch(ctx, []model.AuditEvent{event})
		return err
	})
}

// AuditService reads and writes the audit trail.
type AuditService struct {
	store repository.Store
	log   zerolog.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(store repository.Store, log zerolog.Logger) *AuditService {
	return &AuditService{
		store: store,
		log:   log.With().Str("component", "audit_service").Logger(),
	}
}

// Persist writes a batch of events in one transaction and returns how many were stored.
func (s *AuditService) Persist(ctx context.Context, events []model.AuditEvent) (int64, error) {
	var n int64
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		var err error
		n, err = r.Audit.InsertBatch(ctx, events)
		return err
	})
	return n, err
}

// List returns one page of audit logs, newest first, with the total count.
func (s *AuditService) List(ctx context.Context, filter model.AuditFilter) ([]model.AuditLog, int64, model.AuditFilter, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = defaultAuditPerPage
	}
	if filter.PerPage > maxAuditPerPage {
		filter.PerPage = maxAuditPerPage
	}

	var (
		logs  []model.AuditLog
		total int64
	)
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		var err error
		logs, total, err = r.Audit.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, filter, finish(err)
	}
	return logs, total, filter, nil
}
