package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/config"
	"github.com/stemsi/gradebook-backend/internal/model"
)

const (
	DefaultBatchSize = 50
	BatchTimeout     = 2 * time.Second
	PollTimeout      = 1 * time.Second // Must be >= 1s to satisfy Redis
	requeueBackoff   = 2 * time.Second
	errorBackoff     = 3 * time.Second
)

// ErrQueueEmpty is returned by Queue.Pop when nothing arrived within the timeout.
var ErrQueueEmpty = errors.New("queue empty")

// Queue is the source of serialized audit events.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	Push(ctx context.Context, items ...[]byte) error
}

// Persister writes a batch of audit events. *service.AuditService satisfies it.
type Persister interface {
	Persist(ctx context.Context, events []model.AuditEvent) (int64, error)
}

// RedisQueue is a Queue backed by a Redis list.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewRedisQueue returns the audit events queue.
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: config.WorkerKey.AuditEventsQueue}
}

// Pop blocks for up to timeout waiting for an item.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrQueueEmpty
	}
	if err != nil {
		return "", err
	}
	if len(result) < 2 {
		return "", ErrQueueEmpty
	}
	return result[1], nil
}

// Push appends items to the tail of the queue in one round trip.
func (q *RedisQueue) Push(ctx context.Context, items ...[]byte) error {
	pipe := q.rdb.Pipeline()
	for _, item := range items {
		pipe.RPush(ctx, q.key, item)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// AuditWorker drains the audit queue and persists events in batches.
type AuditWorker struct {
	queue     Queue
	persister Persister
	batchSize int
	backoff   time.Duration
	log       zerolog.Logger
}

func NewAuditWorker(queue Queue, persister Persister, batchSize int, log zerolog.Logger) *AuditWorker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &AuditWorker{
		queue:     queue,
		persister: persister,
		batchSize: batchSize,
		backoff:   requeueBackoff,
		log:       log.With().Str("component", "audit_worker").Logger(),
	}
}

// Start runs until ctx is cancelled, then flushes what is buffered.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Int("batch_size", w.batchSize).Msg("AuditWorker started")

	buffer := make([]model.AuditEvent, 0, w.batchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Flush on size or age
		if len(buffer) > 0 {
			if len(buffer) >= w.batchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Graceful shutdown
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch
		raw, err := w.queue.Pop(ctx, PollTimeout)
		if err != nil {
			if errors.Is(err, ErrQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Queue error, sleeping")
			sleep(ctx, errorBackoff)
			continue
		}

		// 4. Decode
		var event model.AuditEvent
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			// Malformed events can never succeed; drop them.
			w.log.Error().Err(err).Str("data", raw).Msg("Discarding malformed audit event")
			continue
		}
		buffer = append(buffer, event)
	}
}

// flushSafe persists the batch in one transaction, falling back to one event
// per transaction so a single bad event does not sink the rest.
func (w *AuditWorker) flushSafe(ctx context.Context, batch []model.AuditEvent) {
	n, err := w.persister.Persist(ctx, batch)
	if err == nil {
		w.log.Debug().Int64("count", n).Msg("Persisted audit batch")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Batch insert failed, attempting row-by-row recovery")

	var failed []model.AuditEvent
	for _, e := range batch {
		if _, err := w.persister.Persist(ctx, []model.AuditEvent{e}); err != nil {
			w.log.Error().Err(err).
				Str("entity", e.Entity).
				Int64("entity_id", e.EntityID).
				Msg("Insert failed, requeueing")
			failed = append(failed, e)
		}
	}
	if len(failed) > 0 {
		w.requeue(ctx, failed)
	}
}

func (w *AuditWorker) requeue(ctx context.Context, events []model.AuditEvent) {
	items := make([][]byte, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		items = append(items, data)
	}

	if err := w.queue.Push(ctx, items...); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue audit events. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed audit events")
	// Avoid thrashing while the database is down.
	sleep(ctx, w.backoff)
}

func (w *AuditWorker) shutdown(buffer []model.AuditEvent) {
	w.log.Info().Int("buffered", len(buffer)).Msg("AuditWorker stopping, flushing remaining buffer")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
