package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vssut/academia-backend/internal/config"
	"github.com/vssut/academia-backend/internal/model"
	"github.com/vssut/academia-backend/internal/repository"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// LockEventSink persists audited lock events.
type LockEventSink interface {
	CopyLockEvents(ctx context.Context, events []model.LockEvent) error
	InsertLockEvent(ctx context.Context, event model.LockEvent) error
}

// Queue is the list the attempt event bus pushes lock events onto. Pop
// returns redis.Nil when nothing arrived within timeout.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	Push(ctx context.Context, items ...string) error
}

// RedisQueue is a Queue over a Redis list.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewLockEventQueue returns the queue the attempt event bus writes lock events to.
func NewLockEventQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: config.WorkerKey.PersistLockEventsQueue}
}

// Pop blocks for up to timeout.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		return "", err
	}
	if len(result) < 2 {
		return "", redis.Nil
	}
	return result[1], nil
}

// Push appends items in one pipeline.
func (q *RedisQueue) Push(ctx context.Context, items ...string) error {
	pipe := q.rdb.Pipeline()
	for _, item := range items {
		pipe.RPush(ctx, q.key, item)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// LockAuditWorker drains lock events into the audit table in batches.
// The ledger row is the source of truth; this table is history only.
type LockAuditWorker struct {
	queue        Queue
	sink         LockEventSink
	log          zerolog.Logger
	batchTimeout time.Duration
	pollTimeout  time.Duration
	errorBackoff time.Duration
}

// NewLockAuditWorker creates a new LockAuditWorker.
func NewLockAuditWorker(queue Queue, sink LockEventSink, log zerolog.Logger) *LockAuditWorker {
	return &LockAuditWorker{
		queue:        queue,
		sink:         sink,
		log:          log.With().Str("component", "lock_audit_worker").Logger(),
		batchTimeout: BatchTimeout,
		pollTimeout:  PollTimeout,
		errorBackoff: 3 * time.Second,
	}
}

// Start runs until ctx is cancelled, then flushes what it holds.
func (w *LockAuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("LockAuditWorker started")

	buffer := make([]repository.LockEventPayload, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Flush on size or age.
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= w.batchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		// 2. Graceful shutdown.
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch. Returns immediately if data exists.
		raw, err := w.queue.Pop(ctx, w.pollTimeout)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue // shutdown handled at the top of the loop
			}
			w.log.Error().Err(err).Dur("backoff", w.errorBackoff).Msg("Redis connection error")
			sleep(ctx, w.errorBackoff)
			continue
		}

		// 4. Decode. Malformed JSON can never succeed, so it is dropped.
		var payload repository.LockEventPayload
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			w.log.Error().Err(err).Str("data", raw).Msg("Discarding malformed lock event")
			continue
		}

		buffer = append(buffer, payload)
		if len(buffer) == 1 {
			lastFlushTime = time.Now()
		}
	}
}

// flushSafe tries a bulk copy, then row-by-row, then requeues what still fails.
func (w *LockAuditWorker) flushSafe(ctx context.Context, batch []repository.LockEventPayload) {
	events, err := toLockEvents(batch)
	if err == nil {
		if err = w.sink.CopyLockEvents(ctx, events); err == nil {
			w.log.Debug().Int("count", len(events)).Msg("Lock events persisted")
			return
		}
	}

	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
	w.fallbackInsert(ctx, batch)
}

func (w *LockAuditWorker) fallbackInsert(ctx context.Context, batch []repository.LockEventPayload) {
	var requeueList []repository.LockEventPayload

	for _, p := range batch {
		examID, err := uuid.Parse(p.ExamID)
		if err != nil {
			w.log.Error().Str("exam_id", p.ExamID).Msg("Dropping lock event with invalid UUID")
			continue
		}

		err = w.sink.InsertLockEvent(ctx, model.LockEvent{
			ExamID:          examID,
			StudentUsername: p.Username,
			RecordedAt:      p.RecordedAt(),
		})
		if err != nil {
			w.log.Error().Err(err).Str("exam_id", p.ExamID).Str("username", p.Username).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *LockAuditWorker) requeue(ctx context.Context, items []repository.LockEventPayload) {
	data := make([]string, 0, len(items))
	for _, p := range items {
		b, _ := json.Marshal(p)
		data = append(data, string(b))
	}

	// The queue must outlive a cancelled worker context, or requeued items are lost.
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := w.queue.Push(pushCtx, data...); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue lock events. Audit entries lost.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed lock events")
	// Avoid thrashing while the database is down.
	sleep(ctx, w.errorBackoff)
}

func (w *LockAuditWorker) shutdown(buffer []repository.LockEventPayload) {
	w.log.Info().Int("pending", len(buffer)).Msg("Worker stopping, flushing remaining buffer")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}

func toLockEvents(batch []repository.LockEventPayload) ([]model.LockEvent, error) {
	events := make([]model.LockEvent, 0, len(batch))
	for _, p := range batch {
		examID, err := uuid.Parse(p.ExamID)
		if err != nil {
			// Fallback handles the bad UUID individually.
			return nil, err
		}
		events = append(events, model.LockEvent{
			ExamID:          examID,
			StudentUsername: p.Username,
			RecordedAt:      p.RecordedAt(),
		})
	}
	return events, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
