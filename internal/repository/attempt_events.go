package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vssut/academia-backend/internal/config"
	"github.com/vssut/academia-backend/internal/model"
)

// LockEventPayload is what the lock audit worker pops from the queue.
// Timestamp is in unix milliseconds.
type LockEventPayload struct {
	ExamID    string `json:"exam_id"`
	Username  string `json:"username"`
	Timestamp int64  `json:"timestamp"`
}

// RecordedAt converts Timestamp back to a UTC time.
func (p LockEventPayload) RecordedAt() time.Time {
	return time.UnixMilli(p.Timestamp).UTC()
}

// AttemptEventBus fans ledger transitions out over Redis: every event goes to
// the exam's monitor channel, lock events are also queued for the audit worker.
type AttemptEventBus struct {
	rdb *redis.Client
}

// NewAttemptEventBus creates a new AttemptEventBus.
func NewAttemptEventBus(rdb *redis.Client) *AttemptEventBus {
	return &AttemptEventBus{rdb: rdb}
}

// Publish sends the event. Both writes share one pipeline round trip.
func (b *AttemptEventBus) Publish(ctx context.Context, ev model.AttemptEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal attempt event: %w", err)
	}

	pipe := b.rdb.Pipeline()
	pipe.Publish(ctx, config.CacheKey.ExamMonitorChannel(ev.ExamID.String()), data)

	if ev.Type == model.EventAttemptLocked {
		lock, err := json.Marshal(LockEventPayload{
			ExamID:    ev.ExamID.String(),
			Username:  ev.Username,
			Timestamp: ev.At.UnixMilli(),
		})
		if err != nil {
			return fmt.Errorf("marshal lock event: %w", err)
		}
		pipe.RPush(ctx, config.WorkerKey.PersistLockEventsQueue, lock)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish attempt event: %w", err)
	}
	return nil
}

// Subscribe streams the events of one exam until ctx is done or the returned
// close function is called.
func (b *AttemptEventBus) Subscribe(ctx context.Context, examID uuid.UUID) (<-chan model.AttemptEvent, func() error, error) {
	pubsub := b.rdb.Subscribe(ctx, config.CacheKey.ExamMonitorChannel(examID.String()))
	// Wait for the subscription confirmation so no event is missed after return.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe monitor channel: %w", err)
	}

	out := make(chan model.AttemptEvent, 16)
	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev model.AttemptEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, pubsub.Close, nil
}
