package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vssut/academia-backend/internal/config"
	"github.com/vssut/academia-backend/internal/model"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestExamCache_HitMissEvict(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewExamCache(rdb, time.Hour)
	ctx := context.Background()

	exam := &model.ExamDefinition{
		ID:         uuid.New(),
		CourseCode: "CS101",
		Title:      "Quiz 1",
		Creator:    "prof",
		Questions:  []model.Question{{Text: "2+2", Options: []string{"3", "4"}, CorrectOption: 1}},
		CreatedAt:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	_, ok, err := cache.Get(ctx, exam.ID)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache is a miss")

	require.NoError(t, cache.Set(ctx, exam))
	key := config.CacheKey.ExamDefinitionKey(exam.ID.String())
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))

	got, ok, err := cache.Get(ctx, exam.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, exam.Questions, got.Questions)
	assert.True(t, exam.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, cache.Evict(ctx, exam.ID))
	_, ok, err = cache.Get(ctx, exam.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExamCache_ExpiresAfterTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewExamCache(rdb, time.Minute)
	ctx := context.Background()
	exam := &model.ExamDefinition{ID: uuid.New(), CourseCode: "CS101", Creator: "prof"}

	require.NoError(t, cache.Set(ctx, exam))
	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, exam.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExamCache_CorruptEntryIsAnError(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewExamCache(rdb, time.Minute)
	id := uuid.New()

	require.NoError(t, mr.Set(config.CacheKey.ExamDefinitionKey(id.String()), "{broken"))

	_, ok, err := cache.Get(context.Background(), id)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestAttemptEventBus_LockEventsAreQueued(t *testing.T) {
	mr, rdb := newTestRedis(t)
	bus := NewAttemptEventBus(rdb)
	ctx := context.Background()
	examID := uuid.New()
	at := time.Date(2024, 3, 1, 9, 30, 15, 250*int(time.Millisecond), time.UTC)

	require.NoError(t, bus.Publish(ctx, model.AttemptEvent{
		Type: model.EventAttemptStarted, ExamID: examID, Username: "asha", Status: model.StatusInProgress, At: at,
	}))
	assert.False(t, mr.Exists(config.WorkerKey.PersistLockEventsQueue), "only locks are audited")

	require.NoError(t, bus.Publish(ctx, model.AttemptEvent{
		Type: model.EventAttemptLocked, ExamID: examID, Username: "asha", Status: model.StatusLocked, At: at,
	}))

	items, err := mr.List(config.WorkerKey.PersistLockEventsQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var payload LockEventPayload
	require.NoError(t, json.Unmarshal([]byte(items[0]), &payload))
	assert.Equal(t, examID.String(), payload.ExamID)
	assert.Equal(t, "asha", payload.Username)
	assert.True(t, at.Equal(payload.RecordedAt()), "got %s", payload.RecordedAt())
}

func TestAttemptEventBus_SubscribeReceivesOwnExamOnly(t *testing.T) {
	_, rdb := newTestRedis(t)
	bus := NewAttemptEventBus(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watched := uuid.New()
	events, closeSub, err := bus.Subscribe(ctx, watched)
	require.NoError(t, err)
	defer closeSub()

	require.NoError(t, bus.Publish(ctx, model.AttemptEvent{Type: model.EventAttemptStarted, ExamID: uuid.New(), Username: "other"}))
	require.NoError(t, bus.Publish(ctx, model.AttemptEvent{Type: model.EventAttemptStarted, ExamID: watched, Username: "asha"}))

	select {
	case ev := <-events:
		assert.Equal(t, watched, ev.ExamID)
		assert.Equal(t, "asha", ev.Username)
		assert.Equal(t, model.EventAttemptStarted, ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestAttemptEventBus_ChannelClosesWithContext(t *testing.T) {
	_, rdb := newTestRedis(t)
	bus := NewAttemptEventBus(rdb)
	ctx, cancel := context.WithCancel(context.Background())

	events, closeSub, err := bus.Subscribe(ctx, uuid.New())
	require.NoError(t, err)
	defer closeSub()

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
