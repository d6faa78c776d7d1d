package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vssut/academia-backend/internal/config"
	"github.com/vssut/academia-backend/internal/model"
)

// ExamCache keeps serialized exam definitions in Redis so grading a submit
// does not hit the database.
type ExamCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewExamCache creates a new ExamCache. A zero ttl keeps entries forever.
func NewExamCache(rdb *redis.Client, ttl time.Duration) *ExamCache {
	return &ExamCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached definition; ok is false on a miss.
func (c *ExamCache) Get(ctx context.Context, id uuid.UUID) (*model.ExamDefinition, bool, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.ExamDefinitionKey(id.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get exam definition: %w", err)
	}

	var exam model.ExamDefinition
	if err := json.Unmarshal(data, &exam); err != nil {
		return nil, false, fmt.Errorf("unmarshal exam definition: %w", err)
	}
	return &exam, true, nil
}

// Set stores the definition.
func (c *ExamCache) Set(ctx context.Context, exam *model.ExamDefinition) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal exam definition: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.ExamDefinitionKey(exam.ID.String()), data, c.ttl).Err()
}

// Evict drops the cached definition.
func (c *ExamCache) Evict(ctx context.Context, id uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.ExamDefinitionKey(id.String())).Err()
}
