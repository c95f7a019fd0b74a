package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/marketing-calendar-api/pkg/cache"
	appErrors "github.com/noah-isme/marketing-calendar-api/pkg/errors"
)

const (
	scanCount   = 200
	deleteBatch = 100
)

// CacheRepository stores calendar projections in Redis. Entries live under a
// namespace whose generation counter is bumped on invalidation, so a payload
// written by a read that started before the bump is never served again.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository. client may be nil, in
// which case every read misses and writes are dropped.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get decodes the projection stored at key into dest. A payload that no longer
// decodes is removed and reported as ErrCacheCodec.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		if delErr := r.client.Del(ctx, key).Err(); delErr != nil {
			r.logger.Warn("failed to drop undecodable projection", zap.String("key", key), zap.Error(delErr))
		}
		return appErrors.Wrap(err, appErrors.ErrCacheCodec.Code, appErrors.ErrCacheCodec.Status, "cached projection for "+key+" is unreadable")
	}
	return nil
}

// Set encodes value and stores it at key for ttl.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCacheCodec.Code, appErrors.ErrCacheCodec.Status, "projection for "+key+" cannot be encoded")
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Generation returns the current generation of namespace. A namespace that
// was never invalidated is at generation 0.
func (r *CacheRepository) Generation(ctx context.Context, namespace string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	gen, err := r.client.Get(ctx, cache.GenerationKey(namespace)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation %s: %w", namespace, err)
	}
	return gen, nil
}

// Invalidate moves namespace to a new generation and drops the entries of
// older generations. It returns the new generation.
func (r *CacheRepository) Invalidate(ctx context.Context, namespace string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	gen, err := r.client.Incr(ctx, cache.GenerationKey(namespace)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis bump generation %s: %w", namespace, err)
	}
	removed, err := r.deleteMatching(ctx, cache.ProjectionPattern(namespace))
	if err != nil {
		// Older generations are unreachable already; they expire on their own.
		r.logger.Warn("failed to sweep stale projections", zap.String("namespace", namespace), zap.Error(err))
		return gen, nil
	}
	r.logger.Debug("projection namespace invalidated", zap.String("namespace", namespace), zap.Int64("generation", gen), zap.Int("removed", removed))
	return gen, nil
}

// deleteMatching removes every key matching pattern in batches.
func (r *CacheRepository) deleteMatching(ctx context.Context, pattern string) (int, error) {
	removed := 0
	batch := make([]string, 0, deleteBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := r.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis delete batch: %w", err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == deleteBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
