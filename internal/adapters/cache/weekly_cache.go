package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-pulse/internal/core/domain"
)

var _ domain.WeeklyCache = (*RedisWeeklyCache)(nil)

// generationTTL outlives any single request, so a counter never resets under
// a computation that read it.
const generationTTL = 24 * time.Hour

// RedisWeeklyCache keeps one hash per user and metric, with one field per week
// and time zone, so a submit can drop every cached week with a single DEL.
// A counter next to the hash guards writes computed before an invalidation.
type RedisWeeklyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisWeeklyCache(rdb *redis.Client, ttl time.Duration) *RedisWeeklyCache {
	return &RedisWeeklyCache{rdb: rdb, ttl: ttl}
}

func hashKey(userID string, metric domain.Metric) string {
	return fmt.Sprintf("weekly:%s:%s", userID, metric)
}

func generationKey(userID string, metric domain.Metric) string {
	return hashKey(userID, metric) + ":gen"
}

func weekField(weekStart time.Time) string {
	return weekStart.Format(domain.DateLayout) + "|" + weekStart.Location().String()
}

func (c *RedisWeeklyCache) Get(ctx context.Context, key domain.WeeklyCacheKey) (*domain.WeeklyView, error) {
	hk := hashKey(key.UserID, key.Metric)
	field := weekField(key.WeekStart)

	val, err := c.rdb.HGet(ctx, hk, field).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", hk, err)
	}

	var view domain.WeeklyView
	if err := json.Unmarshal([]byte(val), &view); err != nil {
		c.rdb.HDel(ctx, hk, field)
		return nil, domain.ErrCacheMiss
	}
	return &view, nil
}

func (c *RedisWeeklyCache) Generation(ctx context.Context, userID string, metric domain.Metric) (int64, error) {
	gen, err := readGeneration(ctx, c.rdb, generationKey(userID, metric))
	if err != nil {
		return 0, fmt.Errorf("cache: read generation: %w", err)
	}
	return gen, nil
}

func (c *RedisWeeklyCache) Set(ctx context.Context, key domain.WeeklyCacheKey, gen int64, view *domain.WeeklyView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("cache: encode view: %w", err)
	}

	hk := hashKey(key.UserID, key.Metric)
	gk := generationKey(key.UserID, key.Metric)

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, gk)
		if err != nil {
			return err
		}
		if current != gen {
			return domain.ErrCacheStale
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hk, weekField(key.WeekStart), data)
			pipe.Expire(ctx, hk, c.ttl)
			return nil
		})
		return err
	}, gk)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrCacheStale), errors.Is(err, redis.TxFailedErr):
		return domain.ErrCacheStale
	default:
		return fmt.Errorf("cache: write %s: %w", hk, err)
	}
}

func (c *RedisWeeklyCache) Invalidate(ctx context.Context, userID string, metric domain.Metric) error {
	hk := hashKey(userID, metric)
	gk := generationKey(userID, metric)

	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, gk)
	pipe.Expire(ctx, gk, generationTTL)
	pipe.Del(ctx, hk)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", hk, err)
	}
	return nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd getter, key string) (int64, error) {
	gen, err := cmd.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}
