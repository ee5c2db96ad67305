package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

const redisKeyPrefix = "rice:eval:history:"

// RedisStore keeps entries in one sorted set per analyzer, scored by
// timestamp in milliseconds.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	maxEntries int
}

// NewRedisStore connects to url. Returns an error if the connection fails.
func NewRedisStore(url string, maxEntries int) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, "parsing redis URL", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.CodeUnavailable, "connecting to redis", err)
	}

	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	return &RedisStore{
		client:     client,
		prefix:     redisKeyPrefix,
		maxEntries: maxEntries,
	}, nil
}

func (rs *RedisStore) key(analyzer string) string {
	return rs.prefix + analyzer
}

// Save implements Store. Older entries beyond the limit are trimmed in the
// same pipeline.
func (rs *RedisStore) Save(ctx context.Context, e Entry) error {
	member, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, "encoding history entry", err)
	}

	key := rs.key(e.Analyzer)
	pipe := rs.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(e.Timestamp.UnixMilli()),
		Member: string(member),
	})
	// Keep only the newest maxEntries members
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-rs.maxEntries-1))

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "saving history entry", err)
	}
	return nil
}

// List implements Store.
func (rs *RedisStore) List(ctx context.Context, analyzer string, limit int) ([]Entry, error) {
	keys := []string{rs.key(analyzer)}
	if analyzer == "" {
		var err error
		keys, err = rs.client.Keys(ctx, rs.prefix+"*").Result()
		if err != nil {
			return nil, errors.Wrap(errors.CodeUnavailable, "listing history keys", err)
		}
	}

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	var out []Entry
	for _, key := range keys {
		members, err := rs.client.ZRevRange(ctx, key, 0, stop).Result()
		if err != nil {
			return nil, errors.Wrap(errors.CodeUnavailable, "loading history", err)
		}
		for _, m := range members {
			var e Entry
			if err := json.Unmarshal([]byte(m), &e); err != nil {
				// Skip invalid entries
				continue
			}
			out = append(out, e)
		}
	}

	return newestFirst(out, limit), nil
}

// Delete removes the history of analyzer.
func (rs *RedisStore) Delete(ctx context.Context, analyzer string) error {
	if err := rs.client.Del(ctx, rs.key(analyzer)).Err(); err != nil {
		return fmt.Errorf("deleting history: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
