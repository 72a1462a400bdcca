package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/invoice-ai-manager/server/internal/agent/model"
	errx "github.com/invoice-ai-manager/server/internal/core/error"
	logx "github.com/invoice-ai-manager/server/pkg/logger"
)

const activityKey = "agent:activity"

// RedisActivityRepository keeps the activity feed in one Redis list, newest at
// index 0, trimmed to maxEntries.
type RedisActivityRepository struct {
	rdb        redis.Cmdable
	maxEntries int
	ttl        time.Duration
}

func NewRedisActivityRepository(rdb redis.Cmdable, maxEntries int, ttl time.Duration) *RedisActivityRepository {
	return &RedisActivityRepository{rdb: rdb, maxEntries: maxEntries, ttl: ttl}
}

func (r *RedisActivityRepository) Append(ctx context.Context, entry model.ActivityLog) error {
	b, err := json.Marshal(entry)
	if err != nil {
		logx.Error().Err(err).Str("activityID", entry.ID).Msg("failed to marshal activity")
		return fmt.Errorf("marshal activity: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.LPush(ctx, activityKey, b)
	if r.maxEntries > 0 {
		pipe.LTrim(ctx, activityKey, 0, int64(r.maxEntries-1))
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, activityKey, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", activityKey).Msg("failed to append activity to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisActivityRepository) Recent(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	rows, err := r.rdb.LRange(ctx, activityKey, 0, stop).Result()
	if err := errx.WrapRedisRead(err); err != nil {
		logx.Error().Err(err).Str("key", activityKey).Msg("failed to load activity from redis")
		return nil, err
	}

	out := make([]model.ActivityLog, 0, len(rows))
	for i, s := range rows {
		var entry model.ActivityLog
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			logx.Error().Err(err).Int("index", i).Msg("failed to unmarshal activity")
			return nil, fmt.Errorf("unmarshal activity at index %d: %w", i, err)
		}
		out = append(out, entry)
	}
	return out, nil
}

var _ model.ActivityRepository = (*RedisActivityRepository)(nil)
