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

const followUpKey = "agent:followups"

// RedisFollowUpRepository keeps sent reminders in one Redis list, newest first,
// trimmed to maxEntries.
type RedisFollowUpRepository struct {
	rdb        redis.Cmdable
	maxEntries int
	ttl        time.Duration
}

func NewRedisFollowUpRepository(rdb redis.Cmdable, maxEntries int, ttl time.Duration) *RedisFollowUpRepository {
	return &RedisFollowUpRepository{rdb: rdb, maxEntries: maxEntries, ttl: ttl}
}

func (r *RedisFollowUpRepository) Record(ctx context.Context, f model.FollowUp) error {
	b, err := json.Marshal(f)
	if err != nil {
		logx.Error().Err(err).Str("invoice", f.InvoiceNumber).Msg("failed to marshal follow-up")
		return fmt.Errorf("marshal follow-up: %w", err)
	}

	if err := r.rdb.LPush(ctx, followUpKey, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", followUpKey).Msg("failed to push follow-up to redis")
		return errx.WrapRedis(err)
	}
	if r.maxEntries > 0 {
		if err := r.rdb.LTrim(ctx, followUpKey, 0, int64(r.maxEntries-1)).Err(); err != nil {
			logx.Error().Err(err).Str("key", followUpKey).Msg("failed to trim follow-ups")
			return errx.WrapRedis(err)
		}
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, followUpKey, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", followUpKey).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", followUpKey).Dur("ttl", r.ttl).Msg("failed to set TTL on follow-up key")
		}
	}
	return nil
}

func (r *RedisFollowUpRepository) List(ctx context.Context) ([]model.FollowUp, error) {
	rows, err := r.rdb.LRange(ctx, followUpKey, 0, -1).Result()
	if err := errx.WrapRedisRead(err); err != nil {
		logx.Error().Err(err).Str("key", followUpKey).Msg("failed to load follow-ups from redis")
		return nil, err
	}

	out := make([]model.FollowUp, 0, len(rows))
	for i, s := range rows {
		var f model.FollowUp
		if err := json.Unmarshal([]byte(s), &f); err != nil {
			logx.Error().Err(err).Int("index", i).Msg("failed to unmarshal follow-up")
			return nil, fmt.Errorf("unmarshal follow-up at index %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

var _ model.FollowUpRepository = (*RedisFollowUpRepository)(nil)
