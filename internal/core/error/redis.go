package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps a failed Redis command to ErrNotFound (redis.Nil) or ErrRedis.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return New(err, ErrNotFound, http.StatusNotFound, RedisNotFoundMessage)
	}

	return New(err, ErrRedis, http.StatusBadGateway, RedisErrorMessage)
}

// WrapRedisRead is WrapRedis for list reads, where a missing key is an empty
// result rather than an error: redis.Nil yields nil.
func WrapRedisRead(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return WrapRedis(err)
}
