package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisSessionRepository keeps each session in one hash whose TTL is
// refreshed on every write
type RedisSessionRepository struct {
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient dials and pings the server
func NewRedisClient(ctx context.Context, opts RedisOptions) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisSessionRepository(rdb *goredis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl, prefix: "edufinanzas:session:"}
}

func (r *RedisSessionRepository) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisSessionRepository) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	v, err := r.rdb.HGet(ctx, r.key(sessionID), key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisSessionRepository) Set(ctx context.Context, sessionID, key, value string) error {
	k := r.key(sessionID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, k, key, value)
	pipe.Expire(ctx, k, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

// SetIfAbsent uses HSETNX and refreshes the hash TTL when it wrote
func (r *RedisSessionRepository) SetIfAbsent(ctx context.Context, sessionID, key, value string) (bool, error) {
	k := r.key(sessionID)
	ok, err := r.rdb.HSetNX(ctx, k, key, value).Result()
	if err != nil {
		return false, fmt.Errorf("redis hsetnx %s: %w", key, err)
	}
	if ok {
		if err := r.rdb.Expire(ctx, k, r.ttl).Err(); err != nil {
			return true, fmt.Errorf("redis expire: %w", err)
		}
	}
	return ok, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.rdb.HDel(ctx, r.key(sessionID), keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

// Purge is a no-op; redis expires hashes itself
func (r *RedisSessionRepository) Purge(context.Context) (int64, error) {
	return 0, nil
}

// Stats walks the session hashes with SCAN
func (r *RedisSessionRepository) Stats(ctx context.Context) (SessionStats, error) {
	var s SessionStats
	iter := r.rdb.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := r.rdb.HLen(ctx, iter.Val()).Result()
		if err != nil {
			return SessionStats{}, fmt.Errorf("redis hlen: %w", err)
		}
		s.Sessions++
		s.Values += n
	}
	if err := iter.Err(); err != nil {
		return SessionStats{}, fmt.Errorf("redis scan: %w", err)
	}
	return s, nil
}

// Clear deletes every session hash and reports how many went away
func (r *RedisSessionRepository) Clear(ctx context.Context) (int64, error) {
	var n int64
	iter := r.rdb.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		deleted, err := r.rdb.Del(ctx, iter.Val()).Result()
		if err != nil {
			return n, fmt.Errorf("redis del: %w", err)
		}
		n += deleted
	}
	if err := iter.Err(); err != nil {
		return n, fmt.Errorf("redis scan: %w", err)
	}
	return n, nil
}
