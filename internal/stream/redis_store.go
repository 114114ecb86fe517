package stream

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore buffers streams in Redis so any replica can resume them. Each
// stream uses three keys that share the store TTL: a meta key holding the
// creation time, a list of frames and a done marker.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "stream"}
}

// NewRedisStoreFromURL connects to url and verifies the connection.
func NewRedisStoreFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not reach redis: %w", err)
	}
	return NewRedisStore(rdb, ttl), nil
}

func (s *RedisStore) metaKey(id string) string   { return fmt.Sprintf("%s:%s:meta", s.prefix, id) }
func (s *RedisStore) framesKey(id string) string { return fmt.Sprintf("%s:%s:frames", s.prefix, id) }
func (s *RedisStore) doneKey(id string) string   { return fmt.Sprintf("%s:%s:done", s.prefix, id) }

func (s *RedisStore) Create(ctx context.Context, id string) (bool, error) {
	created, err := s.rdb.SetNX(ctx, s.metaKey(id), strconv.FormatInt(time.Now().UnixMilli(), 10), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("could not create stream %s: %w", id, err)
	}
	return created, nil
}

func (s *RedisStore) Append(ctx context.Context, id string, frame []byte) error {
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, s.framesKey(id), frame)
	pipe.Expire(ctx, s.framesKey(id), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("could not append to stream %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Finish(ctx context.Context, id string) error {
	if err := s.rdb.Set(ctx, s.doneKey(id), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("could not finish stream %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Range(ctx context.Context, id string, from int) (Snapshot, error) {
	if from < 0 {
		from = 0
	}
	pipe := s.rdb.Pipeline()
	exists := pipe.Exists(ctx, s.metaKey(id))
	frames := pipe.LRange(ctx, s.framesKey(id), int64(from), -1)
	done := pipe.Get(ctx, s.doneKey(id))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("could not read stream %s: %w", id, err)
	}

	if exists.Val() == 0 {
		return Snapshot{}, ErrStreamNotFound
	}

	raw := frames.Val()
	snap := Snapshot{Frames: make([][]byte, len(raw)), Done: done.Val() == "1"}
	for i, f := range raw {
		snap.Frames[i] = []byte(f)
	}
	return snap, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
