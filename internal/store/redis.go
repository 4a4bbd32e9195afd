package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dinemenu/internal/menu"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the latest result under key with a TTL, and the last
// history results in the list key+":history", newest first.
type RedisStore struct {
	client  *redis.Client
	key     string
	ttl     time.Duration
	history int64
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
	History  int
}

func NewRedisStore(opts RedisOptions) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return newRedisStore(rdb, opts)
}

func newRedisStore(client *redis.Client, opts RedisOptions) *RedisStore {
	return &RedisStore{
		client:  client,
		key:     opts.Key,
		ttl:     opts.TTL,
		history: int64(opts.History),
	}
}

func (s *RedisStore) historyKey() string { return s.key + ":history" }

func (s *RedisStore) Save(ctx context.Context, entries []menu.Entry) error {
	if entries == nil {
		entries = []menu.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	payload := string(data)

	if err := s.client.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store result in redis: %w", err)
	}
	if s.history <= 0 {
		return nil
	}
	if err := s.client.LPush(ctx, s.historyKey(), payload).Err(); err != nil {
		return fmt.Errorf("failed to append result history: %w", err)
	}
	if err := s.client.LTrim(ctx, s.historyKey(), 0, s.history-1).Err(); err != nil {
		return fmt.Errorf("failed to trim result history: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) ([]menu.Entry, error) {
	raw, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: redis key %s", ErrNotFound, s.key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result from redis: %w", err)
	}
	var entries []menu.Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode redis result: %w", err)
	}
	return entries, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
