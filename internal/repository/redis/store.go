// Package redis stores the persisted id collections in Redis, one JSON
// value per collection key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	keyPrefix   = "estates:ids:"
)

// Config is the connection configuration
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects and pings the server
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(dialCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis (ping failed): %w", err)
	}
	return client, nil
}

// Store implements idset storage on a Redis client
type Store struct {
	client *redis.Client
}

// NewStore wraps client
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

// Load returns the ids stored under key, empty when the key is unknown
func (s *Store) Load(ctx context.Context, key string) ([]string, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s from redis: %w", key, err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(val), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return ids, nil
}

// Save replaces the ids stored under key. Values never expire.
func (s *Store) Save(ctx context.Context, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("save %s to redis: %w", key, err)
	}
	return nil
}
