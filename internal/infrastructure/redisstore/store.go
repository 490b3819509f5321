// Package redisstore implements the payment state store on Redis. The three
// logical collections live in one database under key prefixes so a
// multi-collection transaction fits a single MULTI/EXEC.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/infobot/infobot/internal/domain/payment"
)

// Store is a Redis-backed payment.Store.
type Store struct {
	rdb *redis.Client
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func storeKey(c payment.Collection, key string) string {
	return string(c) + ":" + key
}

func (s *Store) Get(ctx context.Context, c payment.Collection, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, storeKey(c, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, c payment.Collection, key string, value []byte) error {
	return s.rdb.Set(ctx, storeKey(c, key), value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, c payment.Collection, key string) error {
	return s.rdb.Del(ctx, storeKey(c, key)).Err()
}

// Transact applies all ops inside one MULTI/EXEC pipeline. Redis queues the
// commands and executes them as a unit, so concurrent readers never observe
// one collection updated without the other.
func (s *Store) Transact(ctx context.Context, ops []payment.Op) (bool, error) {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			if op.Delete {
				pipe.Del(ctx, storeKey(op.Collection, op.Key))
				continue
			}
			pipe.Set(ctx, storeKey(op.Collection, op.Key), op.Value, 0)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
