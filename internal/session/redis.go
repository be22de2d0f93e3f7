package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tlweb:session:"

// RedisStorage stores sealed session records in Redis with a TTL.
type RedisStorage struct {
	RDB *redis.Client
}

func NewRedis(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func NewRedisStorage(rdb *redis.Client) *RedisStorage {
	return &RedisStorage{RDB: rdb}
}

func (s *RedisStorage) Get(ctx context.Context, sid string) ([]byte, error) {
	data, err := s.RDB.Get(ctx, redisKeyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStorage) Set(ctx context.Context, sid string, data []byte, ttl time.Duration) error {
	return s.RDB.Set(ctx, redisKeyPrefix+sid, data, ttl).Err()
}

func (s *RedisStorage) Delete(ctx context.Context, sid string) error {
	return s.RDB.Del(ctx, redisKeyPrefix+sid).Err()
}
