package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps the session pair under two keys in one namespace so that
// several dashboard processes share a single operator session.
type RedisStore struct {
	client    *redis.Client
	namespace string
	logger    *zap.Logger
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, namespace string, logger *zap.Logger) *RedisStore {
	if namespace == "" {
		namespace = "dashboard:session"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, namespace: namespace, logger: logger}
}

func (r *RedisStore) tokenKey() string { return r.namespace + ":token" }
func (r *RedisStore) userKey() string { return r.namespace + ":user" }

func (r *RedisStore) Load(ctx context.Context) *Session {
	vals, err := r.client.MGet(ctx, r.tokenKey(), r.userKey()).Result()
	if err != nil {
		r.logger.Warn("session load failed", zap.Error(err))
		return nil
	}
	token, _ := vals[0].(string)
	user, _ := vals[1].(string)
	return decode(token, []byte(user))
}

func (r *RedisStore) Save(ctx context.Context, s Session) error {
	user, err := encode(s)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.userKey(), user, 0)
		pipe.Set(ctx, r.tokenKey(), s.Token, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey(), r.userKey()).Err(); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}
