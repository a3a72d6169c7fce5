package labstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps lab state under lab_state_<token> with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, token string) (State, error) {
	data, err := r.client.Get(ctx, Key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Default(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load lab state: %w", err)
	}
	return Decode(data)
}

func (r *RedisStore) Save(ctx context.Context, token string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, Key(token), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save lab state: %w", err)
	}
	return nil
}
