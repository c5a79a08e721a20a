package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// maxTxRetries bounds optimistic-lock retries on WATCHed keys.
const maxTxRetries = 5

// Store is the Redis-backed record store. Every record is scoped to a user id.
type Store struct {
	client *redis.Client
	now    func() time.Time
	newID  func() string
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// getJSON loads key into v, mapping a missing key to store.ErrNotFound.
func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// getJSONMany loads keys in one pipeline. Missing keys are skipped.
func getJSONMany[T any](ctx context.Context, client *redis.Client, keys []string) ([]T, error) {
	if len(keys) == 0 {
		return []T{}, nil
	}

	pipe := client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Get(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	out := make([]T, 0, len(keys))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			// Skip records that vanished between SMEMBERS and GET
			continue
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
		}
		out = append(out, v)
	}
	return out, nil
}

// mutateJSON runs a WATCHed read-modify-write on a JSON record.
func mutateJSON[T any](ctx context.Context, client *redis.Client, key string, fn func(*T) error) (T, error) {
	var result T
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return store.ErrNotFound
			}
			return err
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", key, err)
		}
		if err := fn(&v); err != nil {
			return err
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err == nil {
			result = v
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
	return result, fmt.Errorf("failed to update %s: too much contention", key)
}
