package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// CreateUser stores a user. An email already registered yields store.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (store.UserRow, error) {
	u := store.UserRow{
		ID:           s.newID(),
		Email:        normalizeName(email),
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}

	claimed, err := s.client.HSetNX(ctx, KeyUserEmails, u.Email, u.ID).Result()
	if err != nil {
		return store.UserRow{}, fmt.Errorf("failed to reserve email: %w", err)
	}
	if !claimed {
		return store.UserRow{}, store.ErrConflict
	}

	data, err := json.Marshal(u)
	if err != nil {
		return store.UserRow{}, fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.client.Set(ctx, UserKey(u.ID), data, 0).Err(); err != nil {
		return store.UserRow{}, fmt.Errorf("failed to save user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (store.UserRow, error) {
	var u store.UserRow
	err := s.getJSON(ctx, UserKey(id), &u)
	return u, err
}

// FindUserByEmail looks a user up case-insensitively.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (store.UserRow, error) {
	id, err := s.client.HGet(ctx, KeyUserEmails, normalizeName(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.UserRow{}, store.ErrNotFound
		}
		return store.UserRow{}, fmt.Errorf("failed to look up email: %w", err)
	}
	return s.GetUser(ctx, id)
}

// SaveSession stores a session that expires on its own after ttl.
func (s *Store) SaveSession(ctx context.Context, sess store.SessionRow, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SessionKey(sess.Token), data, ttl)
		pipe.SAdd(ctx, UserSessionsKey(sess.UserID), sess.Token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession returns store.ErrNotFound for unknown or expired tokens.
func (s *Store) GetSession(ctx context.Context, token string) (store.SessionRow, error) {
	var sess store.SessionRow
	err := s.getJSON(ctx, SessionKey(token), &sess)
	return sess, err
}

func (s *Store) DeleteSession(ctx context.Context, sess store.SessionRow) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, SessionKey(sess.Token))
		pipe.SRem(ctx, UserSessionsKey(sess.UserID), sess.Token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PruneSessions drops tokens whose session key already expired from the
// per-user session indexes. Returns the number of tokens removed.
func (s *Store) PruneSessions(ctx context.Context) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixSessions+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if _, err := ExtractSessionsUserID(key); err != nil {
			continue
		}

		tokens, err := s.client.SMembers(ctx, key).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to read session index: %w", err)
		}
		for _, tok := range tokens {
			n, err := s.client.Exists(ctx, SessionKey(tok)).Result()
			if err != nil {
				return removed, fmt.Errorf("failed to check session: %w", err)
			}
			if n > 0 {
				continue
			}
			if err := s.client.SRem(ctx, key, tok).Err(); err != nil {
				return removed, fmt.Errorf("failed to prune session: %w", err)
			}
			removed++
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return removed, nil
}
