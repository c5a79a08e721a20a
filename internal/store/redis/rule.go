package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// ListRules returns the user's tag rules, oldest first.
func (s *Store) ListRules(ctx context.Context, userID string) ([]store.TagRuleRow, error) {
	ids, err := s.client.SMembers(ctx, RulesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rule IDs: %w", err)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = RuleKey(userID, id)
	}
	rules, err := getJSONMany[store.TagRuleRow](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.Before(rules[j].CreatedAt)
		}
		return rules[i].ID < rules[j].ID
	})
	return rules, nil
}

func (s *Store) GetRule(ctx context.Context, userID, id string) (store.TagRuleRow, error) {
	var r store.TagRuleRow
	err := s.getJSON(ctx, RuleKey(userID, id), &r)
	return r, err
}

// InsertRule stores a new rule with a fresh id.
func (s *Store) InsertRule(ctx context.Context, userID string, r store.TagRuleRow) (store.TagRuleRow, error) {
	now := s.now()
	r.ID = s.newID()
	r.UserID = userID
	r.CreatedAt = now
	r.UpdatedAt = now

	data, err := json.Marshal(r)
	if err != nil {
		return store.TagRuleRow{}, fmt.Errorf("failed to marshal rule: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, RuleKey(userID, r.ID), data, 0)
		pipe.SAdd(ctx, RulesKey(userID), r.ID)
		return nil
	})
	if err != nil {
		return store.TagRuleRow{}, fmt.Errorf("failed to save rule: %w", err)
	}
	return r, nil
}

func (s *Store) DeleteRule(ctx context.Context, userID, id string) error {
	removed, err := s.client.SRem(ctx, RulesKey(userID), id).Result()
	if err != nil {
		return fmt.Errorf("failed to remove rule from set: %w", err)
	}
	if err := s.client.Del(ctx, RuleKey(userID, id)).Err(); err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if removed == 0 {
		return store.ErrNotFound
	}
	return nil
}
