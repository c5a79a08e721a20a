package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// ListTags returns the user's tags sorted by name.
func (s *Store) ListTags(ctx context.Context, userID string) ([]store.TagRow, error) {
	ids, err := s.client.SMembers(ctx, TagsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get tag IDs: %w", err)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = TagKey(userID, id)
	}
	tags, err := getJSONMany[store.TagRow](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
	})
	return tags, nil
}

func (s *Store) GetTag(ctx context.Context, userID, id string) (store.TagRow, error) {
	var t store.TagRow
	err := s.getJSON(ctx, TagKey(userID, id), &t)
	return t, err
}

// FindTagsByNames looks names up case-insensitively. The result is keyed by
// the lower-cased name; unknown names are absent.
func (s *Store) FindTagsByNames(ctx context.Context, userID string, names []string) (map[string]store.TagRow, error) {
	out := make(map[string]store.TagRow, len(names))
	if len(names) == 0 {
		return out, nil
	}

	fields := make([]string, len(names))
	for i, n := range names {
		fields[i] = normalizeName(n)
	}
	ids, err := s.client.HMGet(ctx, TagNamesKey(userID), fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to look up tag names: %w", err)
	}

	for i, raw := range ids {
		id, ok := raw.(string)
		if !ok || id == "" {
			continue
		}
		t, err := s.GetTag(ctx, userID, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[fields[i]] = t
	}
	return out, nil
}

// InsertTag creates a tag. A name already used (ignoring case) yields store.ErrConflict.
func (s *Store) InsertTag(ctx context.Context, userID, name string) (store.TagRow, error) {
	name = strings.TrimSpace(name)
	now := s.now()
	t := store.TagRow{ID: s.newID(), UserID: userID, Name: name, CreatedAt: now, UpdatedAt: now}

	claimed, err := s.client.HSetNX(ctx, TagNamesKey(userID), normalizeName(name), t.ID).Result()
	if err != nil {
		return store.TagRow{}, fmt.Errorf("failed to reserve tag name: %w", err)
	}
	if !claimed {
		return store.TagRow{}, store.ErrConflict
	}

	data, err := json.Marshal(t)
	if err != nil {
		return store.TagRow{}, fmt.Errorf("failed to marshal tag: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, TagKey(userID, t.ID), data, 0)
		pipe.SAdd(ctx, TagsKey(userID), t.ID)
		return nil
	})
	if err != nil {
		return store.TagRow{}, fmt.Errorf("failed to save tag: %w", err)
	}
	return t, nil
}

// EnsureTags returns a tag for every name, creating the missing ones.
// Blank names and case-insensitive repeats are dropped.
func (s *Store) EnsureTags(ctx context.Context, userID string, names []string) ([]store.TagRow, error) {
	existing, err := s.FindTagsByNames(ctx, userID, names)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(names))
	out := make([]store.TagRow, 0, len(names))
	for _, name := range names {
		key := normalizeName(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		if t, ok := existing[key]; ok {
			out = append(out, t)
			continue
		}
		t, err := s.InsertTag(ctx, userID, name)
		if errors.Is(err, store.ErrConflict) {
			// Created concurrently, read it back.
			found, ferr := s.FindTagsByNames(ctx, userID, []string{name})
			if ferr != nil {
				return nil, ferr
			}
			t = found[key]
			err = nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// RenameTag changes a tag's name. Links are by id so bookmarks follow the rename.
func (s *Store) RenameTag(ctx context.Context, userID, id, newName string) (store.TagRow, error) {
	newName = strings.TrimSpace(newName)
	cur, err := s.GetTag(ctx, userID, id)
	if err != nil {
		return store.TagRow{}, err
	}

	oldKey, newKey := normalizeName(cur.Name), normalizeName(newName)
	if oldKey != newKey {
		claimed, err := s.client.HSetNX(ctx, TagNamesKey(userID), newKey, id).Result()
		if err != nil {
			return store.TagRow{}, fmt.Errorf("failed to reserve tag name: %w", err)
		}
		if !claimed {
			return store.TagRow{}, store.ErrConflict
		}
		if err := s.client.HDel(ctx, TagNamesKey(userID), oldKey).Err(); err != nil {
			return store.TagRow{}, fmt.Errorf("failed to release old tag name: %w", err)
		}
	}

	return mutateJSON(ctx, s.client, TagKey(userID, id), func(t *store.TagRow) error {
		t.Name = newName
		t.UpdatedAt = s.now()
		return nil
	})
}

// DeleteTag removes a tag, its bookmark links and every rule targeting it.
func (s *Store) DeleteTag(ctx context.Context, userID, id string) error {
	t, err := s.GetTag(ctx, userID, id)
	if err != nil {
		return err
	}

	bookmarkIDs, err := s.client.SMembers(ctx, TagBookmarksKey(userID, id)).Result()
	if err != nil {
		return fmt.Errorf("failed to get tag links: %w", err)
	}
	rules, err := s.ListRules(ctx, userID)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, bid := range bookmarkIDs {
			pipe.SRem(ctx, BookmarkTagsKey(userID, bid), id)
		}
		for _, r := range rules {
			if r.TagID == id {
				pipe.Del(ctx, RuleKey(userID, r.ID))
				pipe.SRem(ctx, RulesKey(userID), r.ID)
			}
		}
		pipe.Del(ctx, TagKey(userID, id), TagBookmarksKey(userID, id))
		pipe.SRem(ctx, TagsKey(userID), id)
		pipe.HDel(ctx, TagNamesKey(userID), normalizeName(t.Name))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return nil
}

// ReplaceBookmarkTags makes tagIDs the exact tag set of a bookmark.
func (s *Store) ReplaceBookmarkTags(ctx context.Context, userID, bookmarkID string, tagIDs []string) error {
	old, err := s.client.SMembers(ctx, BookmarkTagsKey(userID, bookmarkID)).Result()
	if err != nil {
		return fmt.Errorf("failed to get bookmark tags: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, tid := range old {
			pipe.SRem(ctx, TagBookmarksKey(userID, tid), bookmarkID)
		}
		pipe.Del(ctx, BookmarkTagsKey(userID, bookmarkID))
		for _, tid := range tagIDs {
			pipe.SAdd(ctx, BookmarkTagsKey(userID, bookmarkID), tid)
			pipe.SAdd(ctx, TagBookmarksKey(userID, tid), bookmarkID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace bookmark tags: %w", err)
	}
	return nil
}

// LinkTag attaches a tag to bookmarks. Existing links are left as they are.
func (s *Store) LinkTag(ctx context.Context, userID, tagID string, bookmarkIDs []string) error {
	if len(bookmarkIDs) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, bid := range bookmarkIDs {
			pipe.SAdd(ctx, BookmarkTagsKey(userID, bid), tagID)
			pipe.SAdd(ctx, TagBookmarksKey(userID, tagID), bid)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to link tag: %w", err)
	}
	return nil
}

// UnlinkTag detaches a tag from bookmarks.
func (s *Store) UnlinkTag(ctx context.Context, userID, tagID string, bookmarkIDs []string) error {
	if len(bookmarkIDs) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, bid := range bookmarkIDs {
			pipe.SRem(ctx, BookmarkTagsKey(userID, bid), tagID)
			pipe.SRem(ctx, TagBookmarksKey(userID, tagID), bid)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to unlink tag: %w", err)
	}
	return nil
}

// DeleteAllTags removes every tag (and with them, every rule).
func (s *Store) DeleteAllTags(ctx context.Context, userID string) error {
	tags, err := s.ListTags(ctx, userID)
	if err != nil {
		return err
	}
	for _, t := range tags {
		if err := s.DeleteTag(ctx, userID, t.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}
