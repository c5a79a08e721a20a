package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// ListBookmarks returns every bookmark of the user with its tags joined,
// oldest first.
func (s *Store) ListBookmarks(ctx context.Context, userID string) ([]store.BookmarkWithTags, error) {
	ids, err := s.client.SMembers(ctx, BookmarksKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(userID, id)
	}
	rows, err := getJSONMany[store.BookmarkRow](ctx, s.client, keys)
	if err != nil {
		return nil, err
	}

	out, err := s.joinTags(ctx, userID, rows)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetBookmark retrieves one bookmark with its tags.
func (s *Store) GetBookmark(ctx context.Context, userID, id string) (store.BookmarkWithTags, error) {
	var row store.BookmarkRow
	if err := s.getJSON(ctx, BookmarkKey(userID, id), &row); err != nil {
		return store.BookmarkWithTags{}, err
	}
	out, err := s.joinTags(ctx, userID, []store.BookmarkRow{row})
	if err != nil {
		return store.BookmarkWithTags{}, err
	}
	return out[0], nil
}

// joinTags resolves the linked tag names of each row.
func (s *Store) joinTags(ctx context.Context, userID string, rows []store.BookmarkRow) ([]store.BookmarkWithTags, error) {
	out := make([]store.BookmarkWithTags, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	tags, err := s.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringSliceCmd, len(rows))
	for i, r := range rows {
		cmds[i] = pipe.SMembers(ctx, BookmarkTagsKey(userID, r.ID))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to load bookmark tags: %w", err)
	}

	for i, r := range rows {
		tagIDs := cmds[i].Val()
		joined := make([]store.BookmarkTagJoin, 0, len(tagIDs))
		for _, tid := range tagIDs {
			if name, ok := names[tid]; ok {
				joined = append(joined, store.BookmarkTagJoin{Tags: store.TagName{Name: name}})
			}
		}
		sort.Slice(joined, func(a, b int) bool { return joined[a].Tags.Name < joined[b].Tags.Name })
		out[i] = store.BookmarkWithTags{BookmarkRow: r, BookmarksTags: joined}
	}
	return out, nil
}

// InsertBookmark stores a new bookmark. An empty ID gets a fresh one.
func (s *Store) InsertBookmark(ctx context.Context, userID string, row store.BookmarkRow) (store.BookmarkRow, error) {
	rows, err := s.InsertBookmarks(ctx, userID, []store.BookmarkRow{row})
	if err != nil {
		return store.BookmarkRow{}, err
	}
	return rows[0], nil
}

// InsertBookmarks stores several bookmarks in one pipeline.
func (s *Store) InsertBookmarks(ctx context.Context, userID string, rows []store.BookmarkRow) ([]store.BookmarkRow, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	now := s.now()
	pipe := s.client.Pipeline()

	out := make([]store.BookmarkRow, len(rows))
	for i, row := range rows {
		if row.ID == "" {
			row.ID = s.newID()
		}
		row.UserID = userID
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if row.UpdatedAt.IsZero() {
			row.UpdatedAt = row.CreatedAt
		}

		data, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal bookmark %s: %w", row.ID, err)
		}
		pipe.Set(ctx, BookmarkKey(userID, row.ID), data, 0)
		pipe.SAdd(ctx, BookmarksKey(userID), row.ID)
		out[i] = row
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to save bookmarks: %w", err)
	}
	return out, nil
}

// UpdateBookmark overwrites an existing bookmark's editable fields.
func (s *Store) UpdateBookmark(ctx context.Context, userID string, row store.BookmarkRow) (store.BookmarkRow, error) {
	return mutateJSON(ctx, s.client, BookmarkKey(userID, row.ID), func(cur *store.BookmarkRow) error {
		row.UserID = userID
		row.CreatedAt = cur.CreatedAt
		*cur = row
		return nil
	})
}

// UpdateRank persists one custom order rank.
func (s *Store) UpdateRank(ctx context.Context, userID, id string, rank int) error {
	_, err := mutateJSON(ctx, s.client, BookmarkKey(userID, id), func(cur *store.BookmarkRow) error {
		cur.CustomOrder = &rank
		return nil
	})
	return err
}

// SetPinned sets the pinned flag and returns the updated row.
func (s *Store) SetPinned(ctx context.Context, userID, id string, pinned bool) (store.BookmarkRow, error) {
	return mutateJSON(ctx, s.client, BookmarkKey(userID, id), func(cur *store.BookmarkRow) error {
		cur.IsPinned = pinned
		cur.UpdatedAt = s.now()
		return nil
	})
}

// IncrementAccess bumps the access count and records the access time.
func (s *Store) IncrementAccess(ctx context.Context, userID, id string, at time.Time) (store.BookmarkRow, error) {
	return mutateJSON(ctx, s.client, BookmarkKey(userID, id), func(cur *store.BookmarkRow) error {
		cur.AccessCount++
		cur.LastAccessedAt = &at
		return nil
	})
}

// DeleteBookmark removes a bookmark and its tag links.
func (s *Store) DeleteBookmark(ctx context.Context, userID, id string) error {
	n, err := s.client.Exists(ctx, BookmarkKey(userID, id)).Result()
	if err != nil {
		return fmt.Errorf("failed to check bookmark: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}

	tagIDs, err := s.client.SMembers(ctx, BookmarkTagsKey(userID, id)).Result()
	if err != nil {
		return fmt.Errorf("failed to get bookmark tags: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, tid := range tagIDs {
			pipe.SRem(ctx, TagBookmarksKey(userID, tid), id)
		}
		pipe.Del(ctx, BookmarkKey(userID, id), BookmarkTagsKey(userID, id))
		pipe.SRem(ctx, BookmarksKey(userID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

// DeleteAllBookmarks removes every bookmark of the user. Returns how many were removed.
func (s *Store) DeleteAllBookmarks(ctx context.Context, userID string) (int, error) {
	ids, err := s.client.SMembers(ctx, BookmarksKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}
	deleted := 0
	for _, id := range ids {
		if err := s.DeleteBookmark(ctx, userID, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// MaxCustomOrder returns the highest stored rank. ok is false when no bookmark has one.
func (s *Store) MaxCustomOrder(ctx context.Context, userID string) (maxRank int, ok bool, err error) {
	rows, err := s.ListBookmarks(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	for _, r := range rows {
		if r.CustomOrder == nil {
			continue
		}
		if !ok || *r.CustomOrder > maxRank {
			maxRank = *r.CustomOrder
			ok = true
		}
	}
	return maxRank, ok, nil
}

// BookmarkURLs returns every stored url of the user.
func (s *Store) BookmarkURLs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(rows))
	for i, r := range rows {
		urls[i] = r.URL
	}
	return urls, nil
}
