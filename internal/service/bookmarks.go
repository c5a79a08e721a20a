package service

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/mapper"
	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// BookmarkInput is what a client sends to create (empty ID) or edit a bookmark.
type BookmarkInput struct {
	ID      string
	Title   string
	URL     string
	Tags    []string
	Favicon string
	Pinned  bool
}

// ListBookmarks returns every bookmark of the user.
func (s *Service) ListBookmarks(ctx context.Context, sess auth.Session) ([]domain.Bookmark, error) {
	rows, err := s.repo.ListBookmarks(ctx, sess.UserID)
	if err != nil {
		s.logger.Error("failed to list bookmarks", logger.String("user_id", sess.UserID), logger.Error(err))
		return nil, err
	}
	return mapper.ToUIList(rows), nil
}

// ResolveQuery builds a list query. Empty sort fields fall back to the
// user's display settings.
func (s *Service) ResolveQuery(ctx context.Context, sess auth.Session, search string, tags []string, sortKey, sortOrder string) (domain.Query, error) {
	q := domain.Query{Filter: domain.Filter{Search: search, Tags: tags}}

	if sortKey == "" || sortOrder == "" {
		settings := s.GetSettings(ctx, sess)
		q.SortKey, q.SortOrder = settings.SortKey, settings.SortOrder
	}
	if sortKey != "" {
		k, err := domain.ParseSortKey(sortKey)
		if err != nil {
			return domain.Query{}, invalid("%v", err)
		}
		q.SortKey = k
	}
	if sortOrder != "" {
		o, err := domain.ParseSortOrder(sortOrder)
		if err != nil {
			return domain.Query{}, invalid("%v", err)
		}
		q.SortOrder = o
	}
	return q, nil
}

// Present returns the user's presented list. While an ordering session is
// open its working order is shown instead of the stored one. Mutations
// refresh that working order, see refreshOrdering.
func (s *Service) Present(ctx context.Context, sess auth.Session, q domain.Query) (domain.Presentation, error) {
	if o, ok := s.workspace.Current(sess.UserID); ok {
		return o.Presentation(), nil
	}
	list, err := s.ListBookmarks(ctx, sess)
	if err != nil {
		return domain.Presentation{}, err
	}
	return domain.Present(list, q), nil
}

func (s *Service) GetBookmark(ctx context.Context, sess auth.Session, id string) (domain.Bookmark, error) {
	row, err := s.repo.GetBookmark(ctx, sess.UserID, id)
	if err != nil {
		return domain.Bookmark{}, translate(err)
	}
	return mapper.ToUI(row), nil
}

// SaveBookmark creates or edits a bookmark. Tags produced by the user's
// rules are merged into the submitted ones, missing tags are created.
// A new bookmark is ranked after every existing one; an edit keeps the
// rank, access statistics and creation time.
func (s *Service) SaveBookmark(ctx context.Context, sess auth.Session, in BookmarkInput) (domain.Bookmark, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	if in.Title == "" || in.URL == "" {
		return domain.Bookmark{}, invalid("title and url are required")
	}

	names, err := s.tagsForSave(ctx, sess.UserID, in)
	if err != nil {
		return domain.Bookmark{}, err
	}

	var favicon *string
	if in.Favicon != "" {
		favicon = &in.Favicon
	}

	var id string
	if in.ID == "" {
		next := 1
		maxRank, ok, err := s.repo.MaxCustomOrder(ctx, sess.UserID)
		if err != nil {
			return domain.Bookmark{}, err
		}
		if ok {
			next = maxRank + 1
		}
		row, err := s.repo.InsertBookmark(ctx, sess.UserID, store.BookmarkRow{
			Title:       in.Title,
			URL:         in.URL,
			IsPinned:    in.Pinned,
			Favicon:     favicon,
			CustomOrder: &next,
		})
		if err != nil {
			s.logger.Error("failed to insert bookmark", logger.String("user_id", sess.UserID), logger.Error(err))
			return domain.Bookmark{}, err
		}
		id = row.ID
	} else {
		cur, err := s.repo.GetBookmark(ctx, sess.UserID, in.ID)
		if err != nil {
			return domain.Bookmark{}, translate(err)
		}
		row := cur.BookmarkRow
		row.Title = in.Title
		row.URL = in.URL
		row.IsPinned = in.Pinned
		row.Favicon = favicon
		row.UpdatedAt = s.now()
		if _, err := s.repo.UpdateBookmark(ctx, sess.UserID, row); err != nil {
			s.logger.Error("failed to update bookmark", logger.String("bookmark_id", in.ID), logger.Error(err))
			return domain.Bookmark{}, translate(err)
		}
		id = in.ID
	}

	tags, err := s.repo.EnsureTags(ctx, sess.UserID, names)
	if err != nil {
		return domain.Bookmark{}, err
	}
	tagIDs := make([]string, len(tags))
	for i, t := range tags {
		tagIDs[i] = t.ID
	}
	if err := s.repo.ReplaceBookmarkTags(ctx, sess.UserID, id, tagIDs); err != nil {
		return domain.Bookmark{}, err
	}

	s.refreshOrdering(ctx, sess)
	return s.GetBookmark(ctx, sess, id)
}

// tagsForSave merges the submitted tag names with the names of the tags
// the user's rules assign.
func (s *Service) tagsForSave(ctx context.Context, userID string, in BookmarkInput) ([]string, error) {
	rules, err := s.repo.ListRules(ctx, userID)
	if err != nil {
		return nil, err
	}
	autoIDs := domain.AutoTagIDs(mapper.RulesToUI(rules), in.Title, in.URL)
	if len(autoIDs) == 0 {
		return domain.MergeTags(in.Tags), nil
	}

	tags, err := s.repo.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]string, len(tags))
	for _, t := range tags {
		byID[t.ID] = t.Name
	}
	auto := make([]string, 0, len(autoIDs))
	for _, id := range autoIDs {
		if name, ok := byID[id]; ok {
			auto = append(auto, name)
		}
	}
	return domain.MergeTags(in.Tags, auto), nil
}

func (s *Service) DeleteBookmark(ctx context.Context, sess auth.Session, id string) error {
	if err := s.repo.DeleteBookmark(ctx, sess.UserID, id); err != nil {
		return translate(err)
	}
	s.refreshOrdering(ctx, sess)
	return nil
}

// TogglePin flips the pinned flag.
func (s *Service) TogglePin(ctx context.Context, sess auth.Session, id string) (domain.Bookmark, error) {
	cur, err := s.repo.GetBookmark(ctx, sess.UserID, id)
	if err != nil {
		return domain.Bookmark{}, translate(err)
	}
	if _, err := s.repo.SetPinned(ctx, sess.UserID, id, !cur.IsPinned); err != nil {
		return domain.Bookmark{}, translate(err)
	}
	s.refreshOrdering(ctx, sess)
	return s.GetBookmark(ctx, sess, id)
}

// RecordAccess counts one open of the bookmark.
func (s *Service) RecordAccess(ctx context.Context, sess auth.Session, id string) (domain.Bookmark, error) {
	if _, err := s.repo.IncrementAccess(ctx, sess.UserID, id, s.now()); err != nil {
		return domain.Bookmark{}, translate(err)
	}
	s.refreshOrdering(ctx, sess)
	return s.GetBookmark(ctx, sess, id)
}

// DeleteAll removes every bookmark and tag (and so every rule) of the user.
func (s *Service) DeleteAll(ctx context.Context, sess auth.Session) (int, error) {
	s.workspace.Discard(sess.UserID)

	n, err := s.repo.DeleteAllBookmarks(ctx, sess.UserID)
	if err != nil {
		s.logger.Error("failed to delete bookmarks", logger.String("user_id", sess.UserID), logger.Error(err))
		return n, err
	}
	if err := s.repo.DeleteAllTags(ctx, sess.UserID); err != nil {
		s.logger.Error("failed to delete tags", logger.String("user_id", sess.UserID), logger.Error(err))
		return n, err
	}
	s.logger.Info("deleted all bookmarks", logger.String("user_id", sess.UserID), logger.Int("count", n))
	return n, nil
}
