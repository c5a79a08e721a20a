package service

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/mapper"
)

func (s *Service) ListTags(ctx context.Context, sess auth.Session) ([]domain.Tag, error) {
	rows, err := s.repo.ListTags(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return mapper.TagsToUI(rows), nil
}

// AddTag creates a tag. The name must be unique ignoring case.
func (s *Service) AddTag(ctx context.Context, sess auth.Session, name string) (domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Tag{}, invalid("tag name is required")
	}
	row, err := s.repo.InsertTag(ctx, sess.UserID, name)
	if err != nil {
		return domain.Tag{}, translate(err)
	}
	return mapper.TagToUI(row), nil
}

// RenameTag renames a tag; bookmarks carrying it follow.
func (s *Service) RenameTag(ctx context.Context, sess auth.Session, id, name string) (domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Tag{}, invalid("tag name is required")
	}
	row, err := s.repo.RenameTag(ctx, sess.UserID, id, name)
	if err != nil {
		return domain.Tag{}, translate(err)
	}
	s.refreshOrdering(ctx, sess)
	return mapper.TagToUI(row), nil
}

// DeleteTag removes a tag, its links and the rules targeting it.
func (s *Service) DeleteTag(ctx context.Context, sess auth.Session, id string) error {
	if err := s.repo.DeleteTag(ctx, sess.UserID, id); err != nil {
		return translate(err)
	}
	s.refreshOrdering(ctx, sess)
	return nil
}

// ReplaceTagSet makes names the user's exact tag set: tags not listed are
// deleted, listed names that don't exist are created.
func (s *Service) ReplaceTagSet(ctx context.Context, sess auth.Session, names []string) ([]domain.Tag, error) {
	names = domain.MergeTags(names)
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[strings.ToLower(n)] = true
	}

	current, err := s.repo.ListTags(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	for _, t := range current {
		if keep[strings.ToLower(t.Name)] {
			continue
		}
		if err := s.repo.DeleteTag(ctx, sess.UserID, t.ID); err != nil {
			s.logger.Error("failed to delete tag", logger.String("tag_id", t.ID), logger.Error(err))
			return nil, translate(err)
		}
	}
	if _, err := s.repo.EnsureTags(ctx, sess.UserID, names); err != nil {
		return nil, err
	}
	s.refreshOrdering(ctx, sess)
	return s.ListTags(ctx, sess)
}
