package service

import (
	"context"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/mapper"
)

func (s *Service) ListRules(ctx context.Context, sess auth.Session) ([]domain.TagRule, error) {
	rows, err := s.repo.ListRules(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return mapper.RulesToUI(rows), nil
}

// CreateRule stores a rule and tags every existing bookmark it matches.
// Returns the stored rule and how many bookmarks it selected.
func (s *Service) CreateRule(ctx context.Context, sess auth.Session, rule domain.TagRule) (domain.TagRule, int, error) {
	if err := rule.Validate(); err != nil {
		return domain.TagRule{}, 0, invalid("%v", err)
	}
	if _, err := s.repo.GetTag(ctx, sess.UserID, rule.TagID); err != nil {
		return domain.TagRule{}, 0, translate(err)
	}

	row, err := s.repo.InsertRule(ctx, sess.UserID, mapper.RuleToDB(rule, sess.UserID))
	if err != nil {
		return domain.TagRule{}, 0, err
	}
	created := mapper.RuleToUI(row)

	bookmarks, err := s.ListBookmarks(ctx, sess)
	if err != nil {
		return created, 0, err
	}
	ids := domain.ApplyRule(created, bookmarks)
	if err := s.repo.LinkTag(ctx, sess.UserID, created.TagID, ids); err != nil {
		s.logger.Error("failed to apply rule", logger.String("rule_id", created.ID), logger.Error(err))
		return created, 0, err
	}
	s.refreshOrdering(ctx, sess)
	return created, len(ids), nil
}

// DeleteRule removes a rule. With removeTags, the rule's tag is first taken
// off every bookmark the rule currently matches.
func (s *Service) DeleteRule(ctx context.Context, sess auth.Session, id string, removeTags bool) error {
	row, err := s.repo.GetRule(ctx, sess.UserID, id)
	if err != nil {
		return translate(err)
	}

	if removeTags {
		bookmarks, err := s.ListBookmarks(ctx, sess)
		if err != nil {
			return err
		}
		rule := mapper.RuleToUI(row)
		if err := s.repo.UnlinkTag(ctx, sess.UserID, rule.TagID, domain.ApplyRule(rule, bookmarks)); err != nil {
			return err
		}
		s.refreshOrdering(ctx, sess)
	}
	return translate(s.repo.DeleteRule(ctx, sess.UserID, id))
}
