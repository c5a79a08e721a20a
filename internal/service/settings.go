package service

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/mapper"
	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// GetSettings returns the user's display settings, creating the defaults
// on first use. Store failures are logged and the defaults returned.
func (s *Service) GetSettings(ctx context.Context, sess auth.Session) domain.Settings {
	row, err := s.repo.GetSettings(ctx, sess.UserID)
	if err == nil {
		return mapper.SettingsToUI(row)
	}

	def := domain.DefaultSettings()
	if !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("failed to load settings, using defaults",
			logger.String("user_id", sess.UserID), logger.Error(err))
		return def
	}
	if _, err := s.repo.UpsertSettings(ctx, mapper.SettingsToDB(def, sess.UserID)); err != nil {
		s.logger.Warn("failed to create default settings",
			logger.String("user_id", sess.UserID), logger.Error(err))
	}
	return def
}

func (s *Service) UpdateSettings(ctx context.Context, sess auth.Session, settings domain.Settings) (domain.Settings, error) {
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, invalid("%v", err)
	}
	row, err := s.repo.UpsertSettings(ctx, mapper.SettingsToDB(settings, sess.UserID))
	if err != nil {
		s.logger.Error("failed to save settings", logger.String("user_id", sess.UserID), logger.Error(err))
		return domain.Settings{}, err
	}
	return mapper.SettingsToUI(row), nil
}
