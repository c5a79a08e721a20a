package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// GetSettings returns store.ErrNotFound when the user has none yet.
func (s *Store) GetSettings(ctx context.Context, userID string) (store.SettingsRow, error) {
	var row store.SettingsRow
	err := s.getJSON(ctx, SettingsKey(userID), &row)
	return row, err
}

// UpsertSettings creates or replaces the settings singleton.
func (s *Store) UpsertSettings(ctx context.Context, row store.SettingsRow) (store.SettingsRow, error) {
	row.UpdatedAt = s.now()
	data, err := json.Marshal(row)
	if err != nil {
		return store.SettingsRow{}, fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.client.Set(ctx, SettingsKey(row.UserID), data, 0).Err(); err != nil {
		return store.SettingsRow{}, fmt.Errorf("failed to save settings: %w", err)
	}
	return row, nil
}
