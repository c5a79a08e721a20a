// Package service implements the bookmark use-cases on top of the record
// store. Every call takes the caller's auth.Session explicitly.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bookmarkhub/internal/index"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid input")
)

// Repository is the record store as the use-cases see it.
type Repository interface {
	ListBookmarks(ctx context.Context, userID string) ([]store.BookmarkWithTags, error)
	GetBookmark(ctx context.Context, userID, id string) (store.BookmarkWithTags, error)
	InsertBookmark(ctx context.Context, userID string, row store.BookmarkRow) (store.BookmarkRow, error)
	InsertBookmarks(ctx context.Context, userID string, rows []store.BookmarkRow) ([]store.BookmarkRow, error)
	UpdateBookmark(ctx context.Context, userID string, row store.BookmarkRow) (store.BookmarkRow, error)
	UpdateRank(ctx context.Context, userID, id string, rank int) error
	SetPinned(ctx context.Context, userID, id string, pinned bool) (store.BookmarkRow, error)
	IncrementAccess(ctx context.Context, userID, id string, at time.Time) (store.BookmarkRow, error)
	DeleteBookmark(ctx context.Context, userID, id string) error
	DeleteAllBookmarks(ctx context.Context, userID string) (int, error)
	MaxCustomOrder(ctx context.Context, userID string) (int, bool, error)
	BookmarkURLs(ctx context.Context, userID string) ([]string, error)

	ListTags(ctx context.Context, userID string) ([]store.TagRow, error)
	GetTag(ctx context.Context, userID, id string) (store.TagRow, error)
	InsertTag(ctx context.Context, userID, name string) (store.TagRow, error)
	EnsureTags(ctx context.Context, userID string, names []string) ([]store.TagRow, error)
	RenameTag(ctx context.Context, userID, id, newName string) (store.TagRow, error)
	DeleteTag(ctx context.Context, userID, id string) error
	DeleteAllTags(ctx context.Context, userID string) error
	ReplaceBookmarkTags(ctx context.Context, userID, bookmarkID string, tagIDs []string) error
	LinkTag(ctx context.Context, userID, tagID string, bookmarkIDs []string) error
	UnlinkTag(ctx context.Context, userID, tagID string, bookmarkIDs []string) error

	ListRules(ctx context.Context, userID string) ([]store.TagRuleRow, error)
	GetRule(ctx context.Context, userID, id string) (store.TagRuleRow, error)
	InsertRule(ctx context.Context, userID string, r store.TagRuleRow) (store.TagRuleRow, error)
	DeleteRule(ctx context.Context, userID, id string) error

	GetSettings(ctx context.Context, userID string) (store.SettingsRow, error)
	UpsertSettings(ctx context.Context, row store.SettingsRow) (store.SettingsRow, error)
}

type Service struct {
	repo      Repository
	workspace *index.Workspace
	logger    logger.Logger
	now       func() time.Time
}

func New(repo Repository, ws *index.Workspace, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		workspace: ws,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// translate maps record store sentinels to service ones.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return err
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
