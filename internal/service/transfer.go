package service

import (
	"context"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/sources/netscape"
	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// ImportNetscape reads a Netscape bookmark file and imports its anchors.
func (s *Service) ImportNetscape(ctx context.Context, sess auth.Session, r io.Reader) (domain.ImportReport, error) {
	res, err := netscape.Parse(r, s.now())
	if err != nil {
		return domain.ImportReport{}, invalid("unreadable bookmark file: %v", err)
	}
	return s.Import(ctx, sess, res.Entries, res.Skipped)
}

// Import stores entries whose url is not already bookmarked. Duplicates
// inside the batch count once. Tag rules are not applied; entry tags are.
func (s *Service) Import(ctx context.Context, sess auth.Session, entries []domain.ImportEntry, skipped int) (domain.ImportReport, error) {
	report := domain.ImportReport{Skipped: skipped}

	existing, err := s.repo.BookmarkURLs(ctx, sess.UserID)
	if err != nil {
		return report, err
	}
	fresh, dups := domain.DedupeImport(entries, existing)
	report.Duplicates = dups
	if len(fresh) == 0 {
		return report, nil
	}

	rows := make([]store.BookmarkRow, len(fresh))
	for i, e := range fresh {
		title := e.Title
		if title == "" {
			title = e.URL
		}
		created := e.CreatedAt
		if created.IsZero() {
			created = s.now()
		}
		rows[i] = store.BookmarkRow{Title: title, URL: e.URL, CreatedAt: created, UpdatedAt: created}
	}

	stored, err := s.repo.InsertBookmarks(ctx, sess.UserID, rows)
	if err != nil {
		s.logger.Error("failed to import bookmarks", logger.String("user_id", sess.UserID), logger.Error(err))
		return report, err
	}
	report.Imported = len(stored)

	for i, e := range fresh {
		if len(e.Tags) == 0 {
			continue
		}
		tags, err := s.repo.EnsureTags(ctx, sess.UserID, e.Tags)
		if err != nil {
			return report, err
		}
		ids := make([]string, len(tags))
		for j, t := range tags {
			ids[j] = t.ID
		}
		if err := s.repo.ReplaceBookmarkTags(ctx, sess.UserID, stored[i].ID, ids); err != nil {
			return report, err
		}
	}

	s.refreshOrdering(ctx, sess)
	s.logger.Info("imported bookmarks",
		logger.String("user_id", sess.UserID),
		logger.Int("imported", report.Imported),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("skipped", report.Skipped))
	return report, nil
}

// Export writes every bookmark of the user as a Netscape bookmark file.
func (s *Service) Export(ctx context.Context, sess auth.Session, w io.Writer) error {
	list, err := s.ListBookmarks(ctx, sess)
	if err != nil {
		return err
	}
	if err := netscape.Export(w, list); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
