package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/index"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
)

// CommitError reports a custom order that was only partly persisted.
// Bookmarks holds the authoritative list fetched after the failure.
type CommitError struct {
	Committed int
	Total     int
	Bookmarks domain.Presentation
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("custom order saved %d of %d ranks: %v", e.Committed, e.Total, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// OrderedList is a presented list with the query it was presented by.
type OrderedList struct {
	domain.Presentation
	Query domain.Query
}

func orderedList(o index.Ordering) OrderedList {
	return OrderedList{Presentation: o.Presentation(), Query: o.Query}
}

// BeginOrdering opens a manual ordering session over the user's bookmarks,
// starting from their stored custom order.
func (s *Service) BeginOrdering(ctx context.Context, sess auth.Session, q domain.Query) (OrderedList, error) {
	list, err := s.ListBookmarks(ctx, sess)
	if err != nil {
		return OrderedList{}, err
	}
	return orderedList(s.workspace.Begin(sess.UserID, list, q)), nil
}

// MoveOrdering moves one item of a presented section.
func (s *Service) MoveOrdering(sess auth.Session, oldIndex, newIndex int, pinnedSection bool) (OrderedList, error) {
	o, err := s.workspace.Move(sess.UserID, oldIndex, newIndex, pinnedSection)
	if err != nil {
		return OrderedList{}, orderingError(err)
	}
	return orderedList(o), nil
}

// refreshOrdering re-reads the user's bookmarks into an open ordering
// session after a mutation. When the read fails the session is dropped.
func (s *Service) refreshOrdering(ctx context.Context, sess auth.Session) {
	if !s.workspace.Active(sess.UserID) {
		return
	}
	list, err := s.ListBookmarks(ctx, sess)
	if err != nil {
		s.workspace.Discard(sess.UserID)
		s.logger.Warn("dropped ordering session after failed refresh",
			logger.String("user_id", sess.UserID),
			logger.Error(err))
		return
	}
	s.workspace.Refresh(sess.UserID, list)
}

// DiscardOrdering leaves ordering mode without saving.
func (s *Service) DiscardOrdering(sess auth.Session) bool {
	return s.workspace.Discard(sess.UserID)
}

// EndOrdering leaves ordering mode. When the order changed, every bookmark
// whose rank differs from its new position is updated, one request at a
// time. The first failure stops the commit: local ranks are dropped and the
// stored list is re-read and returned inside a *CommitError.
func (s *Service) EndOrdering(ctx context.Context, sess auth.Session) (OrderedList, error) {
	o, err := s.workspace.End(sess.UserID)
	if err != nil {
		return OrderedList{}, orderingError(err)
	}
	q := o.Query
	q.OrderingMode = false

	if !o.Changed() {
		return OrderedList{Presentation: domain.Present(o.Bookmarks, q), Query: q}, nil
	}

	updates := domain.ChangedRanks(domain.CommitOrder(o.Bookmarks), o.Bookmarks)
	state := domain.NewOptimistic(o.Bookmarks)
	if _, err := state.ApplyOptimistic(domain.RankDelta(updates)); err != nil {
		return OrderedList{}, err
	}

	for i, u := range updates {
		if err := s.repo.UpdateRank(ctx, sess.UserID, u.ID, u.Rank); err != nil {
			s.logger.Error("failed to save custom order",
				logger.String("user_id", sess.UserID),
				logger.String("bookmark_id", u.ID),
				logger.Int("committed", i),
				logger.Int("total", len(updates)),
				logger.Error(err))
			state.Rollback()

			commitErr := &CommitError{Committed: i, Total: len(updates), Err: translate(err)}
			fresh, ferr := s.ListBookmarks(ctx, sess)
			if ferr != nil {
				return OrderedList{Query: q}, errors.Join(commitErr, ferr)
			}
			commitErr.Bookmarks = domain.Present(state.Reconcile(fresh), q)
			return OrderedList{Presentation: commitErr.Bookmarks, Query: q}, commitErr
		}
	}

	s.logger.Info("custom order saved",
		logger.String("user_id", sess.UserID),
		logger.Int("updated", len(updates)))
	return OrderedList{Presentation: domain.Present(state.State(), q), Query: q}, nil
}

func orderingError(err error) error {
	if errors.Is(err, index.ErrNoOrdering) || errors.Is(err, domain.ErrIndexOutOfRange) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return err
}
