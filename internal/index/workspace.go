package index

import (
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
)

// ErrNoOrdering is returned when a user has no ordering session in progress.
var ErrNoOrdering = errors.New("ordering mode is not active")

// Ordering is a snapshot of one user's ordering session.
type Ordering struct {
	Query     domain.Query
	Original  []string          // ids in stored custom order
	Bookmarks []domain.Bookmark // working order, every bookmark of the user
	Moves     int
	StartedAt time.Time
	UpdatedAt time.Time
}

// Changed reports whether the working order differs from the original one.
func (o Ordering) Changed() bool {
	return domain.OrderChanged(o.Original, domain.IDs(o.Bookmarks))
}

// Presentation renders the working order with the session's query.
func (o Ordering) Presentation() domain.Presentation {
	return domain.Present(o.Bookmarks, o.Query)
}

type orderingSession struct {
	query     domain.Query
	original  []string
	state     *domain.Optimistic
	startedAt time.Time
	updatedAt time.Time
}

func (s *orderingSession) snapshot() Ordering {
	state := s.state.State()
	return Ordering{
		Query:     s.query,
		Original:  append([]string(nil), s.original...),
		Bookmarks: append([]domain.Bookmark(nil), state...),
		Moves:     s.state.Pending(),
		StartedAt: s.startedAt,
		UpdatedAt: s.updatedAt,
	}
}

// Workspace holds in-progress ordering sessions, one per user.
// Moves stay in memory until the session ends and the new ranks are committed.
type Workspace struct {
	mu       sync.RWMutex
	sessions map[string]*orderingSession // user ID -> session
	now      func() time.Time
}

// NewWorkspace creates an empty workspace
func NewWorkspace() *Workspace {
	return &Workspace{
		sessions: make(map[string]*orderingSession),
		now:      time.Now,
	}
}

// Begin starts (or restarts) ordering for userID. The session works on the
// stored custom order: matching bookmarks take their presented order, the
// others keep their positions.
func (w *Workspace) Begin(userID string, bookmarks []domain.Bookmark, q domain.Query) Ordering {
	ranked := domain.SortByRank(bookmarks)
	q.SortKey = domain.SortCustom
	arranged := domain.ArrangeForOrdering(ranked, q)
	q.OrderingMode = true

	now := w.now()
	sess := &orderingSession{
		query:     q,
		original:  domain.IDs(ranked),
		state:     domain.NewOptimistic(arranged),
		startedAt: now,
		updatedAt: now,
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.sessions[userID] = sess
	return sess.snapshot()
}

// Move drags one item within a presented section.
func (w *Workspace) Move(userID string, oldIndex, newIndex int, pinnedSection bool) (Ordering, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sess, ok := w.sessions[userID]
	if !ok {
		return Ordering{}, ErrNoOrdering
	}
	if _, err := sess.state.ApplyOptimistic(domain.ReorderDelta(sess.query.Filter, oldIndex, newIndex, pinnedSection)); err != nil {
		return Ordering{}, err
	}
	sess.updatedAt = w.now()
	return sess.snapshot(), nil
}

// Refresh swaps in the user's re-read bookmarks while keeping the working
// order: removed bookmarks drop out, new ones follow in stored order.
// Pending moves are kept in the order but no longer counted.
// Reports false when the user is not ordering.
func (w *Workspace) Refresh(userID string, bookmarks []domain.Bookmark) (Ordering, bool) {
	ranked := domain.SortByRank(bookmarks)

	w.mu.Lock()
	defer w.mu.Unlock()

	sess, ok := w.sessions[userID]
	if !ok {
		return Ordering{}, false
	}
	sess.original = domain.IDs(ranked)
	sess.state.Reconcile(domain.KeepOrder(domain.IDs(sess.state.State()), ranked))
	sess.updatedAt = w.now()
	return sess.snapshot(), true
}

// Current returns the user's session, if any.
func (w *Workspace) Current(userID string) (Ordering, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	sess, ok := w.sessions[userID]
	if !ok {
		return Ordering{}, false
	}
	return sess.snapshot(), true
}

// End removes the user's session and returns its final state.
func (w *Workspace) End(userID string) (Ordering, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sess, ok := w.sessions[userID]
	if !ok {
		return Ordering{}, ErrNoOrdering
	}
	delete(w.sessions, userID)
	return sess.snapshot(), nil
}

// Discard drops the session without returning it. Reports whether one existed.
func (w *Workspace) Discard(userID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, ok := w.sessions[userID]
	delete(w.sessions, userID)
	return ok
}

// Active reports whether userID is ordering.
func (w *Workspace) Active(userID string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	_, ok := w.sessions[userID]
	return ok
}

// Count returns the number of sessions in progress
func (w *Workspace) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return len(w.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many went.
func (w *Workspace) Sweep(maxIdle time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-maxIdle)
	removed := 0
	for uid, sess := range w.sessions {
		if sess.updatedAt.Before(cutoff) {
			delete(w.sessions, uid)
			removed++
		}
	}
	return removed
}
