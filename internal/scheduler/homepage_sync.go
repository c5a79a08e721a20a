package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/bookmarkhub/internal/auth"
	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/logger"
	"github.com/MrSnakeDoc/bookmarkhub/internal/sources/homepage"
	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// UserFinder looks up the account homepage bookmarks are imported into.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (store.UserRow, error)
}

// Importer stores import candidates, skipping urls already bookmarked.
type Importer interface {
	Import(ctx context.Context, sess auth.Session, entries []domain.ImportEntry, skipped int) (domain.ImportReport, error)
}

// HomepageSync imports a Homepage bookmarks.yaml into one user's
// bookmarks, at start, on every tick and when manually triggered.
// Urls already present are left alone, so repeated runs only add new ones.
type HomepageSync struct {
	loader        *homepage.Loader
	mapper        *homepage.Mapper
	users         UserFinder
	importer      Importer
	email         string
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
	lastSync      atomic.Int64
}

func NewHomepageSync(
	bookmarkFile string,
	email string,
	users UserFinder,
	importer Importer,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *HomepageSync {
	return &HomepageSync{
		loader:        homepage.NewLoader(bookmarkFile),
		mapper:        homepage.NewMapper(),
		users:         users,
		importer:      importer,
		email:         email,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start syncs once, then keeps syncing in the background. A failed first
// sync is logged, not fatal: the target user may not have signed up yet.
func (h *HomepageSync) Start(ctx context.Context) error {
	if _, err := h.Sync(ctx); err != nil {
		h.logger.Warn("initial homepage sync failed", logger.Error(err))
	}

	ticker := time.NewTicker(h.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				h.syncLogged(ctx)
			case <-h.manualTrigger:
				h.logger.Info("manual homepage sync triggered")
				h.syncLogged(ctx)
			case <-h.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sync loop
func (h *HomepageSync) Stop() {
	close(h.stopCh)
}

// LastSync returns when the last successful sync finished (zero if none).
func (h *HomepageSync) LastSync() time.Time {
	ns := h.lastSync.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (h *HomepageSync) syncLogged(ctx context.Context) {
	if _, err := h.Sync(ctx); err != nil {
		h.logger.Error("homepage sync failed", logger.Error(err))
	}
}

// Sync reads the bookmark file and imports its entries for the target user.
func (h *HomepageSync) Sync(ctx context.Context) (domain.ImportReport, error) {
	cfg, err := h.loader.Load()
	if err != nil {
		return domain.ImportReport{}, fmt.Errorf("failed to load homepage bookmarks: %w", err)
	}
	entries, skipped, err := h.mapper.Map(cfg)
	if err != nil {
		return domain.ImportReport{}, fmt.Errorf("failed to map homepage bookmarks: %w", err)
	}

	u, err := h.users.FindUserByEmail(ctx, h.email)
	if err != nil {
		return domain.ImportReport{}, fmt.Errorf("homepage sync user %q: %w", h.email, err)
	}

	report, err := h.importer.Import(ctx, auth.Session{UserID: u.ID, Email: u.Email}, entries, skipped)
	if err != nil {
		return report, fmt.Errorf("failed to import homepage bookmarks: %w", err)
	}
	h.lastSync.Store(time.Now().UnixNano())

	h.logger.Info("homepage bookmarks synced",
		logger.String("file", h.loader.Path()),
		logger.Int("imported", report.Imported),
		logger.Int("duplicates", report.Duplicates),
		logger.Int("skipped", report.Skipped))
	return report, nil
}
