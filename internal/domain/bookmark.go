package domain

import "time"

// Bookmark is the client-facing view of a stored bookmark.
//
// It is NOT the stored shape: the record store keeps snake_case rows with
// nested tag joins (see store.BookmarkWithTags). The mapper package
// translates between the two.
type Bookmark struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is an opaque identifier assigned by the record store.
	ID string `json:"id"`

	// Title is the display name. Search matches against it.
	Title string `json:"title"`

	// URL is the target address and the dedup key during import.
	URL string `json:"url"`

	// Tags holds tag names with set semantics.
	Tags []string `json:"tags"`

	// Favicon is an optional icon URL.
	Favicon string `json:"favicon,omitempty"`

	// ─────────────────────────────
	// Organisation
	// ─────────────────────────────

	// Pinned bookmarks always sort ahead of unpinned ones.
	Pinned bool `json:"isPinned"`

	// CustomOrder is the persisted manual rank, nil when never ordered.
	CustomOrder *int `json:"customOrder,omitempty"`

	// ─────────────────────────────
	// Metadata & usage
	// ─────────────────────────────

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// AccessCount is bumped every time the bookmark is opened.
	AccessCount int `json:"accessCount"`

	// LastAccessedAt is set on the first open and refreshed on each one after.
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
}

// Rank returns the custom order rank, treating an absent rank as 0.
func (b Bookmark) Rank() int {
	if b.CustomOrder == nil {
		return 0
	}
	return *b.CustomOrder
}

// HasTag reports whether the bookmark carries the named tag (exact match).
func (b Bookmark) HasTag(name string) bool {
	for _, t := range b.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// Tag is a user-scoped label. Names are unique per user, case-insensitively.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IntPtr is a small helper for optional ranks.
func IntPtr(v int) *int { return &v }
