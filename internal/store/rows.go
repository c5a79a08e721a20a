// Package store holds the stored-record shapes shared by every record store
// implementation. Field names follow the relational layout the records were
// designed for (snake_case, nested tag joins).
package store

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist for the given user.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("record conflict")
)

// BookmarkRow is a bookmark as persisted.
type BookmarkRow struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	IsPinned       bool       `json:"is_pinned"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Favicon        *string    `json:"favicon,omitempty"`
	AccessCount    int        `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CustomOrder    *int       `json:"custom_order,omitempty"`
}

// TagName is the joined tag projection.
type TagName struct {
	Name string `json:"name"`
}

// BookmarkTagJoin is one row of the bookmark/tag link table with its tag joined in.
type BookmarkTagJoin struct {
	Tags TagName `json:"tags"`
}

// BookmarkWithTags is a bookmark row plus its joined tags.
type BookmarkWithTags struct {
	BookmarkRow
	BookmarksTags []BookmarkTagJoin `json:"bookmarks_tags"`
}

type TagRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TagRuleRow struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TargetField string    `json:"target_field"`
	MatchType   string    `json:"match_type"`
	Pattern     string    `json:"pattern"`
	TagID       string    `json:"tag_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SettingsRow is the per-user display settings singleton.
type SettingsRow struct {
	UserID      string    `json:"user_id"`
	DisplayMode string    `json:"display_mode"`
	ListColumns int       `json:"list_columns"`
	SortOption  string    `json:"sort_option"`
	SortOrder   string    `json:"sort_order"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UserRow struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type SessionRow struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
