package domain

import "fmt"

type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

const (
	MinListColumns = 1
	MaxListColumns = 4
)

// Settings is the per-user display preferences singleton.
type Settings struct {
	ViewMode    ViewMode  `json:"viewMode"`
	ListColumns int       `json:"listColumns"`
	SortKey     SortKey   `json:"sortKey"`
	SortOrder   SortOrder `json:"sortOrder"`
}

// DefaultSettings returns the values used when a user has no stored settings yet.
func DefaultSettings() Settings {
	return Settings{
		ViewMode:    ViewGrid,
		ListColumns: MaxListColumns,
		SortKey:     SortAccessCount,
		SortOrder:   SortDesc,
	}
}

// Validate checks every field against its allowed values.
func (s Settings) Validate() error {
	switch s.ViewMode {
	case ViewGrid, ViewList:
	default:
		return fmt.Errorf("invalid view mode %q", s.ViewMode)
	}
	if s.ListColumns < MinListColumns || s.ListColumns > MaxListColumns {
		return fmt.Errorf("list columns must be between %d and %d, got %d",
			MinListColumns, MaxListColumns, s.ListColumns)
	}
	if _, err := ParseSortKey(string(s.SortKey)); err != nil {
		return err
	}
	if _, err := ParseSortOrder(string(s.SortOrder)); err != nil {
		return err
	}
	return nil
}
