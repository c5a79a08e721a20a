// Package mapper translates between stored records and client-facing values.
// Every function is pure.
package mapper

import (
	"github.com/MrSnakeDoc/bookmarkhub/internal/domain"
	"github.com/MrSnakeDoc/bookmarkhub/internal/store"
)

// ToUI flattens a stored bookmark and its tag joins. Duplicate tag names
// collapse. Tags is never nil, so it encodes as [] rather than null.
func ToUI(row store.BookmarkWithTags) domain.Bookmark {
	tags := make([]string, 0, len(row.BookmarksTags))
	seen := make(map[string]bool, len(row.BookmarksTags))
	for _, j := range row.BookmarksTags {
		if j.Tags.Name == "" || seen[j.Tags.Name] {
			continue
		}
		seen[j.Tags.Name] = true
		tags = append(tags, j.Tags.Name)
	}

	b := domain.Bookmark{
		ID:             row.ID,
		Title:          row.Title,
		URL:            row.URL,
		Tags:           tags,
		Pinned:         row.IsPinned,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		AccessCount:    row.AccessCount,
		LastAccessedAt: row.LastAccessedAt,
		CustomOrder:    row.CustomOrder,
	}
	if row.Favicon != nil {
		b.Favicon = *row.Favicon
	}
	return b
}

// ToDB builds the stored shape of b for userID.
func ToDB(b domain.Bookmark, userID string) store.BookmarkWithTags {
	row := store.BookmarkWithTags{
		BookmarkRow: store.BookmarkRow{
			ID:             b.ID,
			UserID:         userID,
			Title:          b.Title,
			URL:            b.URL,
			IsPinned:       b.Pinned,
			CreatedAt:      b.CreatedAt,
			UpdatedAt:      b.UpdatedAt,
			AccessCount:    b.AccessCount,
			LastAccessedAt: b.LastAccessedAt,
			CustomOrder:    b.CustomOrder,
		},
		BookmarksTags: make([]store.BookmarkTagJoin, 0, len(b.Tags)),
	}
	if b.Favicon != "" {
		fav := b.Favicon
		row.Favicon = &fav
	}
	for _, name := range b.Tags {
		row.BookmarksTags = append(row.BookmarksTags, store.BookmarkTagJoin{Tags: store.TagName{Name: name}})
	}
	return row
}

// ToUIList maps a slice of stored bookmarks.
func ToUIList(rows []store.BookmarkWithTags) []domain.Bookmark {
	out := make([]domain.Bookmark, len(rows))
	for i, r := range rows {
		out[i] = ToUI(r)
	}
	return out
}

func TagToUI(row store.TagRow) domain.Tag {
	return domain.Tag{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
}

func TagsToUI(rows []store.TagRow) []domain.Tag {
	out := make([]domain.Tag, len(rows))
	for i, r := range rows {
		out[i] = TagToUI(r)
	}
	return out
}

func RuleToUI(row store.TagRuleRow) domain.TagRule {
	return domain.TagRule{
		ID:          row.ID,
		TargetField: domain.TargetField(row.TargetField),
		MatchType:   domain.MatchType(row.MatchType),
		Pattern:     row.Pattern,
		TagID:       row.TagID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func RulesToUI(rows []store.TagRuleRow) []domain.TagRule {
	out := make([]domain.TagRule, len(rows))
	for i, r := range rows {
		out[i] = RuleToUI(r)
	}
	return out
}

func RuleToDB(r domain.TagRule, userID string) store.TagRuleRow {
	return store.TagRuleRow{
		ID:          r.ID,
		UserID:      userID,
		TargetField: string(r.TargetField),
		MatchType:   string(r.MatchType),
		Pattern:     r.Pattern,
		TagID:       r.TagID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// SettingsToUI fills missing or invalid stored values with defaults.
func SettingsToUI(row store.SettingsRow) domain.Settings {
	s := domain.Settings{
		ViewMode:    domain.ViewMode(row.DisplayMode),
		ListColumns: row.ListColumns,
		SortKey:     domain.SortKey(row.SortOption),
		SortOrder:   domain.SortOrder(row.SortOrder),
	}
	def := domain.DefaultSettings()
	if s.ViewMode != domain.ViewGrid && s.ViewMode != domain.ViewList {
		s.ViewMode = def.ViewMode
	}
	if s.ListColumns < domain.MinListColumns || s.ListColumns > domain.MaxListColumns {
		s.ListColumns = def.ListColumns
	}
	if _, err := domain.ParseSortKey(string(s.SortKey)); err != nil {
		s.SortKey = def.SortKey
	}
	if _, err := domain.ParseSortOrder(string(s.SortOrder)); err != nil {
		s.SortOrder = def.SortOrder
	}
	return s
}

func SettingsToDB(s domain.Settings, userID string) store.SettingsRow {
	return store.SettingsRow{
		UserID:      userID,
		DisplayMode: string(s.ViewMode),
		ListColumns: s.ListColumns,
		SortOption:  string(s.SortKey),
		SortOrder:   string(s.SortOrder),
	}
}
