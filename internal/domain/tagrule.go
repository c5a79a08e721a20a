package domain

import (
	"fmt"
	"strings"
	"time"
)

type TargetField string

const (
	FieldTitle TargetField = "title"
	FieldURL   TargetField = "url"
)

type MatchType string

const (
	MatchStartsWith MatchType = "starts_with"
	MatchContains   MatchType = "contains"
	MatchEndsWith   MatchType = "ends_with"
)

// TagRule auto-assigns TagID to every bookmark whose target field matches Pattern.
type TagRule struct {
	ID          string      `json:"id"`
	TargetField TargetField `json:"targetField"`
	MatchType   MatchType   `json:"matchType"`
	Pattern     string      `json:"pattern"`
	TagID       string      `json:"tagId"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Validate rejects unknown fields, unknown match types and blank patterns.
func (r TagRule) Validate() error {
	switch r.TargetField {
	case FieldTitle, FieldURL:
	default:
		return fmt.Errorf("invalid target field %q", r.TargetField)
	}
	switch r.MatchType {
	case MatchStartsWith, MatchContains, MatchEndsWith:
	default:
		return fmt.Errorf("invalid match type %q", r.MatchType)
	}
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("pattern must not be empty")
	}
	if r.TagID == "" {
		return fmt.Errorf("tag id must not be empty")
	}
	return nil
}

// Matches reports whether the rule applies to b. Comparison is case-insensitive.
// An empty pattern never matches, so a stored blank rule cannot tag everything.
func (r TagRule) Matches(b Bookmark) bool {
	return r.matchValues(b.Title, b.URL)
}

func (r TagRule) matchValues(title, url string) bool {
	if r.Pattern == "" {
		return false
	}

	var value string
	switch r.TargetField {
	case FieldTitle:
		value = title
	case FieldURL:
		value = url
	default:
		return false
	}

	value = strings.ToLower(value)
	pattern := strings.ToLower(r.Pattern)

	switch r.MatchType {
	case MatchStartsWith:
		return strings.HasPrefix(value, pattern)
	case MatchContains:
		return strings.Contains(value, pattern)
	case MatchEndsWith:
		return strings.HasSuffix(value, pattern)
	default:
		return false
	}
}

// ApplyRule returns the ids of bookmarks the rule selects, in input order.
// Rule creation tags them and rule deletion with cascade untags them.
func ApplyRule(rule TagRule, bookmarks []Bookmark) []string {
	ids := make([]string, 0)
	for _, b := range bookmarks {
		if rule.Matches(b) {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// AutoTagIDs returns the distinct tag ids of every rule matching title/url.
func AutoTagIDs(rules []TagRule, title, url string) []string {
	seen := make(map[string]bool, len(rules))
	ids := make([]string, 0)
	for _, r := range rules {
		if !r.matchValues(title, url) || seen[r.TagID] {
			continue
		}
		seen[r.TagID] = true
		ids = append(ids, r.TagID)
	}
	return ids
}

// MergeTags concatenates tag lists, trimming blanks and dropping case-insensitive
// duplicates. The first spelling seen wins.
func MergeTags(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, list := range lists {
		for _, name := range list {
			name = strings.TrimSpace(name)
			key := strings.ToLower(name)
			if name == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, name)
		}
	}
	return out
}
