package domain

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortAccessCount SortKey = "accessCount"
	SortTitle       SortKey = "title"
	SortCreatedAt   SortKey = "createdAt"
	SortCustom      SortKey = "custom"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortKey validates a sort key coming from a request or stored settings.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortAccessCount, SortTitle, SortCreatedAt, SortCustom:
		return k, nil
	default:
		return "", fmt.Errorf("invalid sort key %q", s)
	}
}

// ParseSortOrder validates a sort direction.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case SortAsc, SortDesc:
		return o, nil
	default:
		return "", fmt.Errorf("invalid sort order %q", s)
	}
}

// Filter selects bookmarks by title substring and tags.
type Filter struct {
	Search string
	Tags   []string
}

// Matches reports whether b passes the filter.
// The search is a case-insensitive title substring (empty always passes).
// Tags use OR semantics: any shared tag is enough, no tags selected passes.
func (f Filter) Matches(b Bookmark) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(f.Search)) {
		return false
	}
	if len(f.Tags) == 0 {
		return true
	}
	for _, t := range f.Tags {
		if b.HasTag(t) {
			return true
		}
	}
	return false
}

// Query is everything the list engine needs besides the bookmarks.
type Query struct {
	Filter
	SortKey   SortKey
	SortOrder SortOrder

	// OrderingMode is true while the user is manually reordering.
	// Combined with SortCustom it keeps the input order verbatim.
	OrderingMode bool
}

// Presentation is the ordered, partitioned list a client renders.
type Presentation struct {
	Pinned   []Bookmark `json:"pinned"`
	Unpinned []Bookmark `json:"unpinned"`
}

// Len returns the number of presented bookmarks.
func (p Presentation) Len() int { return len(p.Pinned) + len(p.Unpinned) }

// Flatten returns pinned followed by unpinned.
func (p Presentation) Flatten() []Bookmark {
	out := make([]Bookmark, 0, p.Len())
	out = append(out, p.Pinned...)
	return append(out, p.Unpinned...)
}

// Present filters, sorts and partitions bookmarks. The input is never mutated.
func Present(bookmarks []Bookmark, q Query) Presentation {
	filtered := make([]Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if q.Matches(b) {
			filtered = append(filtered, b)
		}
	}

	if !(q.OrderingMode && q.SortKey == SortCustom) {
		sortBookmarks(filtered, q.SortKey, q.SortOrder)
	}

	p := Presentation{
		Pinned:   make([]Bookmark, 0),
		Unpinned: make([]Bookmark, 0, len(filtered)),
	}
	for _, b := range filtered {
		if b.Pinned {
			p.Pinned = append(p.Pinned, b)
		} else {
			p.Unpinned = append(p.Unpinned, b)
		}
	}
	return p
}

// sortBookmarks is stable: equal elements keep their input order.
// The custom key always sorts ascending by rank.
func sortBookmarks(bs []Bookmark, key SortKey, order SortOrder) {
	compare := comparator(key)
	if compare == nil {
		return
	}
	desc := order == SortDesc && key != SortCustom

	sort.SliceStable(bs, func(i, j int) bool {
		c := compare(bs[i], bs[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func comparator(key SortKey) func(a, b Bookmark) int {
	switch key {
	case SortAccessCount:
		return func(a, b Bookmark) int { return a.AccessCount - b.AccessCount }
	case SortTitle:
		// Collators keep internal buffers, one per call.
		c := collate.New(language.Und)
		return func(a, b Bookmark) int { return c.CompareString(a.Title, b.Title) }
	case SortCreatedAt:
		return func(a, b Bookmark) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortCustom:
		return func(a, b Bookmark) int { return a.Rank() - b.Rank() }
	default:
		return nil
	}
}

// ToggleTagSelection adds tag to the selection, or removes it if already selected.
func ToggleTagSelection(selected []string, tag string) []string {
	out := make([]string, 0, len(selected)+1)
	found := false
	for _, t := range selected {
		if t == tag {
			found = true
			continue
		}
		out = append(out, t)
	}
	if !found {
		out = append(out, tag)
	}
	return out
}
