package domain

import "errors"

// UnpinnedRankOffset is the first custom rank handed to unpinned bookmarks.
// Pinned bookmarks are ranked 0..N-1, so pinned always sorts first under
// SortCustom. When N reaches the offset the unpinned base moves up to the
// next multiple of it, keeping the two ranges disjoint.
const UnpinnedRankOffset = 1000

var ErrIndexOutOfRange = errors.New("reorder index out of range")

// RankUpdate is a single persisted custom-order change.
type RankUpdate struct {
	ID   string `json:"id"`
	Rank int    `json:"rank"`
}

func unpinnedBase(pinnedCount int) int {
	base := UnpinnedRankOffset
	for pinnedCount >= base {
		base += UnpinnedRankOffset
	}
	return base
}

// CommitOrder renumbers the whole collection in its current order:
// pinned 0..N-1, unpinned base+0..base+M-1.
func CommitOrder(current []Bookmark) []RankUpdate {
	pinnedCount := 0
	for _, b := range current {
		if b.Pinned {
			pinnedCount++
		}
	}
	base := unpinnedBase(pinnedCount)

	updates := make([]RankUpdate, 0, len(current))
	p, u := 0, 0
	for _, b := range current {
		if b.Pinned {
			updates = append(updates, RankUpdate{ID: b.ID, Rank: p})
			p++
		} else {
			updates = append(updates, RankUpdate{ID: b.ID, Rank: base + u})
			u++
		}
	}
	return updates
}

// ChangedRanks keeps only the updates that differ from the stored rank.
// A bookmark without a rank always counts as changed.
func ChangedRanks(updates []RankUpdate, current []Bookmark) []RankUpdate {
	byID := make(map[string]*int, len(current))
	for _, b := range current {
		byID[b.ID] = b.CustomOrder
	}

	changed := make([]RankUpdate, 0, len(updates))
	for _, u := range updates {
		rank, ok := byID[u.ID]
		if ok && rank != nil && *rank == u.Rank {
			continue
		}
		changed = append(changed, u)
	}
	return changed
}

// ApplyRanks returns a copy of bookmarks with the given ranks set.
func ApplyRanks(bookmarks []Bookmark, updates []RankUpdate) []Bookmark {
	ranks := make(map[string]int, len(updates))
	for _, u := range updates {
		ranks[u.ID] = u.Rank
	}
	out := make([]Bookmark, len(bookmarks))
	for i, b := range bookmarks {
		if r, ok := ranks[b.ID]; ok {
			b.CustomOrder = IntPtr(r)
		}
		out[i] = b
	}
	return out
}

// sectionSlots returns the indices of bookmarks matching f whose pinned flag equals pinned.
func sectionSlots(all []Bookmark, f Filter, pinned bool) []int {
	slots := make([]int, 0)
	for i, b := range all {
		if b.Pinned == pinned && f.Matches(b) {
			slots = append(slots, i)
		}
	}
	return slots
}

// Reorder moves the item at oldIndex to newIndex inside one presented
// section (pinned or unpinned) of the filtered view. Moved items are written
// back into the slots the section already occupied, so bookmarks hidden by
// the filter keep their exact positions.
func Reorder(all []Bookmark, f Filter, oldIndex, newIndex int, pinnedSection bool) ([]Bookmark, error) {
	slots := sectionSlots(all, f, pinnedSection)
	if oldIndex < 0 || oldIndex >= len(slots) || newIndex < 0 || newIndex >= len(slots) {
		return nil, ErrIndexOutOfRange
	}

	section := make([]Bookmark, len(slots))
	for k, pos := range slots {
		section[k] = all[pos]
	}

	moved := section[oldIndex]
	section = append(section[:oldIndex], section[oldIndex+1:]...)
	section = append(section[:newIndex], append([]Bookmark{moved}, section[newIndex:]...)...)

	out := make([]Bookmark, len(all))
	copy(out, all)
	for k, pos := range slots {
		out[pos] = section[k]
	}
	return out, nil
}

// ArrangeForOrdering prepares a collection for a manual ordering session:
// visible bookmarks take their currently presented order within their own
// section's slots, hidden bookmarks stay where they are.
func ArrangeForOrdering(all []Bookmark, q Query) []Bookmark {
	q.OrderingMode = false
	p := Present(all, q)

	out := make([]Bookmark, len(all))
	copy(out, all)
	for k, pos := range sectionSlots(all, q.Filter, true) {
		out[pos] = p.Pinned[k]
	}
	for k, pos := range sectionSlots(all, q.Filter, false) {
		out[pos] = p.Unpinned[k]
	}
	return out
}

// SortByRank returns a copy of bookmarks in stored custom order. The sort
// is stable, so unranked bookmarks keep their input order.
func SortByRank(bookmarks []Bookmark) []Bookmark {
	out := make([]Bookmark, len(bookmarks))
	copy(out, bookmarks)
	sortBookmarks(out, SortCustom, SortAsc)
	return out
}

// KeepOrder returns fresh laid out in the id order given. Ids missing from
// fresh are dropped, bookmarks missing from order follow in their fresh order.
func KeepOrder(order []string, fresh []Bookmark) []Bookmark {
	byID := make(map[string]Bookmark, len(fresh))
	for _, b := range fresh {
		byID[b.ID] = b
	}

	out := make([]Bookmark, 0, len(fresh))
	for _, id := range order {
		if b, ok := byID[id]; ok {
			out = append(out, b)
			delete(byID, id)
		}
	}
	for _, b := range fresh {
		if _, ok := byID[b.ID]; ok {
			out = append(out, b)
		}
	}
	return out
}

// IDs returns the bookmark ids in order.
func IDs(bookmarks []Bookmark) []string {
	ids := make([]string, len(bookmarks))
	for i, b := range bookmarks {
		ids[i] = b.ID
	}
	return ids
}

// OrderChanged reports whether two id sequences differ.
func OrderChanged(original, current []string) bool {
	if len(original) != len(current) {
		return true
	}
	for i := range original {
		if original[i] != current[i] {
			return true
		}
	}
	return false
}
