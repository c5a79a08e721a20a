package domain

// Delta is a local change applied ahead of server confirmation.
type Delta func([]Bookmark) ([]Bookmark, error)

// Optimistic tracks a confirmed server state plus local deltas on top of it.
// ApplyOptimistic moves the visible state forward immediately, Reconcile
// replaces everything with the authoritative server state.
//
// Optimistic is not safe for concurrent use.
type Optimistic struct {
	confirmed []Bookmark
	view      []Bookmark
	pending   int
}

func NewOptimistic(confirmed []Bookmark) *Optimistic {
	return &Optimistic{confirmed: confirmed, view: confirmed}
}

// ApplyOptimistic applies d to the current state. On error the state is unchanged.
func (o *Optimistic) ApplyOptimistic(d Delta) ([]Bookmark, error) {
	next, err := d(o.view)
	if err != nil {
		return o.view, err
	}
	o.view = next
	o.pending++
	return o.view, nil
}

// Reconcile adopts the server state and drops every pending delta.
func (o *Optimistic) Reconcile(server []Bookmark) []Bookmark {
	o.confirmed = server
	o.view = server
	o.pending = 0
	return o.view
}

// Rollback discards pending deltas and returns the last confirmed state.
func (o *Optimistic) Rollback() []Bookmark {
	o.view = o.confirmed
	o.pending = 0
	return o.view
}

func (o *Optimistic) State() []Bookmark { return o.view }
func (o *Optimistic) Confirmed() []Bookmark { return o.confirmed }
func (o *Optimistic) Pending() int { return o.pending }

// ReorderDelta moves one item inside a presented section, see Reorder.
func ReorderDelta(f Filter, oldIndex, newIndex int, pinnedSection bool) Delta {
	return func(bs []Bookmark) ([]Bookmark, error) {
		return Reorder(bs, f, oldIndex, newIndex, pinnedSection)
	}
}

// RankDelta writes ranks locally before they are persisted.
func RankDelta(updates []RankUpdate) Delta {
	return func(bs []Bookmark) ([]Bookmark, error) {
		return ApplyRanks(bs, updates), nil
	}
}
