package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOptimisticApplyAndReconcile(t *testing.T) {
	server := []Bookmark{bm("a", "a", false, 0), bm("b", "b", false, 0)}
	o := NewOptimistic(server)

	state, err := o.ApplyOptimistic(ReorderDelta(Filter{}, 0, 1, false))
	if err != nil {
		t.Fatalf("ApplyOptimistic() error = %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, IDs(state)); diff != "" {
		t.Errorf("ApplyOptimistic() mismatch (-want +got):\n%s", diff)
	}
	if o.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", o.Pending())
	}
	if diff := cmp.Diff([]string{"a", "b"}, IDs(o.Confirmed())); diff != "" {
		t.Errorf("Confirmed() changed before reconcile:\n%s", diff)
	}

	fresh := []Bookmark{bm("b", "b", false, 0), bm("a", "a", false, 0), bm("c", "c", false, 0)}
	final := o.Reconcile(fresh)
	if diff := cmp.Diff(IDs(fresh), IDs(final)); diff != "" {
		t.Errorf("Reconcile() mismatch (-want +got):\n%s", diff)
	}
	if o.Pending() != 0 {
		t.Errorf("Pending() after Reconcile = %d, want 0", o.Pending())
	}
}

func TestOptimisticFailedDeltaLeavesState(t *testing.T) {
	o := NewOptimistic([]Bookmark{bm("a", "a", false, 0)})

	state, err := o.ApplyOptimistic(ReorderDelta(Filter{}, 0, 3, false))
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("ApplyOptimistic() error = %v, want ErrIndexOutOfRange", err)
	}
	if len(state) != 1 || o.Pending() != 0 {
		t.Errorf("state changed after failed delta: %v pending=%d", IDs(state), o.Pending())
	}
}

func TestOptimisticRollback(t *testing.T) {
	o := NewOptimistic([]Bookmark{bm("a", "a", false, 0), bm("b", "b", false, 0)})

	if _, err := o.ApplyOptimistic(RankDelta([]RankUpdate{{"a", 1001}, {"b", 1000}})); err != nil {
		t.Fatalf("ApplyOptimistic() error = %v", err)
	}
	if got := o.State()[0].Rank(); got != 1001 {
		t.Errorf("optimistic rank = %d, want 1001", got)
	}

	back := o.Rollback()
	if back[0].CustomOrder != nil {
		t.Errorf("Rollback() kept local rank %v", *back[0].CustomOrder)
	}
}
