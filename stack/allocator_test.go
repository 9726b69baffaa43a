package stack

import "testing"

func TestAllocatorSaveLoadRelease(t *testing.T) {
	a := NewAllocator[string](0)

	if err := a.Save(1, Range{Low: 0, High: 10}, "payload-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, ok := a.Load(1)
	if !ok || v != "payload-1" {
		t.Fatalf("got (%q, %v), want (\"payload-1\", true)", v, ok)
	}

	a.Release(1)
	if _, ok := a.Load(1); ok {
		t.Fatal("expected slot to be gone after Release")
	}
}

func TestAllocatorResaveReplacesPriorSlot(t *testing.T) {
	a := NewAllocator[string](0)
	_ = a.Save(1, Range{Low: 0, High: 10}, "first")
	_ = a.Save(1, Range{Low: 20, High: 30}, "second")

	v, ok := a.Load(1)
	if !ok || v != "second" {
		t.Fatalf("got (%q, %v), want (\"second\", true)", v, ok)
	}
	rng, ok := a.RangeOf(1)
	if !ok || rng != (Range{Low: 20, High: 30}) {
		t.Fatalf("got %v, want the most recently saved range", rng)
	}
}

func TestAllocatorSlotBudget(t *testing.T) {
	a := NewAllocator[int](2)
	if err := a.Save(1, Range{}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Save(2, Range{}, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Save(3, Range{}, 3); err == nil {
		t.Fatal("expected ErrSlotsExhausted on the third slot")
	}

	// Resaving an existing id must not count against the budget.
	if err := a.Save(1, Range{}, 99); err != nil {
		t.Fatalf("resaving an existing slot should not hit the budget: %v", err)
	}
}

func TestAllocatorLen(t *testing.T) {
	a := NewAllocator[int](0)
	_ = a.Save(1, Range{}, 1)
	_ = a.Save(2, Range{}, 2)
	if a.Len() != 2 {
		t.Fatalf("got Len()=%d, want 2", a.Len())
	}
	a.Release(1)
	if a.Len() != 1 {
		t.Fatalf("got Len()=%d, want 1", a.Len())
	}
}
