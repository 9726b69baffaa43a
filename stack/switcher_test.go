package stack

import "testing"

// TestHandOffPingPong bounces a value back and forth between two
// Switchers, with exactly one goroutine runnable at a time.
func TestHandOffPingPong(t *testing.T) {
	a := NewSwitcher()
	b := NewSwitcher()
	done := make(chan struct{})

	go func() {
		d := b.Await()
		for i := 0; i < 9; i++ {
			d = b.HandOff(a, Delivery{Value: d.Value.(int) + 1})
		}
		a.Deliver(Delivery{Value: d.Value.(int) + 1})
		close(done)
	}()

	d := a.HandOff(b, Delivery{Value: 0})
	for i := 0; i < 9; i++ {
		d = a.HandOff(b, Delivery{Value: d.Value.(int) + 1})
	}
	<-done

	if d.Value.(int) != 19 {
		t.Fatalf("got %v, want 19", d.Value)
	}
}

func TestCurrentThreadIDStable(t *testing.T) {
	id1 := CurrentThreadID()
	id2 := CurrentThreadID()
	if id1 != id2 {
		t.Fatalf("expected a stable id within one goroutine, got %d then %d", id1, id2)
	}
}
