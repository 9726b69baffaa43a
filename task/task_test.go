package task

import "testing"

func TestCreateDefaultsToCurrentParent(t *testing.T) {
	root := Current()
	child := Create(func(a Args, k Kwargs) (Args, error) { return nil, nil })

	if child.Parent() != root {
		t.Fatalf("expected new task's parent to default to the calling task")
	}
	if child.Owner() != root.Owner() {
		t.Fatal("expected new task to share its parent's owner Strand")
	}
	if child.Started() {
		t.Fatal("expected a freshly created task to be unstarted")
	}
	if child.Dead() {
		t.Fatal("expected a freshly created task to not be dead")
	}
}

func TestCreateWithExplicitParent(t *testing.T) {
	root := Current()
	other := Create(func(a Args, k Kwargs) (Args, error) { return nil, nil }, WithParent(root))
	grandchild := Create(func(a Args, k Kwargs) (Args, error) { return nil, nil }, WithParent(other))

	if grandchild.Parent() != other {
		t.Fatal("expected WithParent to override the default parent")
	}
}

func TestSetParentRejectsCrossStrand(t *testing.T) {
	root := Current()
	a := Create(func(Args, Kwargs) (Args, error) { return nil, nil })

	done := make(chan *Task, 1)
	go func() {
		done <- Current()
	}()
	other := <-done

	if err := a.SetParent(other); err == nil {
		t.Fatal("expected SetParent to reject a task from a different Strand")
	}
	_ = root
}

func TestSetParentRejectsCycle(t *testing.T) {
	root := Current()
	a := Create(func(Args, Kwargs) (Args, error) { return nil, nil }, WithParent(root))
	b := Create(func(Args, Kwargs) (Args, error) { return nil, nil }, WithParent(a))

	if err := a.SetParent(b); err == nil {
		t.Fatal("expected SetParent to reject a cycle")
	}
}

func TestSwitchRunsEntryAndReturnsResult(t *testing.T) {
	var sawArg any
	child := Create(func(a Args, k Kwargs) (Args, error) {
		if len(a) > 0 {
			sawArg = a[0]
		}
		return Args{"done"}, nil
	})

	result, err := child.Switch(Args{"hello"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawArg != "hello" {
		t.Fatalf("expected entry to observe the first switch's argument, got %v", sawArg)
	}
	if len(result) != 1 || result[0] != "done" {
		t.Fatalf("unexpected result: %v", result)
	}
	if !child.Dead() {
		t.Fatal("expected the task to be dead after its entry returned")
	}
}

func TestRetainDestroyKeepsTaskAliveUntilLastRelease(t *testing.T) {
	var child *Task
	child = Create(func(a Args, k Kwargs) (Args, error) {
		_, err := child.Parent().Switch(Args{"yielded"}, nil)
		if err != nil {
			return nil, err
		}
		return Args{"finished"}, nil
	})

	result, err := child.Switch(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error on first switch: %v", err)
	}
	if len(result) != 1 || result[0] != "yielded" {
		t.Fatalf("expected the task to yield once before completing, got %v", result)
	}

	child.Retain()
	child.Destroy()
	if child.Dead() {
		t.Fatal("task should survive while a reference remains outstanding")
	}

	child.Destroy()
	if !child.Dead() {
		t.Fatal("expected the last Destroy to force the task to termination")
	}
}
