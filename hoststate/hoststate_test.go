package hoststate

import (
	"errors"
	"testing"
)

func recurse(n int) *FrameChain {
	if n == 0 {
		return CaptureFrameChain(0)
	}
	return recurse(n - 1)
}

func TestCaptureFrameChainDepth(t *testing.T) {
	chain := recurse(5)
	if chain.Depth() == 0 {
		t.Fatal("expected at least one captured frame")
	}
}

func TestResolvePropagateClonesContext(t *testing.T) {
	parent := NewSnapshot()
	parent.Context["k"] = "v"

	child := Resolve(Propagate, parent, nil)
	child.Context["k"] = "changed"

	if parent.Context["k"] != "v" {
		t.Error("Propagate must clone, not alias, the parent's context map")
	}
}

func TestResolveFresh(t *testing.T) {
	parent := NewSnapshot()
	parent.Context["k"] = "v"

	child := Resolve(Fresh, parent, nil)
	if len(child.Context) != 0 {
		t.Errorf("expected an empty context for Fresh, got %v", child.Context)
	}
}

func TestResolveExplicit(t *testing.T) {
	explicit := NewSnapshot()
	explicit.Context["x"] = 1

	child := Resolve(Explicit, nil, explicit)
	if child.Context["x"] != 1 {
		t.Error("expected Explicit to use the supplied snapshot")
	}
	child.Context["x"] = 2
	if explicit.Context["x"] != 1 {
		t.Error("Explicit must clone the supplied snapshot, not alias it")
	}
}

func TestInvokeNormalReturn(t *testing.T) {
	v, err := Invoke(func() (any, error) { return 42, nil })
	if err != nil || v != 42 {
		t.Fatalf("got (%v, %v), want (42, nil)", v, err)
	}
}

func TestInvokeErrorReturn(t *testing.T) {
	want := errors.New("boom")
	_, err := Invoke(func() (any, error) { return nil, want })
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want %v", err, want)
	}
}

func TestInvokeRecoversPanic(t *testing.T) {
	_, err := Invoke(func() (any, error) { panic("kaboom") })
	if err == nil {
		t.Fatal("expected Invoke to convert a panic into an error")
	}
}

func TestInvokeRecoversErrorPanic(t *testing.T) {
	want := errors.New("panicked error")
	_, err := Invoke(func() (any, error) { panic(want) })
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want %v", err, want)
	}
}
