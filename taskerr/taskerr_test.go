package taskerr

import (
	"errors"
	"testing"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		kind Kind
		want string
	}{
		{StructuralError, "structural-error"},
		{ResourceError, "resource-error"},
		{ExitSignal, "exit-signal"},
		{UserFailure, "user-failure"},
		{Kind(99), "unknown-error"},
	}
	for _, c := range cases {
		if got := c.kind.String(); got != c.want {
			t.Errorf("Kind(%d).String() = %q, want %q", c.kind, got, c.want)
		}
	}
}

func TestIsExit(t *testing.T) {
	exit := Exit()
	if !IsExit(exit) {
		t.Error("expected Exit() to be recognized by IsExit")
	}
	if IsExit(Newf("boom")) {
		t.Error("did not expect a user-failure to be recognized as exit-signal")
	}
}

func TestFailureIs(t *testing.T) {
	a := New(StructuralError, "cycle")
	b := New(StructuralError, "different payload")
	if !errors.Is(a, b) {
		t.Error("expected two StructuralError failures to match via errors.Is")
	}
	if errors.Is(a, Exit()) {
		t.Error("did not expect StructuralError to match ExitSignal")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("allocation failed")
	f := Wrap(ResourceError, cause)
	if !errors.Is(f, cause) {
		t.Error("expected Wrap to preserve the underlying cause for errors.Is")
	}
	if f.Error() == "" {
		t.Error("expected a non-empty message")
	}
}

func TestWithTrace(t *testing.T) {
	f := Newf("boom")
	traced := f.WithTrace("frame1\nframe2")
	if f.Trace != "" {
		t.Error("WithTrace must not mutate the receiver")
	}
	if traced.Trace != "frame1\nframe2" {
		t.Errorf("unexpected trace: %q", traced.Trace)
	}
}
