// Package taskerr defines the four error kinds the switch protocol can
// raise or deliver, per the propagation policy of the core design.
package taskerr

import (
	"errors"
	"fmt"
)

// Kind identifies which of the four error categories a Failure belongs to.
type Kind int

const (
	// StructuralError covers invalid parent assignment, switching to a
	// task whose resolved target lives on a different Strand, and
	// operating on an improperly initialized task.
	StructuralError Kind = iota
	// ResourceError covers stack-buffer allocation failure during a switch.
	ResourceError
	// ExitSignal is the sentinel kind used by forced termination. User
	// code may catch it to run cleanup; re-raising it or letting it
	// escape is how a task is expected to die.
	ExitSignal
	// UserFailure is any other failure raised by user code.
	UserFailure
)

func (k Kind) String() string {
	switch k {
	case StructuralError:
		return "structural-error"
	case ResourceError:
		return "resource-error"
	case ExitSignal:
		return "exit-signal"
	case UserFailure:
		return "user-failure"
	default:
		return "unknown-error"
	}
}

// Failure is a failure travelling along the throw path: a kind, an
// optional value, and an optional trace (a preformatted traceback string,
// see task.Task.StackFrameRoot).
type Failure struct {
	Kind  Kind
	Value any
	Trace string
	cause error
}

// New builds a Failure of the given kind carrying value as payload.
func New(kind Kind, value any) *Failure {
	return &Failure{Kind: kind, Value: value}
}

// Newf builds a Failure of UserFailure kind from a formatted message,
// mirroring the common case of user code raising a plain error.
func Newf(format string, args ...any) *Failure {
	return &Failure{Kind: UserFailure, Value: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying Go error as the cause of a Failure, keeping
// it reachable through Unwrap for errors.Is/errors.As.
func Wrap(kind Kind, err error) *Failure {
	if err == nil {
		return nil
	}
	return &Failure{Kind: kind, Value: err.Error(), cause: err}
}

// WithTrace returns a copy of f with its Trace field set.
func (f *Failure) WithTrace(trace string) *Failure {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Trace = trace
	return &cp
}

func (f *Failure) Error() string {
	if f == nil {
		return "<nil failure>"
	}
	if f.Value == nil {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Value)
}

// Unwrap exposes the underlying cause, if any, so errors.Is/As work across
// the throw boundary the same way they would across a normal Go call.
func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.cause
}

// Is reports whether err is a *Failure of the same Kind as f. This lets
// callers write `errors.Is(err, taskerr.New(taskerr.ExitSignal, nil))`.
func (f *Failure) Is(target error) bool {
	other, ok := target.(*Failure)
	if !ok || f == nil || other == nil {
		return false
	}
	return f.Kind == other.Kind
}

// Exit is the canonical exit-signal Failure used by forced termination.
func Exit() *Failure {
	return &Failure{Kind: ExitSignal}
}

// IsExit reports whether err is (or wraps) an exit-signal Failure.
func IsExit(err error) bool {
	var f *Failure
	return errors.As(err, &f) && f != nil && f.Kind == ExitSignal
}
