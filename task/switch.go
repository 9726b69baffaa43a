package task

import (
	"sync"

	"tasklet/hoststate"
	"tasklet/stack"
	"tasklet/taskerr"
	"tasklet/trace"
)

// slotAllocator is the process-wide Stack Slot Allocator: one slot per
// currently suspended task, keyed by task id. Unbounded by default; the
// config package may call SetSlotBudget at startup to cap it.
var (
	slotAllocatorMu sync.RWMutex
	slotAllocator   = stack.NewAllocator[*hoststate.FrameChain](0)
)

// SetSlotBudget reconfigures the cap on simultaneously suspended tasks.
// maxSlots <= 0 means unbounded. It installs a fresh, empty allocator, so
// slots saved before the call are discarded; callers typically call this
// once at process startup, before any task switches.
func SetSlotBudget(maxSlots int) {
	slotAllocatorMu.Lock()
	defer slotAllocatorMu.Unlock()
	slotAllocator = stack.NewAllocator[*hoststate.FrameChain](maxSlots)
}

func currentSlotAllocator() *stack.Allocator[*hoststate.FrameChain] {
	slotAllocatorMu.RLock()
	defer slotAllocatorMu.RUnlock()
	return slotAllocator
}

// resolveTarget validates to as a switch target for the task currently
// running on the calling goroutine: it must share the caller's owner
// Strand and must not already be dead.
func resolveTarget(from, to *Task) error {
	if to == nil {
		return taskerr.New(taskerr.StructuralError, "switch target must not be nil")
	}
	if to.owner != from.owner {
		return taskerr.New(taskerr.StructuralError, "switch target belongs to a different Strand")
	}
	if to.Dead() {
		return taskerr.New(taskerr.StructuralError, "switch target is dead")
	}
	return nil
}

// Switch transfers control from the task currently running on the calling
// goroutine to t, delivering args/kwargs as the value t's entry point (if
// this is its first resume) or its suspended resume point receives. It
// blocks until a later switch hands control back to the caller, then
// returns what that switch delivered.
func (t *Task) Switch(args Args, kwargs Kwargs) (Args, error) {
	return t.resumeWith(stack.Delivery{Value: marshal(args, kwargs)})
}

// Throw behaves like Switch but delivers a failure instead of a value: t
// resumes with kind/value raised at its resume point instead of returned
// from it.
func (t *Task) Throw(kind taskerr.Kind, value any) (Args, error) {
	return t.ThrowFailure(taskerr.New(kind, value))
}

// ThrowFailure behaves like Throw but delivers a pre-built *taskerr.Failure
// rather than assembling one from a kind and a value, so a caller that has
// already shaped a Failure (with taskerr.Newf, taskerr.Wrap, or
// (*taskerr.Failure).WithTrace) can deliver it without Throw rebuilding it from scratch.
func (t *Task) ThrowFailure(f *taskerr.Failure) (Args, error) {
	return t.resumeWith(stack.Delivery{Failure: f})
}

// resumeWith is the switch protocol shared by Switch and Throw: it
// resolves the target, saves the caller's suspension (failing with a
// ResourceError, before anything is handed off, if the slot budget is
// exhausted), activates the target on first resume, hands off the
// delivery, blocks for the reply, then runs the post-switch housekeeping
// (restoring the caller's per-thread state, notifying the trace hook, and
// draining any cross-thread deferred destructions) before returning to
// the caller.
func (t *Task) resumeWith(out stack.Delivery) (Args, error) {
	from := Current()
	if err := resolveTarget(from, t); err != nil {
		return nil, err
	}
	if err := saveSuspension(from); err != nil {
		return nil, taskerr.Wrap(taskerr.ResourceError, err)
	}

	activateIfNeeded(t)

	out.From = from
	from.setState(StateSuspended)
	t.setState(StateRunning)
	t.owner.setCurrent(t)

	in := from.switcher.HandOff(t.switcher, out)

	// By the time HandOff returns, some later switch has handed control
	// back to `from`: restore its bookkeeping before yielding the result.
	from.setState(StateRunning)
	from.owner.setCurrent(from)
	restoreSuspension(from)

	observerErr := notifySwitch(from, in)
	from.owner.drainDeferred()

	if pending := from.takePendingObserverErr(); pending != nil {
		return nil, pending
	}
	if observerErr != nil {
		from.setPendingObserverErr(observerErr)
	}

	if in.Failure != nil {
		return nil, in.Failure
	}
	args, _ := unmarshal(in.Value)
	return args, nil
}

// saveSuspension records t's current frame chain in its Snapshot (no other
// snapshot field is written at suspension) and admits a slot for it in the
// allocator, returning the allocator's error if the slot budget is
// exhausted.
func saveSuspension(t *Task) error {
	t.mu.Lock()
	frames := hoststate.CaptureFrameChain(4)
	t.snapshot.Frames = frames
	t.mu.Unlock()
	return currentSlotAllocator().Save(t.id, stack.Range{Low: t.seq, High: t.seq + 1}, frames)
}

// restoreSuspension releases t's slot: once control has returned to t it
// is no longer suspended, so its captured region is freed no later than
// the switch completion that resumed it.
func restoreSuspension(t *Task) {
	currentSlotAllocator().Release(t.id)
}

// notifySwitch reports the just-completed switch to the resuming Strand's
// tracing observer, if any: origin is whoever delivered in, target is the
// task now running again.
func notifySwitch(target *Task, in stack.Delivery) error {
	event := trace.EventSwitch
	if in.Failure != nil {
		event = trace.EventThrow
	}
	return trace.Notify(target.owner.ID(), event, in.From, target)
}
