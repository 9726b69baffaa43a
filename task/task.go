// Package task implements the task object, per-thread state, switch
// protocol, and lifecycle/cleanup of a stackful coroutine runtime modeled
// on Python's greenlet library.
//
// This Go rendition gives each Task a dedicated goroutine as its "native
// call stack" and realizes switching as a strict baton handoff (see the
// stack package) rather than manual register/stack-pointer manipulation,
// which Go does not expose to safe code.
package task

import (
	"sync"
	"sync/atomic"

	"tasklet/hoststate"
	"tasklet/stack"
	"tasklet/taskerr"
)

// State is one of the four states a task may be in.
type State int32

const (
	StateUnstarted State = iota
	StateSuspended
	StateRunning
	StateDead
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Entry is a task's user-provided entry point: invoked the first time the
// task is switched to, with the first delivered value; its return value
// becomes the argument of the switch back to the nearest live task up its
// parent chain. A task that switched into this one directly but is not an
// ancestor is not guaranteed to regain control when this task dies —
// matching greenlet's own documented behavior, where switching to a
// non-ancestor greenlet can strand the caller if it dies without
// switching back first.
type Entry func(first Args, firstKwargs Kwargs) (Args, error)

// Task is the module's user-visible coroutine handle.
type Task struct {
	id  uint64
	seq uint64 // creation sequence, feeds stack.Range ordering

	entry    Entry
	switcher *stack.Switcher
	owner    *Strand

	mu       sync.Mutex
	parent   *Task
	state    State
	started  bool
	dead     atomic.Bool
	snapshot *hoststate.Snapshot

	// forcedReplyTo overrides the usual parent-chain termination target
	// for exactly one death: set by forceTerminate right before it throws
	// an exit signal into a suspended task, so that task's immediate
	// death (the common case for cleanup code that just lets the signal
	// propagate) hands control straight back to Destroy's caller instead
	// of wherever the parent chain would otherwise resolve to.
	forcedReplyTo *Task

	// pendingObserverErr holds a tracing-observer failure absorbed at a
	// prior switch, to be delivered to this task's own code the next time
	// it has an opportunity (its next resume).
	pendingObserverErr error

	// refs tracks outstanding user-held references, for Destroy's
	// "decrement the last reference" semantics.
	refs atomic.Int32
}

var nextID atomic.Uint64

func nextTaskID() uint64 {
	return nextID.Add(1)
}

func newFreshSnapshot() *hoststate.Snapshot {
	return hoststate.NewSnapshot()
}

// createConfig collects the options passed to Create.
type createConfig struct {
	parent   *Task
	mode     hoststate.ContextMode
	explicit *hoststate.Snapshot
}

// Option configures a new Task at Create time.
type Option func(*createConfig)

// WithParent overrides the default parent (the calling task) with p.
func WithParent(p *Task) Option {
	return func(c *createConfig) { c.parent = p }
}

// WithFreshContext starts the new task with an empty host-state snapshot
// instead of propagating the creator's.
func WithFreshContext() Option {
	return func(c *createConfig) { c.mode = hoststate.Fresh }
}

// WithExplicitContext seeds the new task's host-state snapshot from snap
// instead of propagating the creator's.
func WithExplicitContext(snap *hoststate.Snapshot) Option {
	return func(c *createConfig) {
		c.mode = hoststate.Explicit
		c.explicit = snap
	}
}

// Create allocates an unstarted task with the given entry point. By
// default its parent is the task currently running on the calling
// goroutine and its host-state snapshot propagates the parent's.
func Create(entry Entry, opts ...Option) *Task {
	cfg := createConfig{mode: hoststate.Propagate}
	for _, opt := range opts {
		opt(&cfg)
	}

	parent := cfg.parent
	if parent == nil {
		parent = Current()
	}

	t := &Task{
		id:       nextTaskID(),
		seq:      parent.owner.nextCreationSeq(),
		entry:    entry,
		state:    StateUnstarted,
		owner:    parent.owner,
		parent:   parent,
		switcher: stack.NewSwitcher(),
	}
	t.snapshot = hoststate.Resolve(cfg.mode, parent.currentSnapshot(), cfg.explicit)
	t.refs.Store(1)
	return t
}

func (t *Task) currentSnapshot() *hoststate.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot
}

// ID returns the task's stable identity.
func (t *Task) ID() uint64 { return t.id }

// Owner returns the task's owner Strand.
func (t *Task) Owner() *Strand { return t.owner }

// Parent returns the task's current parent, or nil for a Strand's main
// task.
func (t *Task) Parent() *Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.parent
}

func (t *Task) getState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Dead reports whether the task's entry point has returned or its forced
// termination has run to completion.
func (t *Task) Dead() bool { return t.dead.Load() }

func (t *Task) markDead() {
	t.dead.Store(true)
	t.setState(StateDead)
}

// Started reports whether the task has ever been switched to.
func (t *Task) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// IsCurrent reports whether t is the task currently running on its owner
// Strand.
func (t *Task) IsCurrent() bool {
	return t.owner.Current() == t
}

// SetParent reassigns t's parent, rejected with a StructuralError failure
// if newParent is on a different owner Strand or would introduce a cycle.
func (t *Task) SetParent(newParent *Task) error {
	if newParent == nil {
		return taskerr.New(taskerr.StructuralError, "new parent must not be nil")
	}
	if newParent.owner != t.owner {
		return taskerr.New(taskerr.StructuralError, "new parent must share the owner Strand")
	}
	for a := newParent; a != nil; a = a.Parent() {
		if a == t {
			return taskerr.New(taskerr.StructuralError, "parent assignment would introduce a cycle")
		}
	}
	t.mu.Lock()
	t.parent = newParent
	t.mu.Unlock()
	return nil
}

// StackFrameRoot returns the task's saved frame-chain root when suspended,
// the live root when running on the calling goroutine, or nil otherwise.
// The suspended case reads through the slot allocator rather than a copy
// cached on the task, so a task whose slot has been released reports no
// captured frame instead of stale state.
func (t *Task) StackFrameRoot() *hoststate.FrameChain {
	if v, ok := binding.Load(stack.CurrentThreadID()); ok && v.(*Task) == t {
		return hoststate.CaptureFrameChain(1)
	}
	if t.getState() != StateSuspended {
		return nil
	}
	frames, _ := currentSlotAllocator().Load(t.id)
	return frames
}

// CapturedStackBounds returns the [low, high) creation-ordered range
// recorded for t's most recent suspension, and whether one exists.
func (t *Task) CapturedStackBounds() (stack.Range, bool) {
	return currentSlotAllocator().RangeOf(t.id)
}

func (t *Task) takePendingObserverErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	err := t.pendingObserverErr
	t.pendingObserverErr = nil
	return err
}

func (t *Task) setPendingObserverErr(err error) {
	t.mu.Lock()
	t.pendingObserverErr = err
	t.mu.Unlock()
}

// Retain increments t's user-visible reference count. Create starts a task
// with a reference count of one; callers that hand the same *Task to more
// than one owner should Retain for each additional owner so that Destroy's
// "decrement the last reference" semantics hold.
func (t *Task) Retain() {
	t.refs.Add(1)
}

// Destroy decrements the last reference to t. If that drops the count to
// zero and t is a started, suspended task, it triggers forced termination,
// either immediately (if called on t's owner Strand) or by enqueuing t for
// deferred destruction (if called from a different Strand's goroutine).
func (t *Task) Destroy() {
	if t.refs.Add(-1) > 0 {
		return
	}
	if t.Dead() || !t.Started() || t.getState() != StateSuspended {
		return
	}

	if running := Current(); running != nil && running.owner == t.owner {
		forceTerminate(t)
		return
	}
	t.owner.enqueueDeferred(t)
}
