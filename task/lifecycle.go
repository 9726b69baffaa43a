package task

import (
	"tasklet/hoststate"
	"tasklet/stack"
	"tasklet/taskerr"
)

// activateIfNeeded spawns t's dedicated trampoline goroutine the first
// time it is ever switched into: the goroutine blocks immediately waiting
// for the first Delivery, then runs t.entry to completion.
func activateIfNeeded(t *Task) {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	go trampoline(t)
}

// trampoline is the body of every non-main task's dedicated goroutine: it
// binds the goroutine's identity to t for the goroutine's lifetime, waits
// for its first resume, runs the entry point (or, if the first resume is
// itself an exit signal, skips straight to termination), and hands the
// result up the parent chain.
func trampoline(t *Task) {
	id := stack.CurrentThreadID()
	binding.Store(id, t)
	defer binding.Delete(id)

	first := t.switcher.Await()

	var result Args
	var failure error

	if first.Failure != nil && taskerr.IsExit(first.Failure) {
		failure = first.Failure
	} else {
		args, kwargs := unmarshal(first.Value)
		value, err := hoststate.Invoke(func() (any, error) {
			return t.entry(args, kwargs)
		})
		switch {
		case err != nil:
			failure = toFailure(err)
		case value != nil:
			if a, ok := value.(Args); ok {
				result = a
			}
		}
	}

	finishTermination(t, result, failure)
}

// toFailure normalizes an arbitrary error returned from an entry point
// into a *taskerr.Failure, preserving one already in that shape.
func toFailure(err error) error {
	if f, ok := err.(*taskerr.Failure); ok {
		return f
	}
	return taskerr.Wrap(taskerr.UserFailure, err)
}

// finishTermination marks t dead, releases its slot, and delivers result
// or failure to the nearest live task up t's parent chain, completing
// that task's outstanding HandOff. Dead ancestors are skipped; the walk
// always terminates at the owner Strand's main task, which is never dead
// while the Strand exists. An exit signal that ended t is not passed on:
// the receiving task gets a plain return with no value.
func finishTermination(t *Task, result Args, failure error) {
	t.markDead()
	currentSlotAllocator().Release(t.id)

	t.mu.Lock()
	replyTo := t.forcedReplyTo
	t.forcedReplyTo = nil
	t.mu.Unlock()

	if replyTo == nil {
		replyTo = t.Parent()
		for replyTo != nil && replyTo.Dead() {
			replyTo = replyTo.Parent()
		}
	}
	if replyTo == nil {
		replyTo = t.owner.MainTask()
	}

	out := stack.Delivery{From: t}
	if failure != nil && !taskerr.IsExit(failure) {
		out.Failure = failure
	} else {
		out.Value = marshal(result, nil)
	}

	replyTo.setState(StateRunning)
	t.owner.setCurrent(replyTo)
	replyTo.switcher.Deliver(out)
}

// forceTerminate raises an exit signal in a suspended task and drives it
// to completion, freeing its resources whether or not it has ever started.
// Must only be called from a goroutine already running on t's owner
// Strand. Records the calling task as t's
// forcedReplyTo so that, in the common case where t's cleanup simply lets
// the exit signal propagate, the caller regains control immediately
// rather than waiting on wherever t's parent chain would otherwise send
// it.
func forceTerminate(t *Task) {
	if t.Dead() {
		return
	}
	if !t.Started() {
		t.markDead()
		currentSlotAllocator().Release(t.id)
		return
	}

	caller := Current()
	t.mu.Lock()
	t.forcedReplyTo = caller
	t.mu.Unlock()

	// Errors other than the exit signal itself (e.g. cleanup code raising
	// its own failure, or re-raising) have nowhere meaningful left to go:
	// the caller is tearing this task down, not resuming it for a value.
	_, _ = t.ThrowFailure(taskerr.Exit())
}
