// Package stack implements the Stack Switcher and Stack Slot Allocator of
// the design: the baton handoff that lets exactly one task run at a time
// on a Strand, and the bookkeeping that tracks each suspended task's
// captured stack extent.
//
// Go gives no supported way to copy a goroutine's raw stack bytes or swap
// its registers, so "stack bytes" here are the frame-chain snapshot a
// caller chooses to save (see hoststate.CaptureFrameChain); what this
// package owns is the admission and bookkeeping of that saved state,
// independent of its payload type.
package stack

// Range records where in creation order a suspended task's slot was taken,
// for reporting back through Task.CapturedStackBounds. Since every task
// here runs on its own goroutine with its own independent native stack,
// no two tasks ever contend for the same memory the way greenlets sharing
// one OS thread's C stack do — there is nothing for one task's suspension
// to "enclose" or overlap another's, so Range carries only the single
// creation-ordered slot a task occupied, not a span to be intersected
// against others.
type Range struct {
	Low, High uint64
}
