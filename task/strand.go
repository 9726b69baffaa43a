package task

import (
	"sync"

	"tasklet/stack"
)

// Strand is this module's stand-in for an OS thread: a registry entry
// holding the current running task, the implicit main task, and a
// deferred-destruction queue for tasks released from a different Strand
// than their own.
type Strand struct {
	id uint64 // identity, fixed at creation

	mu        sync.Mutex
	main      *Task
	current   *Task
	deferred  []*Task // deferred-destruction queue; producers append, owner drains
	nextSeq   uint64  // creation-sequence counter, feeds stack.Range ordering
	destroyed bool
}

// binding maps a real goroutine id to the one Task permanently running on
// it: a task's trampoline goroutine (or, for a main task, the first
// goroutine that ever asked for Current() on a given Strand) is bound for
// its entire life, so Current() is an O(1) lookup rather than a scan.
var binding sync.Map // map[uint64]*Task

var strands = struct {
	mu   sync.Mutex
	list []*Strand
}{}

// Current returns the task presently running on the calling goroutine,
// creating a new Strand and its implicit main task on first use.
func Current() *Task {
	id := stack.CurrentThreadID()
	if v, ok := binding.Load(id); ok {
		return v.(*Task)
	}
	return bootstrapStrand(id)
}

func bootstrapStrand(goroutineID uint64) *Task {
	s := &Strand{id: goroutineID}
	main := &Task{
		id:       nextTaskID(),
		seq:      s.nextCreationSeq(),
		state:    StateRunning,
		started:  true,
		owner:    s,
		switcher: stack.NewSwitcher(),
	}
	main.snapshot = newFreshSnapshot()
	s.main = main
	s.current = main

	strands.mu.Lock()
	strands.list = append(strands.list, s)
	strands.mu.Unlock()

	binding.Store(goroutineID, main)
	return main
}

func (s *Strand) nextCreationSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// ID returns the Strand's registry identity (its bootstrapping goroutine
// id), used as the key for per-Strand tracing observers.
func (s *Strand) ID() uint64 { return s.id }

// MainTask returns the Strand's implicit root task.
func (s *Strand) MainTask() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.main
}

// Current returns the task currently running on this Strand.
func (s *Strand) Current() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Strand) setCurrent(t *Task) {
	s.mu.Lock()
	s.current = t
	s.mu.Unlock()
}

// enqueueDeferred appends t to the deferred-destruction queue; any
// goroutine may call this (it is the sole cross-thread channel into a
// Strand's bookkeeping), but only the owner Strand drains it.
func (s *Strand) enqueueDeferred(t *Task) {
	s.mu.Lock()
	s.deferred = append(s.deferred, t)
	s.mu.Unlock()
}

// drainDeferred runs forced termination for every task queued for
// cross-thread release, called after every switch completion on this
// Strand. Must only be called from a goroutine currently running on this
// Strand.
func (s *Strand) drainDeferred() {
	s.mu.Lock()
	pending := s.deferred
	s.deferred = nil
	s.mu.Unlock()

	for _, t := range pending {
		forceTerminate(t)
	}
}

// pendingCount reports the number of tasks awaiting deferred destruction.
func (s *Strand) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deferred)
}

// PendingCleanupCount returns the total number of tasks across every
// Strand in the process that are queued for cross-thread deferred
// destruction but have not yet been drained.
func PendingCleanupCount() int {
	strands.mu.Lock()
	list := append([]*Strand(nil), strands.list...)
	strands.mu.Unlock()

	total := 0
	for _, s := range list {
		total += s.pendingCount()
	}
	return total
}

// TotalStrands returns the number of Strands (Go's analogue of "OS
// threads") that have ever been bootstrapped in this process.
func TotalStrands() int {
	strands.mu.Lock()
	defer strands.mu.Unlock()
	return len(strands.list)
}
