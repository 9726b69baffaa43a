// Package trace implements the tracing hook for task switches: a single
// settable observer per Strand, notified after every completed switch
// with the (origin, target) pair. Filtered, writer-backed, and never
// allowed to disturb the call it observes.
package trace

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Event identifies which kind of resume a Notify call reports.
type Event int

const (
	// EventSwitch marks a successful resume delivering a value.
	EventSwitch Event = iota
	// EventThrow marks a resume that delivers a failure instead.
	EventThrow
)

func (e Event) String() string {
	switch e {
	case EventSwitch:
		return "switch"
	case EventThrow:
		return "throw"
	default:
		return "unknown"
	}
}

// Observer is notified after every completed switch. origin and target are
// opaque (typically *task.Task); trace does not depend on the task package
// so that the tracing hook can be reused by anything that switches.
type Observer func(event Event, origin, target any)

var registry struct {
	sync.RWMutex
	byStrand map[uint64]Observer
}

func init() {
	registry.byStrand = make(map[uint64]Observer)
}

// SetObserver installs obs as the sole observer for the given Strand
// identity, replacing any previous one. Passing a nil Observer disables
// tracing for that Strand.
func SetObserver(strandID uint64, obs Observer) {
	registry.Lock()
	defer registry.Unlock()
	if obs == nil {
		delete(registry.byStrand, strandID)
		return
	}
	registry.byStrand[strandID] = obs
}

// GetObserver returns the currently installed Observer for strandID, or
// nil if none is set.
func GetObserver(strandID uint64) Observer {
	registry.RLock()
	defer registry.RUnlock()
	return registry.byStrand[strandID]
}

// Notify invokes the Strand's observer, if any, absorbing any panic it
// raises and returning it as an error instead of letting it escape —
// observer failures never corrupt the switch. The caller (task.Switch) is
// responsible for redelivering the returned error to the current task on
// its next opportunity.
func Notify(strandID uint64, event Event, origin, target any) (observerErr error) {
	obs := GetObserver(strandID)
	if obs == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			observerErr = fmt.Errorf("trace: observer panicked: %v", r)
		}
	}()
	obs(event, origin, target)
	return nil
}

// WriterObserver returns an Observer that renders each event as one line
// of text to w (os.Stderr if w is nil), filtered by matches: when matches
// is non-nil, an event is only logged if matches(origin, target) is true.
func WriterObserver(w io.Writer, matches func(origin, target any) bool) Observer {
	if w == nil {
		w = os.Stderr
	}
	var mu sync.Mutex
	return func(event Event, origin, target any) {
		if matches != nil && !matches(origin, target) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "[TRACE] %s origin=%v target=%v\n", event, origin, target)
	}
}
