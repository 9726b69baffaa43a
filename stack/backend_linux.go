//go:build linux

package stack

// linuxBackend identifies the calling goroutine by its goroutine id, as
// goroutineBackend does. The kernel thread id is not used: the Go scheduler
// moves a goroutine between OS threads and runs many goroutines on one
// thread, so it is neither stable for a goroutine's life nor distinct
// across goroutines.
type linuxBackend struct{}

func (linuxBackend) ThreadID() uint64 {
	return currentGoroutineID()
}

func init() {
	activeBackend = linuxBackend{}
}
