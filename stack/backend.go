package stack

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Backend names the current thread of execution for Strand identity. Go's
// runtime does not expose the native thread ID to user goroutines
// portably, so the per-GOOS files in this package pick the best available
// primitive at init time; ThreadID need not be a real kernel TID, only
// stable for the life of the calling goroutine and distinct across
// goroutines that should be distinct Strands.
type Backend interface {
	ThreadID() uint64
}

// activeBackend is selected by exactly one of the build-tag'd files in
// this package (backend_linux.go, backend_fallback.go).
var activeBackend Backend

// CurrentThreadID returns the active Backend's identity for the calling
// goroutine.
func CurrentThreadID() uint64 {
	return activeBackend.ThreadID()
}

// goroutineBackend is the portable fallback: it parses the numeric
// goroutine id out of the header line of runtime.Stack(buf, false), the
// same trick small goroutine-local-storage helpers use when no faster
// platform primitive is available.
type goroutineBackend struct{}

func (goroutineBackend) ThreadID() uint64 {
	return currentGoroutineID()
}

func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGoroutineID(string(buf[:n]))
}

func parseGoroutineID(header string) uint64 {
	const prefix = "goroutine "
	if !strings.HasPrefix(header, prefix) {
		return 0
	}
	rest := header[len(prefix):]
	end := strings.IndexByte(rest, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(rest[:end], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func unsupportedPlatform() string {
	return fmt.Sprintf("stack: no native thread-id backend for %s/%s, using goroutine id", runtime.GOOS, runtime.GOARCH)
}
