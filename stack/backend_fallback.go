//go:build !linux

package stack

import "log"

func init() {
	activeBackend = goroutineBackend{}
	log.Print(unsupportedPlatform())
}
