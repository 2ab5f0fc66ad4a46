// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness reactor used by the socket read loop.

package reactor

import "time"

// EventReactor reports read readiness for registered descriptors.
type EventReactor interface {
	// Register starts watching fd for readability and peer hangup.
	Register(fd uintptr) error

	// Unregister stops watching fd.
	Unregister(fd uintptr) error

	// Wait blocks until events are available or timeout elapses and writes
	// them into events. A negative timeout blocks indefinitely. An
	// interrupted wait returns 0 events and no error.
	Wait(events []Event, timeout time.Duration) (n int, err error)

	// Close releases the reactor descriptor.
	Close() error
}

// Event describes readiness of one descriptor.
type Event struct {
	Fd       uintptr
	Readable bool
	Hangup   bool
}

func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		ms = 1
	}
	return int(ms)
}
