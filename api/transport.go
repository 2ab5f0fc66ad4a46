// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Socket abstractions consumed by the framing layer and exposed by the
// transport package.

package api

// Sender is the outbound half of a stream socket. Write transmits a single
// contiguous range, Writev transmits a scatter/gather list as one logical
// write. Both return the raw transport error so callers can tell transient
// signals (see IsTransient) from fatal ones.
type Sender interface {
	Write(p []byte) (n int, err error)
	Writev(bufs [][]byte) (n int, err error)
}

// RawConn is a full-duplex blocking stream socket backed by an OS descriptor.
type RawConn interface {
	Sender

	// Read reads the next available chunk. A closed peer yields io.EOF.
	Read(p []byte) (n int, err error)

	// Close releases the descriptor. Repeated calls are no-ops.
	Close() error

	// RawFD returns the underlying OS-level file descriptor.
	RawFD() uintptr
}
