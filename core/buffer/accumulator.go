// File: core/buffer/accumulator.go
// Package buffer
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-owner byte accumulator with independent write and read cursors.
// Incoming transport chunks are appended at the write side while the framing
// layer consumes from the read side. Storage is reused in place whenever the
// slack after the write cursor or the consumed prefix can hold new data, and
// reallocated to the exact required size otherwise.

package buffer

// Accumulator buffers bytes that the framing layer has not consumed yet.
//
// Invariant: 0 <= read <= size <= len(storage). Unread content is
// storage[read:size]. The zero value is an empty, usable accumulator.
//
// An Accumulator is not safe for concurrent use; it belongs to exactly one
// connection and is driven from the goroutine that owns that connection.
type Accumulator struct {
	storage  []byte
	size     int
	read     int
	released bool
}

// New returns an empty accumulator with zero capacity.
func New() *Accumulator {
	return &Accumulator{}
}

// Append adds p to the logical end of the unread content.
//
// Growth policy, in order:
//  1. p fits after the write cursor: copy in place.
//  2. p fits once the consumed prefix is discarded: move unread bytes to
//     offset 0, then copy p after them.
//  3. otherwise: allocate exactly unread+len(p) bytes and copy both.
func (a *Accumulator) Append(p []byte) {
	a.mustBeLive("append")
	n := len(p)
	if n == 0 {
		return
	}
	unread := a.size - a.read
	capacity := len(a.storage)

	switch {
	case a.size+n <= capacity:
		copy(a.storage[a.size:], p)
		a.size += n
	case unread+n <= capacity:
		copy(a.storage, a.storage[a.read:a.size])
		copy(a.storage[unread:], p)
		a.read = 0
		a.size = unread + n
	default:
		grown := make([]byte, unread+n)
		copy(grown, a.storage[a.read:a.size])
		copy(grown[unread:], p)
		a.storage = grown
		a.read = 0
		a.size = unread + n
	}
}

// Len returns the number of unread bytes.
func (a *Accumulator) Len() int {
	return a.size - a.read
}

// Cap returns the capacity of the backing storage.
func (a *Accumulator) Cap() int {
	return len(a.storage)
}

// Bytes returns a view of the unread content. The view aliases internal
// storage and is invalidated by the next Append, Advance or Release.
func (a *Accumulator) Bytes() []byte {
	return a.storage[a.read:a.size]
}

// Advance consumes n unread bytes. n outside [0, Len()] is a programming
// error and panics.
func (a *Accumulator) Advance(n int) {
	a.mustBeLive("advance")
	if n < 0 || n > a.size-a.read {
		panic("buffer: advance out of range")
	}
	a.read += n
}

// Release drops the backing storage. The accumulator must not be used
// afterwards; a second Release is a no-op.
func (a *Accumulator) Release() {
	if a.released {
		return
	}
	a.storage = nil
	a.size = 0
	a.read = 0
	a.released = true
}

// Released reports whether Release has been called.
func (a *Accumulator) Released() bool {
	return a.released
}

func (a *Accumulator) mustBeLive(op string) {
	if a.released {
		panic("buffer: " + op + " after release")
	}
}
