// File: core/framing/reader.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking consumption primitives. Every primitive either completes with
// the currently buffered bytes or reports ok == false without touching the
// accumulator, so an event loop can call them until they run dry.

package framing

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/momentics/hioload-sock/core/buffer"
)

// ErrFrameTooLarge is returned when a block header announces a payload above
// the reader's configured limit.
var ErrFrameTooLarge = errors.New("framing: frame exceeds max payload")

// BlockFunc receives one complete block payload. payload aliases the
// accumulator storage and is only valid for the duration of the call.
type BlockFunc[C, R any] func(payload []byte, n int, ctx C) R

// Reader consumes framed data from a single accumulator.
type Reader struct {
	acc         *buffer.Accumulator
	headerWidth int
	maxPayload  int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithHeaderWidth sets the block header width (2 or 4). Invalid widths are
// ignored and the default is kept.
func WithHeaderWidth(width int) ReaderOption {
	return func(r *Reader) {
		if ValidHeaderWidth(width) {
			r.headerWidth = width
		}
	}
}

// WithMaxPayload caps the payload length accepted by ReadBlock. Zero means
// no cap beyond what the header width can express.
func WithMaxPayload(n int) ReaderOption {
	return func(r *Reader) {
		if n >= 0 {
			r.maxPayload = n
		}
	}
}

// NewReader binds a Reader to acc.
func NewReader(acc *buffer.Accumulator, opts ...ReaderOption) *Reader {
	r := &Reader{acc: acc, headerWidth: DefaultHeaderWidth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HeaderWidth returns the configured block header width.
func (r *Reader) HeaderWidth() int {
	return r.headerWidth
}

// Buffered returns the number of unread bytes.
func (r *Reader) Buffered() int {
	return r.acc.Len()
}

// ReadExact returns a copy of the next n bytes and consumes them.
func (r *Reader) ReadExact(n int) ([]byte, bool) {
	if n < 0 || r.acc.Len() < n {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, r.acc.Bytes())
	r.acc.Advance(n)
	return out, true
}

// ReadUntil returns a copy of the bytes before the first occurrence of sep
// and consumes them together with sep.
func (r *Reader) ReadUntil(sep []byte) ([]byte, bool) {
	unread := r.acc.Bytes()
	if len(unread) < len(sep) {
		return nil, false
	}
	for i := 0; i <= len(unread)-len(sep); i++ {
		if bytes.Equal(unread[i:i+len(sep)], sep) {
			out := make([]byte, i)
			copy(out, unread[:i])
			r.acc.Advance(i + len(sep))
			return out, true
		}
	}
	return nil, false
}

// PendingLen decodes the header of the next block without consuming it.
func (r *Reader) PendingLen() (int, bool) {
	unread := r.acc.Bytes()
	if len(unread) < r.headerWidth {
		return 0, false
	}
	n, err := DecodeHeader(r.headerWidth, unread)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextBlock consumes one complete block and returns a copy of its payload.
func (r *Reader) NextBlock() ([]byte, bool, error) {
	return ReadBlock(r, copyPayload, struct{}{})
}

func copyPayload(payload []byte, n int, _ struct{}) []byte {
	out := make([]byte, n)
	copy(out, payload)
	return out
}

// ReadBlock dispatches the next complete block to fn and forwards its
// result. When the header or the body is not fully buffered it returns
// ok == false and leaves the accumulator untouched, so the same header is
// decoded again on the next call. Once fn has been invoked the block is
// consumed, whatever fn returns. If fn releases the accumulator there is
// nothing left to consume.
func ReadBlock[C, R any](r *Reader, fn BlockFunc[C, R], ctx C) (res R, ok bool, err error) {
	n, ok := r.PendingLen()
	if !ok {
		return res, false, nil
	}
	if r.maxPayload > 0 && n > r.maxPayload {
		return res, false, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, r.maxPayload)
	}
	total := r.headerWidth + n
	if r.acc.Len() < total {
		return res, false, nil
	}

	payload := r.acc.Bytes()[r.headerWidth:total:total]
	defer func() {
		if !r.acc.Released() {
			r.acc.Advance(total)
		}
	}()
	return fn(payload, n, ctx), true, nil
}
