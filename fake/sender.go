// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the socket interfaces.

package fake

import (
	"bytes"
	"io"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-sock/api"
)

// Sender is a scripted api.RawConn. Each write call pops the next scripted
// step; once the script is exhausted writes succeed in full.
type Sender struct {
	mu     sync.Mutex
	steps  []Step
	calls  int
	sent   bytes.Buffer
	inbox  bytes.Buffer
	closed bool
	fd     uintptr
}

// Step scripts the outcome of one write call. A non-nil Err is returned
// with nothing transmitted. Otherwise Short > 0 truncates the transmission
// to Short bytes.
type Step struct {
	Err   error
	Short int
}

var nextFD atomic.Uint64

// NewSender creates a fake sender that plays back steps in order. Each
// sender reports a distinct fake descriptor.
func NewSender(steps ...Step) *Sender {
	return &Sender{steps: steps, fd: uintptr(1000 + nextFD.Add(1))}
}

// Write implements api.Sender.
func (s *Sender) Write(p []byte) (int, error) {
	return s.Writev([][]byte{p})
}

// Writev implements api.Sender.
func (s *Sender) Writev(bufs [][]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.closed {
		return 0, api.ErrSocketClosed
	}
	var step Step
	if len(s.steps) > 0 {
		step = s.steps[0]
		s.steps = s.steps[1:]
	}
	if step.Err != nil {
		return 0, step.Err
	}

	written := 0
	for _, b := range bufs {
		if step.Short > 0 && written+len(b) > step.Short {
			b = b[:step.Short-written]
		}
		s.sent.Write(b)
		written += len(b)
		if step.Short > 0 && written >= step.Short {
			break
		}
	}
	return written, nil
}

// Feed queues bytes to be returned by Read.
func (s *Sender) Feed(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbox.Write(p)
}

// Read implements api.RawConn. An empty inbox reads as io.EOF.
func (s *Sender) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, api.ErrSocketClosed
	}
	if s.inbox.Len() == 0 {
		return 0, io.EOF
	}
	return s.inbox.Read(p)
}

// Close implements api.RawConn.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// RawFD implements api.RawConn.
func (s *Sender) RawFD() uintptr {
	return s.fd
}

// Sent returns a copy of everything transmitted so far.
func (s *Sender) Sent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.sent.Bytes())
}

// Calls returns the number of write attempts, including failed ones.
func (s *Sender) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Closed reports whether Close was called.
func (s *Sender) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

var _ api.RawConn = (*Sender)(nil)
