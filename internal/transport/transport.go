// Package transport
// Author: momentics <momentics@gmail.com>
//
// Platform-independent facade over blocking stream sockets. The descriptor
// lifecycle and the raw syscalls live in the build-tagged files; callers only
// see Socket, which satisfies api.RawConn.

package transport

import (
	"fmt"
	"net/netip"
	"sync/atomic"

	"github.com/momentics/hioload-sock/api"
)

// Socket is a connected, blocking stream socket owned by a single connection.
type Socket struct {
	fd     int
	closed atomic.Bool
}

var _ api.RawConn = (*Socket)(nil)

// Dial creates a stream socket and connects it to ip:port. ip must be an
// IPv4 or IPv6 literal.
func Dial(ip string, port int) (*Socket, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeInvalidArgument, "parse address", err).
			WithContext("ip", ip)
	}
	if port <= 0 || port > 0xFFFF {
		return nil, api.WrapError(api.ErrCodeInvalidArgument, "parse address",
			fmt.Errorf("%w: port %d", api.ErrInvalidArgument, port))
	}
	return dial(addr.Unmap(), port)
}

// FromFD adopts an already connected descriptor.
func FromFD(fd int) *Socket {
	return &Socket{fd: fd}
}

// RawFD returns the underlying OS-level file descriptor.
func (s *Socket) RawFD() uintptr {
	return uintptr(s.fd)
}

// Closed reports whether Close has been called.
func (s *Socket) Closed() bool {
	return s.closed.Load()
}

// Close releases the descriptor. Repeated calls are no-ops.
func (s *Socket) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return closeFD(s.fd)
}
