//go:build !unix

// File: internal/transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without BSD sockets in x/sys/unix.

package transport

import (
	"net/netip"

	"github.com/momentics/hioload-sock/api"
)

func dial(netip.Addr, int) (*Socket, error) {
	return nil, api.ErrNotSupported
}

func (s *Socket) Read([]byte) (int, error)     { return 0, api.ErrNotSupported }
func (s *Socket) Write([]byte) (int, error)    { return 0, api.ErrNotSupported }
func (s *Socket) Writev([][]byte) (int, error) { return 0, api.ErrNotSupported }

func closeFD(int) error { return api.ErrNotSupported }
