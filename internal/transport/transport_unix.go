//go:build unix

// File: internal/transport/transport_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Blocking socket syscalls via golang.org/x/sys/unix. Write and Writev hand
// back the raw errno so the framing layer can retry EAGAIN/EINTR itself.

package transport

import (
	"io"
	"net/netip"

	"github.com/momentics/hioload-sock/api"
	"golang.org/x/sys/unix"
)

func dial(addr netip.Addr, port int) (*Socket, error) {
	var (
		family int
		sa     unix.Sockaddr
	)
	if addr.Is4() {
		family = unix.AF_INET
		sa = &unix.SockaddrInet4{Port: port, Addr: addr.As4()}
	} else {
		family = unix.AF_INET6
		sa = &unix.SockaddrInet6{Port: port, Addr: addr.As16()}
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, api.WrapError(api.ErrCodeSocketCreate, "socket", err)
	}
	unix.CloseOnExec(fd)

	if err := unix.Connect(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, api.WrapError(api.ErrCodeSocketConnect, "connect", err).
			WithContext("addr", netip.AddrPortFrom(addr, uint16(port)).String())
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return &Socket{fd: fd}, nil
}

// Read reads the next available chunk, retrying interrupted calls.
func (s *Socket) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, api.ErrSocketClosed
	}
	for {
		n, err := unix.Read(s.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 && len(p) > 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write performs a single send of p.
func (s *Socket) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, api.ErrSocketClosed
	}
	return unix.Write(s.fd, p)
}

// Writev performs a single scatter/gather send of bufs.
func (s *Socket) Writev(bufs [][]byte) (int, error) {
	if s.closed.Load() {
		return 0, api.ErrSocketClosed
	}
	return unix.SendmsgBuffers(s.fd, bufs, nil, nil, 0)
}

func closeFD(fd int) error {
	return unix.Close(fd)
}
