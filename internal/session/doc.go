// Package session
// Author: momentics <momentics@gmail.com>
//
// Per-connection state: one blocking socket, the accumulator that buffers its
// inbound bytes, the framing reader/writer bound to them and a queue of
// decoded blocks waiting for the host. A Conn owns its accumulator
// exclusively and releases it exactly once on Close.
package session
