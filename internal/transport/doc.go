// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw blocking stream sockets for hioload-sock: connect, close, single and
// scatter/gather writes, and chunked reads. Syscalls are isolated behind
// build tags (unix / stub) so the framing layer stays platform-neutral.

package transport
