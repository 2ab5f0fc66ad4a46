// Package pool
// Author: momentics <momentics@gmail.com>
//
// Reusable read chunks for the socket read loop. A chunk is borrowed for one
// transport read, its bytes are copied into the connection accumulator, and
// it is returned immediately.
package pool

// DefaultChunkSize is the read chunk used when none is configured.
const DefaultChunkSize = 4096
