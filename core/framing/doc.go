// Package framing
// Author: momentics <momentics@gmail.com>
//
// Length-prefixed block framing over a buffer.Accumulator.
//
// Wire format: HEADER || PAYLOAD, where HEADER is 2 or 4 bytes carrying
// len(PAYLOAD) as an unsigned big-endian integer. The width is fixed per
// channel and shared by Reader and Writer.
//
// Includes:
//   - Reader: non-blocking exact, delimiter and block consumption
//   - ReadBlock: generic continuation dispatch for one complete block
//   - Writer: header encoding and single scatter/gather transmission
package framing
