// File: core/framing/header.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package framing

import (
	"encoding/binary"
	"fmt"

	"github.com/momentics/hioload-sock/api"
)

// Supported header widths.
const (
	HeaderWidth2 = 2
	HeaderWidth4 = 4

	// DefaultHeaderWidth is used when no width is configured.
	DefaultHeaderWidth = HeaderWidth2

	MaxPayload2 = 0xFFFF
	MaxPayload4 = 0xFFFFFFFF
)

// ValidHeaderWidth reports whether width is 2 or 4.
func ValidHeaderWidth(width int) bool {
	return width == HeaderWidth2 || width == HeaderWidth4
}

// MaxPayloadFor returns the largest payload a header of width can describe.
func MaxPayloadFor(width int) (uint64, error) {
	switch width {
	case HeaderWidth2:
		return MaxPayload2, nil
	case HeaderWidth4:
		return MaxPayload4, nil
	default:
		return 0, api.ErrInvalidHeaderWidth
	}
}

// EncodeHeader returns the big-endian header for a payload of length n.
func EncodeHeader(width, n int) ([]byte, error) {
	limit, err := MaxPayloadFor(width)
	if err != nil {
		return nil, err
	}
	if n < 0 || uint64(n) > limit {
		return nil, fmt.Errorf("%w: %d bytes with %d-byte header", api.ErrPayloadTooLarge, n, width)
	}
	hdr := make([]byte, width)
	if width == HeaderWidth2 {
		binary.BigEndian.PutUint16(hdr, uint16(n))
	} else {
		binary.BigEndian.PutUint32(hdr, uint32(n))
	}
	return hdr, nil
}

// DecodeHeader reads the payload length from the first width bytes of b.
func DecodeHeader(width int, b []byte) (int, error) {
	if !ValidHeaderWidth(width) {
		return 0, api.ErrInvalidHeaderWidth
	}
	if len(b) < width {
		return 0, fmt.Errorf("%w: header needs %d bytes, have %d", api.ErrInvalidArgument, width, len(b))
	}
	if width == HeaderWidth2 {
		return int(binary.BigEndian.Uint16(b)), nil
	}
	return int(binary.BigEndian.Uint32(b)), nil
}
