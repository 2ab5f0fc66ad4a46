// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// BytePool recycles fixed-size read chunks between transport reads.
type BytePool struct {
	size int
	p    sync.Pool
}

// NewBytePool returns a pool handing out buffers of exactly size bytes.
func NewBytePool(size int) *BytePool {
	if size <= 0 {
		size = DefaultChunkSize
	}
	bp := &BytePool{size: size}
	bp.p.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return bp
}

// Size returns the chunk size served by the pool.
func (b *BytePool) Size() int {
	return b.size
}

// GetBuffer returns a buffer from the pool.
func (b *BytePool) GetBuffer() []byte {
	return *(b.p.Get().(*[]byte))
}

// PutBuffer returns a buffer to the pool. Buffers of a foreign size are
// dropped and left to the GC.
func (b *BytePool) PutBuffer(buf []byte) {
	if cap(buf) != b.size {
		return
	}
	buf = buf[:b.size]
	b.p.Put(&buf)
}
