// File: pool/bytepool.go
// Package pool provides the heap scratch-buffer pool backing a Connection's
// send-buffer policy: allocate on the stack when the requested size is
// small, pool a heap buffer otherwise (spec §4.3).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync"

// StackThreshold is the send-buffer size under which the engine prefers a
// plain stack-local array instead of drawing from the pool (spec §4.3
// "allocates the send buffer on the stack if ≤ 1000 bytes, otherwise on the
// heap").
const StackThreshold = 1000

// BytePool hands out byte slices of a fixed size, reusing freed buffers via
// sync.Pool to avoid repeated heap allocation for the single
// next_response_chunk call each service tick makes (spec §4.3).
type BytePool struct {
	size int
	pool sync.Pool
}

// NewBytePool constructs a BytePool whose buffers are always size bytes
// long.
func NewBytePool(size int) *BytePool {
	p := &BytePool{size: size}
	p.pool.New = func() any {
		return make([]byte, size)
	}
	return p
}

// Get returns a buffer of p's configured size.
func (p *BytePool) Get() []byte {
	return p.pool.Get().([]byte)
}

// Put returns buf to the pool for reuse. buf must have been obtained from
// Get (or be nil, which is ignored).
func (p *BytePool) Put(buf []byte) {
	if cap(buf) < p.size {
		return
	}
	p.pool.Put(buf[:p.size])
}

// ChunkBuffer returns a send-chunk buffer of sendBufferMaxLen bytes,
// drawing from sharedPool only when sendBufferMaxLen exceeds
// StackThreshold; otherwise it allocates a fresh local slice, matching the
// stack-vs-heap split of spec §4.3. The returned release func must be
// called once the caller is done with the buffer.
func ChunkBuffer(sharedPool *BytePool, sendBufferMaxLen int) (buf []byte, release func()) {
	if sendBufferMaxLen <= StackThreshold {
		return make([]byte, sendBufferMaxLen), func() {}
	}
	b := sharedPool.Get()
	if len(b) < sendBufferMaxLen {
		sharedPool.Put(b)
		return make([]byte, sendBufferMaxLen), func() {}
	}
	return b[:sendBufferMaxLen], func() { sharedPool.Put(b) }
}
