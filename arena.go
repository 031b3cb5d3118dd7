package fallible

import (
	"unsafe"

	"github.com/JohnCGriffin/overflow"
)

// DefaultChunkSize is the default chunk size for new arenas (64 KiB).
const DefaultChunkSize = 1 << 16

// ArenaConfig configures an Arena.
type ArenaConfig struct {
	// ChunkSize is the size of each backing chunk. If <= 0,
	// DefaultChunkSize is used.
	ChunkSize int
	// MaxBytes caps the total capacity of all chunks. Requests that would
	// need a chunk beyond the cap fail. Zero means no cap.
	MaxBytes int
}

// chunk represents a single memory chunk within an arena.
type chunk struct {
	buf    []byte  // backing memory
	offset uintptr // allocation offset within buf
}

// Arena is a chunked bump allocator implementing Allocator.
// Not goroutine-safe; use SafeArena for concurrent access.
//
// Deallocate does nothing: memory is recycled in bulk with Reset or dropped
// with Release. Containers allocated from an arena must not be used after
// the arena is reset.
type Arena struct {
	chunks       []chunk
	chunkSize    int
	maxBytes     int
	capacity     int
	currentChunk *chunk
	released     bool
}

// NewArena creates a new Arena. The first chunk is allocated lazily.
func NewArena(cfg ArenaConfig) *Arena {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MaxBytes < 0 {
		cfg.MaxBytes = 0
	}
	return &Arena{chunkSize: cfg.ChunkSize, maxBytes: cfg.MaxBytes}
}

// Allocate returns a block from the current chunk, growing the arena if
// needed. It returns nil once the arena is released or its byte cap is hit.
func (a *Arena) Allocate(l Layout) unsafe.Pointer {
	if a.released || l.size == 0 {
		return nil
	}

	// Fast path: use cached current chunk
	if c := a.currentChunk; c != nil {
		if p := c.bump(l); p != nil {
			return p
		}
	}

	// Slow path: need new chunk
	need, ok := overflow.Add(l.size, l.align-1)
	if !ok || !a.grow(need) {
		return nil
	}
	return a.currentChunk.bump(l)
}

// AllocateZeroed is Allocate followed by clearing the block; chunk memory is
// reused after Reset and may hold old data.
func (a *Arena) AllocateZeroed(l Layout) unsafe.Pointer {
	p := a.Allocate(l)
	if p != nil {
		clear(unsafe.Slice((*byte)(p), l.size))
	}
	return p
}

// Deallocate is a no-op for arenas.
func (a *Arena) Deallocate(unsafe.Pointer, Layout) {}

// bump carves l out of the chunk or returns nil if it does not fit.
func (c *chunk) bump(l Layout) unsafe.Pointer {
	if len(c.buf) == 0 {
		return nil
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(c.buf)))
	mask := uintptr(l.align - 1)
	off := (base+c.offset+mask)&^mask - base
	if off+uintptr(l.size) > uintptr(len(c.buf)) {
		return nil
	}
	c.offset = off + uintptr(l.size)
	return unsafe.Pointer(&c.buf[off])
}

// Reset resets allocation offsets to zero but keeps allocated chunks for reuse.
// This provides O(1) cleanup for arena reuse.
func (a *Arena) Reset() {
	a.panicIfReleased()
	for i := range a.chunks {
		a.chunks[i].offset = 0
	}
	// Reset cached chunk to first chunk
	if len(a.chunks) > 0 {
		a.currentChunk = &a.chunks[0]
	}
}

// Release drops all chunks. Later allocations fail; Reset panics.
func (a *Arena) Release() {
	a.chunks = nil
	a.currentChunk = nil
	a.capacity = 0
	a.released = true
}

// grow appends a new chunk of at least min bytes, honouring the byte cap.
// Chunks after the current one are reused first if they are large enough.
func (a *Arena) grow(min int) bool {
	for i := range a.chunks {
		c := &a.chunks[i]
		if c != a.currentChunk && c.offset == 0 && len(c.buf) >= min {
			a.currentChunk = c
			return true
		}
	}

	size := a.chunkSize
	if min > size {
		size = min
	}
	if a.maxBytes > 0 {
		total, ok := overflow.Add(a.capacity, size)
		if !ok || total > a.maxBytes {
			return false
		}
	}
	buf := makeAligned(size, 1)
	if buf == nil {
		return false
	}
	a.chunks = append(a.chunks, chunk{buf: buf})
	a.capacity += size
	a.currentChunk = &a.chunks[len(a.chunks)-1]
	return true
}

// panicIfReleased panics if the arena has been released.
func (a *Arena) panicIfReleased() {
	if a.released {
		panic("fallible: arena use after Release()")
	}
}

var _ Allocator = (*Arena)(nil)
