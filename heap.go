package fallible

import (
	"unsafe"

	"github.com/JohnCGriffin/overflow"
)

// HeapAllocator allocates from the Go heap. Blocks are over-allocated and
// sliced to the requested alignment. Deallocate is a no-op; the collector
// reclaims a block once nothing references it.
//
// Requests larger than the machine could ever back (physical memory plus
// swap, or RLIMIT_AS when lower) and requests the runtime rejects up front
// are reported as nil. Below that ceiling the Go runtime's own out-of-memory
// handling still applies; MmapAllocator keeps large blocks off the Go heap.
type HeapAllocator struct{}

// NewHeapAllocator returns a HeapAllocator.
func NewHeapAllocator() *HeapAllocator { return &HeapAllocator{} }

// Allocate returns zeroed memory; the Go heap never hands out dirty blocks.
func (h *HeapAllocator) Allocate(l Layout) unsafe.Pointer {
	buf := makeAligned(l.size, l.align)
	if buf == nil {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(buf))
}

// AllocateZeroed is Allocate.
func (h *HeapAllocator) AllocateZeroed(l Layout) unsafe.Pointer {
	return h.Allocate(l)
}

// Deallocate does nothing; the collector reclaims the block.
func (h *HeapAllocator) Deallocate(unsafe.Pointer, Layout) {}

// makeAligned returns a size-byte slice whose first element is aligned to
// align, or nil if the request can not be backed.
func makeAligned(size, align int) (out []byte) {
	padded, ok := overflow.Add(size, align-1)
	if !ok || size == 0 || exceedsMemory(padded) {
		return nil
	}
	defer func() {
		// makeslice: len out of range
		if r := recover(); r != nil {
			out = nil
		}
	}()
	raw := make([]byte, padded)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	mask := uintptr(align - 1)
	shift := int((addr+mask)&^mask - addr)
	return raw[shift : shift+size : shift+size]
}

var _ Allocator = (*HeapAllocator)(nil)
