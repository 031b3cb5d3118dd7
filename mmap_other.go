//go:build !unix

package fallible

import "unsafe"

// MmapAllocator falls back to the Go heap on platforms without mmap.
type MmapAllocator struct {
	heap HeapAllocator
}

// NewMmapAllocator returns an MmapAllocator.
func NewMmapAllocator() *MmapAllocator {
	return &MmapAllocator{}
}

// Allocate allocates from the Go heap.
func (m *MmapAllocator) Allocate(l Layout) unsafe.Pointer {
	return m.heap.Allocate(l)
}

// AllocateZeroed is Allocate.
func (m *MmapAllocator) AllocateZeroed(l Layout) unsafe.Pointer {
	return m.heap.AllocateZeroed(l)
}

// Deallocate does nothing; the collector reclaims the block.
func (m *MmapAllocator) Deallocate(p unsafe.Pointer, l Layout) {}

var _ Allocator = (*MmapAllocator)(nil)
