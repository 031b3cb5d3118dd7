package fallible

import (
	"sync/atomic"
	"unsafe"
)

// Allocator hands out raw blocks described by a Layout. Implementations
// must be safe for concurrent use unless documented otherwise.
//
// Allocate and AllocateZeroed return nil when the request cannot be
// satisfied; they must not panic for that reason. Deallocate is called
// with the same layout that was used to allocate p.
type Allocator interface {
	Allocate(l Layout) unsafe.Pointer
	AllocateZeroed(l Layout) unsafe.Pointer
	Deallocate(p unsafe.Pointer, l Layout)
}

type allocatorSlot struct{ a Allocator }

var defaultSlot atomic.Pointer[allocatorSlot]

// DefaultAllocator returns the process-wide allocator used by Alloc,
// AllocShared and AllocSlice.
func DefaultAllocator() Allocator {
	return defaultSlot.Load().a
}

// SetDefaultAllocator replaces the process-wide allocator. It is meant to be
// called once at startup; containers already allocated keep releasing to the
// allocator they came from. A nil a restores the heap allocator.
func SetDefaultAllocator(a Allocator) {
	if a == nil {
		a = NewHeapAllocator()
	}
	defaultSlot.Store(&allocatorSlot{a: a})
}
