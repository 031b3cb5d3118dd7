package fallible

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// LimitedAllocator wraps another Allocator and declines requests above a
// per-request threshold or beyond a total byte budget.
type LimitedAllocator struct {
	mem        Allocator
	maxRequest int64
	budget     int64
	inUse      atomic.Int64
	blocks     sync.Map // uintptr -> int64 size charged
}

// NewLimitedAllocator wraps mem. maxRequest is the largest single block in
// bytes and budget the most bytes outstanding at once; zero disables either
// check.
func NewLimitedAllocator(mem Allocator, maxRequest, budget int64) *LimitedAllocator {
	return &LimitedAllocator{mem: mem, maxRequest: maxRequest, budget: budget}
}

// InUse returns the bytes currently outstanding.
func (a *LimitedAllocator) InUse() int64 { return a.inUse.Load() }

// Allocate allocates from the wrapped allocator if l fits both limits.
func (a *LimitedAllocator) Allocate(l Layout) unsafe.Pointer {
	return a.allocate(l, a.mem.Allocate)
}

// AllocateZeroed is Allocate for zeroed blocks.
func (a *LimitedAllocator) AllocateZeroed(l Layout) unsafe.Pointer {
	return a.allocate(l, a.mem.AllocateZeroed)
}

// Deallocate returns the block to the wrapped allocator and credits its size
// back to the budget. Blocks this allocator did not hand out, or already
// took back, are ignored.
func (a *LimitedAllocator) Deallocate(p unsafe.Pointer, l Layout) {
	v, ok := a.blocks.LoadAndDelete(uintptr(p))
	if !ok {
		return
	}
	a.mem.Deallocate(p, l)
	a.inUse.Add(-v.(int64))
}

func (a *LimitedAllocator) allocate(l Layout, fn func(Layout) unsafe.Pointer) unsafe.Pointer {
	size := int64(l.size)
	if a.maxRequest > 0 && size > a.maxRequest {
		return nil
	}
	if a.budget > 0 {
		if a.inUse.Add(size) > a.budget {
			a.inUse.Add(-size)
			return nil
		}
	} else {
		a.inUse.Add(size)
	}
	p := fn(l)
	if p == nil {
		a.inUse.Add(-size)
		return nil
	}
	a.blocks.Store(uintptr(p), size)
	return p
}

var _ Allocator = (*LimitedAllocator)(nil)
