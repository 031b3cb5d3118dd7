package fallible

import "unsafe"

// zeroBase is the address handed out for zero-sized blocks. The allocator
// is never invoked for them and they are never deallocated.
var zeroBase uint64

// rawAllocation is a block that has been allocated but not yet wrapped in a
// container. Only allocate produces one and only the into* transfers
// consume it.
type rawAllocation struct {
	ptr    unsafe.Pointer
	layout Layout
	mem    Allocator
}

// allocate invokes mem exactly once for l. count < 0 marks a single-value
// request; otherwise the failure message names the array length.
func allocate(mem Allocator, l Layout, count int, zeroed bool) (*rawAllocation, error) {
	if l.size == 0 {
		return &rawAllocation{ptr: unsafe.Pointer(&zeroBase), layout: l, mem: mem}, nil
	}
	var p unsafe.Pointer
	if zeroed {
		p = mem.AllocateZeroed(l)
	} else {
		p = mem.Allocate(l)
	}
	if p == nil {
		if count < 0 {
			return nil, newValueAllocError()
		}
		return nil, newArrayAllocError(count)
	}
	return &rawAllocation{ptr: p, layout: l, mem: mem}, nil
}

// take hands the block over to its new owner. A raw allocation can only be
// taken once.
func (r *rawAllocation) take() block {
	if r.ptr == nil {
		panic("fallible: raw allocation consumed twice")
	}
	b := block{ptr: r.ptr, layout: r.layout, mem: r.mem}
	r.ptr = nil
	return b
}

// block is an owned region plus everything needed to give it back.
type block struct {
	ptr    unsafe.Pointer
	layout Layout
	mem    Allocator
}

func (b block) free() {
	if b.layout.size == 0 {
		return
	}
	b.mem.Deallocate(b.ptr, b.layout)
}
