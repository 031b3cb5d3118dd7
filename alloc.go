package fallible

// Alloc allocates a T from the default allocator. The memory is not
// cleared beyond what the allocator guarantees.
func Alloc[T any]() (*Box[T], error) {
	return AllocIn[T](DefaultAllocator())
}

// AllocIn allocates a T from mem.
func AllocIn[T any](mem Allocator) (*Box[T], error) {
	return allocBox[T](mem, false)
}

// AllocZeroed allocates a zero T from the default allocator.
func AllocZeroed[T any]() (*Box[T], error) {
	return AllocZeroedIn[T](DefaultAllocator())
}

// AllocZeroedIn allocates a zero T from mem.
func AllocZeroedIn[T any](mem Allocator) (*Box[T], error) {
	return allocBox[T](mem, true)
}

// AllocShared allocates a reference-counted zero T from the default
// allocator.
func AllocShared[T any]() (*Shared[T], error) {
	return AllocSharedIn[T](DefaultAllocator())
}

// AllocSharedIn allocates a reference-counted zero T from mem. The value
// and its reference count share one zeroed block.
func AllocSharedIn[T any](mem Allocator) (*Shared[T], error) {
	l, err := sharedLayout[T]()
	if err != nil {
		return nil, err
	}
	raw, err := allocate(orDefault(mem), l, -1, true)
	if err != nil {
		return nil, err
	}
	return intoShared[T](raw), nil
}

// AllocSlice allocates a Vec of count elements from the default allocator.
// Len and Cap both equal count; elements are not cleared beyond what the
// allocator guarantees.
func AllocSlice[T any](count int) (*Vec[T], error) {
	return AllocSliceIn[T](DefaultAllocator(), count)
}

// AllocSliceIn allocates a Vec of count elements from mem.
func AllocSliceIn[T any](mem Allocator, count int) (*Vec[T], error) {
	return allocVec[T](mem, count, false)
}

// AllocSliceZeroed allocates a Vec of count zero elements from the default
// allocator.
func AllocSliceZeroed[T any](count int) (*Vec[T], error) {
	return AllocSliceZeroedIn[T](DefaultAllocator(), count)
}

// AllocSliceZeroedIn allocates a Vec of count zero elements from mem.
func AllocSliceZeroedIn[T any](mem Allocator, count int) (*Vec[T], error) {
	return allocVec[T](mem, count, true)
}

func allocBox[T any](mem Allocator, zeroed bool) (*Box[T], error) {
	l, err := LayoutOf[T]()
	if err != nil {
		return nil, err
	}
	raw, err := allocate(orDefault(mem), l, -1, zeroed)
	if err != nil {
		return nil, err
	}
	return intoBox[T](raw), nil
}

func allocVec[T any](mem Allocator, count int, zeroed bool) (*Vec[T], error) {
	l, err := ArrayLayout[T](count)
	if err != nil {
		return nil, err
	}
	raw, err := allocate(orDefault(mem), l, count, zeroed)
	if err != nil {
		return nil, err
	}
	return intoVec[T](raw, count), nil
}

func orDefault(mem Allocator) Allocator {
	if mem == nil {
		return DefaultAllocator()
	}
	return mem
}
