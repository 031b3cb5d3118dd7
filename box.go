package fallible

import "runtime"

// Box is the exclusive owner of one T. The memory goes back to its
// allocator on Release, or once the Box becomes unreachable.
//
// The pointer returned by Get is only valid while the Box is reachable and
// not released.
type Box[T any] struct {
	b       block
	cleanup runtime.Cleanup
}

// intoBox makes raw the sole backing store of a new Box. Nothing is copied.
// raw must have been allocated with the layout of T.
func intoBox[T any](raw *rawAllocation) *Box[T] {
	bx := &Box[T]{b: raw.take()}
	bx.cleanup = runtime.AddCleanup(bx, block.free, bx.b)
	return bx
}

// Get returns a pointer to the owned value.
func (bx *Box[T]) Get() *T {
	if bx.b.ptr == nil {
		panic("fallible: Box use after Release()")
	}
	return (*T)(bx.b.ptr)
}

// Layout returns the layout the value was allocated with.
func (bx *Box[T]) Layout() Layout { return bx.b.layout }

// Release returns the memory to the allocator. Calling it again is a no-op.
func (bx *Box[T]) Release() {
	if bx.b.ptr == nil {
		return
	}
	bx.cleanup.Stop()
	bx.b.free()
	bx.b.ptr = nil
}
