package fallible

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// sharedBlock is the control structure a Shared lives in. refs counts the
// references beyond the first, so an all-zero block is a valid block with
// exactly one owner and a zero T.
type sharedBlock[T any] struct {
	refs  atomic.Int64
	value T
}

// sharedRef is what each handle gives back when it is dropped.
type sharedRef[T any] struct {
	ctrl *sharedBlock[T]
	b    block
}

func (r sharedRef[T]) drop() {
	if r.ctrl.refs.Add(-1) < 0 {
		r.b.free()
	}
}

// Shared is a reference-counted owner of one T. Every handle obtained from
// Clone must be released (or become unreachable); the memory returns to the
// allocator when the last one goes.
type Shared[T any] struct {
	ref      sharedRef[T]
	released atomic.Bool
	cleanup  runtime.Cleanup
}

// intoShared initialises raw in place as the control block and returns the
// first reference. raw must come from AllocateZeroed with exactly the
// layout of sharedBlock[T]; nothing is checked here.
func intoShared[T any](raw *rawAllocation) *Shared[T] {
	b := raw.take()
	return newSharedHandle(sharedRef[T]{ctrl: (*sharedBlock[T])(b.ptr), b: b})
}

func newSharedHandle[T any](ref sharedRef[T]) *Shared[T] {
	s := &Shared[T]{ref: ref}
	s.cleanup = runtime.AddCleanup(s, sharedRef[T].drop, ref)
	return s
}

func sharedLayout[T any]() (Layout, error) {
	return LayoutOf[sharedBlock[T]]()
}

// Get returns a pointer to the shared value. Concurrent writers must
// synchronise among themselves.
func (s *Shared[T]) Get() *T {
	s.panicIfReleased()
	return &s.ref.ctrl.value
}

// Clone returns a new handle to the same value.
func (s *Shared[T]) Clone() *Shared[T] {
	s.panicIfReleased()
	s.ref.ctrl.refs.Add(1)
	return newSharedHandle(s.ref)
}

// RefCount returns the number of live handles.
func (s *Shared[T]) RefCount() int64 {
	s.panicIfReleased()
	return s.ref.ctrl.refs.Load() + 1
}

// Ptr returns the address of the control block, for identity comparisons.
func (s *Shared[T]) Ptr() unsafe.Pointer { return s.ref.b.ptr }

// Release drops this handle. Calling it again is a no-op.
func (s *Shared[T]) Release() {
	if s.released.Swap(true) {
		return
	}
	s.cleanup.Stop()
	s.ref.drop()
}

func (s *Shared[T]) panicIfReleased() {
	if s.released.Load() {
		panic("fallible: Shared use after Release()")
	}
}
