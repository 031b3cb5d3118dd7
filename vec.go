package fallible

import (
	"runtime"
	"unsafe"

	"github.com/JohnCGriffin/overflow"
)

// Vec is a growable sequence of T backed by a single block. Growth goes
// through the same allocator as the initial allocation and reports failure
// as an error instead of aborting.
type Vec[T any] struct {
	b       block
	data    []T // len is the length, cap the capacity
	cleanup runtime.Cleanup
}

// intoVec makes raw the backing store of a Vec with len == cap == count.
// No element is copied or initialised. raw must have been allocated with
// ArrayLayout[T](count).
func intoVec[T any](raw *rawAllocation, count int) *Vec[T] {
	v := &Vec[T]{}
	v.adopt(raw.take(), count, count)
	return v
}

func (v *Vec[T]) adopt(b block, length, capacity int) {
	v.b = b
	v.data = unsafe.Slice((*T)(b.ptr), capacity)[:length]
	v.cleanup = runtime.AddCleanup(v, block.free, b)
}

// Len returns the number of elements.
func (v *Vec[T]) Len() int { return len(v.data) }

// Cap returns the number of elements the current block can hold.
func (v *Vec[T]) Cap() int { return cap(v.data) }

// Slice returns the elements. It aliases the Vec's memory and is
// invalidated by growth, shrinking and Release.
func (v *Vec[T]) Slice() []T { return v.data }

// At returns a pointer to element i.
func (v *Vec[T]) At(i int) *T { return &v.data[i] }

// Layout returns the layout of the current backing block.
func (v *Vec[T]) Layout() Layout { return v.b.layout }

// Reserve makes room for at least additional more elements. On failure the
// Vec is left unchanged.
func (v *Vec[T]) Reserve(additional int) error {
	v.panicIfReleased()
	need, ok := overflow.Add(len(v.data), additional)
	if additional < 0 || !ok {
		return newLayoutError("capacity overflow reserving %d more elements", additional)
	}
	if need <= cap(v.data) {
		return nil
	}
	newCap := cap(v.data) * 2
	if newCap < need {
		newCap = need
	}
	return v.realloc(newCap)
}

// Push appends x, growing the Vec if needed.
func (v *Vec[T]) Push(x T) error {
	if err := v.Reserve(1); err != nil {
		return err
	}
	v.data = append(v.data, x)
	return nil
}

// Truncate shortens the Vec to n elements. It does nothing if n >= Len.
func (v *Vec[T]) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(v.data) {
		v.data = v.data[:n]
	}
}

// ShrinkToFit moves the elements into a block exactly Len elements long.
func (v *Vec[T]) ShrinkToFit() error {
	v.panicIfReleased()
	if len(v.data) == cap(v.data) {
		return nil
	}
	return v.realloc(len(v.data))
}

// Release returns the memory to the allocator. Calling it again is a no-op.
func (v *Vec[T]) Release() {
	if v.b.ptr == nil {
		return
	}
	v.cleanup.Stop()
	v.b.free()
	v.b.ptr = nil
	v.data = nil
}

func (v *Vec[T]) realloc(newCap int) error {
	l, err := ArrayLayout[T](newCap)
	if err != nil {
		return err
	}
	raw, err := allocate(v.b.mem, l, newCap, false)
	if err != nil {
		return err
	}
	length := len(v.data)
	next := raw.take()
	copy(unsafe.Slice((*T)(next.ptr), newCap), v.data)

	v.cleanup.Stop()
	v.b.free()
	v.adopt(next, length, newCap)
	return nil
}

func (v *Vec[T]) panicIfReleased() {
	if v.b.ptr == nil {
		panic("fallible: Vec use after Release()")
	}
}
