package fallible

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"
)

// CheckedAllocator wraps another Allocator and keeps track of every live
// block. It catches leaks and deallocations whose layout differs from the
// layout the block was allocated with.
type CheckedAllocator struct {
	mem Allocator
	sz  atomic.Int64

	allocs     sync.Map // uintptr -> *dalloc
	mu         sync.Mutex
	mismatches []string
}

type dalloc struct {
	fn     string
	line   int
	layout Layout
}

// pkgPrefix prefixes the name of every function in this package.
var pkgPrefix = reflect.TypeFor[CheckedAllocator]().PkgPath() + "."

// NewCheckedAllocator wraps mem.
func NewCheckedAllocator(mem Allocator) *CheckedAllocator {
	return &CheckedAllocator{mem: mem}
}

// CurrentAlloc returns the number of bytes outstanding.
func (a *CheckedAllocator) CurrentAlloc() int { return int(a.sz.Load()) }

// LiveBlocks returns the number of blocks allocated and not yet released.
func (a *CheckedAllocator) LiveBlocks() int {
	n := 0
	a.allocs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Mismatches returns a description of every bad Deallocate seen so far.
func (a *CheckedAllocator) Mismatches() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.mismatches...)
}

// Allocate allocates from the wrapped allocator and records the block.
func (a *CheckedAllocator) Allocate(l Layout) unsafe.Pointer {
	return a.track(a.mem.Allocate(l), l)
}

// AllocateZeroed is Allocate for zeroed blocks.
func (a *CheckedAllocator) AllocateZeroed(l Layout) unsafe.Pointer {
	return a.track(a.mem.AllocateZeroed(l), l)
}

// Deallocate forgets the block, noting a mismatch if p is unknown or l
// differs from its allocation layout, and passes it on.
func (a *CheckedAllocator) Deallocate(p unsafe.Pointer, l Layout) {
	v, ok := a.allocs.LoadAndDelete(uintptr(p))
	switch {
	case !ok:
		a.mismatch("deallocate of unknown block %p with %+v", p, l)
	case v.(*dalloc).layout != l:
		a.mismatch("deallocate of %p with %+v, allocated with %+v", p, l, v.(*dalloc).layout)
	}
	a.sz.Add(-int64(l.size))
	a.mem.Deallocate(p, l)
}

func (a *CheckedAllocator) track(p unsafe.Pointer, l Layout) unsafe.Pointer {
	if p == nil {
		return nil
	}
	a.sz.Add(int64(l.size))
	info := &dalloc{layout: l}
	info.fn, info.line = allocCaller()
	a.allocs.Store(uintptr(p), info)
	return p
}

// allocCaller returns the function and line of the first frame outside this
// package. Test files count as outside.
func allocCaller() (string, int) {
	var pcs [32]uintptr
	frames := runtime.CallersFrames(pcs[:runtime.Callers(2, pcs[:])])
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, pkgPrefix) || strings.HasSuffix(f.File, "_test.go") {
			return f.Function, f.Line
		}
		if !more {
			return "unknown", 0
		}
	}
}

func (a *CheckedAllocator) mismatch(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mismatches = append(a.mismatches, fmt.Sprintf(format, args...))
}

// TestingT is the subset of testing.TB used by AssertSize.
type TestingT interface {
	Errorf(format string, args ...any)
	Helper()
}

// AssertSize reports every live block as a leak and fails if the
// outstanding byte count differs from sz or a bad Deallocate was seen.
func (a *CheckedAllocator) AssertSize(t TestingT, sz int) {
	t.Helper()
	a.allocs.Range(func(_, value any) bool {
		info := value.(*dalloc)
		t.Errorf("LEAK of %d bytes FROM %s line %d", info.layout.size, info.fn, info.line)
		return true
	})
	for _, m := range a.Mismatches() {
		t.Errorf("layout mismatch: %s", m)
	}
	if got := a.CurrentAlloc(); got != sz {
		t.Errorf("invalid memory size exp=%d, got=%d", sz, got)
	}
}

var _ Allocator = (*CheckedAllocator)(nil)
