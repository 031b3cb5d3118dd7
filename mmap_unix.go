//go:build unix

package fallible

import (
	"sync"
	"unsafe"

	"github.com/JohnCGriffin/overflow"
	"golang.org/x/sys/unix"
)

// MmapAllocator backs every block with its own anonymous private mapping.
// Memory lives outside the Go heap, so a refused mapping (ENOMEM, RLIMIT_AS,
// vm.max_map_count) is reported as nil instead of killing the process.
// Requests larger than the machine's memory are declined up front, whatever
// the kernel's overcommit policy.
// Blocks must be released through Deallocate.
type MmapAllocator struct {
	pageSize int
	mappings sync.Map // block address -> []byte mapping
}

// NewMmapAllocator returns an MmapAllocator.
func NewMmapAllocator() *MmapAllocator {
	return &MmapAllocator{pageSize: unix.Getpagesize()}
}

// Allocate maps fresh pages; they are always zero filled.
func (m *MmapAllocator) Allocate(l Layout) unsafe.Pointer {
	if l.size == 0 {
		return nil
	}
	length := l.size
	if l.align > m.pageSize {
		var ok bool
		if length, ok = overflow.Add(length, l.align); !ok {
			return nil
		}
	}
	if exceedsMemory(length) {
		return nil
	}
	data, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(data)))
	mask := uintptr(l.align - 1)
	p := unsafe.Add(unsafe.Pointer(unsafe.SliceData(data)), (base+mask)&^mask-base)
	m.mappings.Store(uintptr(p), data)
	return p
}

// AllocateZeroed is Allocate.
func (m *MmapAllocator) AllocateZeroed(l Layout) unsafe.Pointer {
	return m.Allocate(l)
}

// Deallocate unmaps the block at p. Unknown addresses are ignored.
func (m *MmapAllocator) Deallocate(p unsafe.Pointer, _ Layout) {
	v, ok := m.mappings.LoadAndDelete(uintptr(p))
	if !ok {
		return
	}
	_ = unix.Munmap(v.([]byte))
}

var _ Allocator = (*MmapAllocator)(nil)
