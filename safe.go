package fallible

import (
	"sync"
	"unsafe"
)

// SafeArena is a mutex-protected wrapper around Arena for concurrent access.
// All operations are thread-safe but come with the overhead of mutex locking.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafeArena creates a new thread-safe arena.
func NewSafeArena(cfg ArenaConfig) *SafeArena {
	return &SafeArena{a: NewArena(cfg)}
}

// Allocate thread-safely allocates from the arena.
func (s *SafeArena) Allocate(l Layout) unsafe.Pointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Allocate(l)
}

// AllocateZeroed thread-safely allocates a cleared block from the arena.
func (s *SafeArena) AllocateZeroed(l Layout) unsafe.Pointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AllocateZeroed(l)
}

// Deallocate is a no-op for arenas.
func (s *SafeArena) Deallocate(unsafe.Pointer, Layout) {}

// Reset thread-safely resets allocation offsets to zero for arena reuse.
func (s *SafeArena) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Reset()
}

// Release thread-safely drops all chunks.
func (s *SafeArena) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Release()
}

var _ Allocator = (*SafeArena)(nil)
