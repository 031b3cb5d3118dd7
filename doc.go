// Package fallible implements typed allocation that reports failure as an
// error instead of aborting the process.
//
// # Overview
//
// Every allocation goes through the same pipeline:
//
//   - compute a Layout (size and alignment) for one T or for N values of T,
//     rejecting overflowing sizes, bad alignments and types holding Go
//     pointers with a LayoutError
//   - invoke an Allocator exactly once; a nil result becomes a
//     FailedAllocation error
//   - hand the block to a container without copying it
//
// Three containers are provided: Box (exclusive owner), Shared
// (reference-counted owner) and Vec (growable sequence).
//
// # Basic Usage
//
//	v, err := fallible.AllocSlice[float64](1 << 20)
//	if err != nil {
//		if fallible.IsFailedAllocation(err) {
//			// out of memory or over the allocator's limit
//		}
//		return err
//	}
//	defer v.Release()
//
//	box, err := fallible.Alloc[Matrix]()
//	shared, err := fallible.AllocShared[Counters]()
//	other := shared.Clone()
//
// # Allocators
//
// The process-wide default is the Go heap (HeapAllocator) unless the
// FALLIBLE_ALLOCATOR environment variable selects "mmap". SetDefaultAllocator
// replaces it at startup, and the *In variants (AllocIn, AllocSharedIn,
// AllocSliceIn) take an explicit Allocator:
//
//   - HeapAllocator: Go heap, aligned, reclaimed by the garbage collector;
//     declines requests larger than the machine's memory
//   - MmapAllocator: one anonymous mapping per block, outside the Go heap
//   - Arena, SafeArena: chunked bump allocator with an optional byte cap
//   - LimitedAllocator: declines requests above a threshold or budget
//   - CheckedAllocator: tracks live blocks and layout mismatches for tests
//
// # Important Notes
//
//   - Element types must not contain Go pointers (pointers, slices, maps,
//     strings, interfaces, channels, funcs); the collector does not scan
//     memory handed out by these allocators
//   - Containers release their memory on Release or, if dropped, when the
//     garbage collector finds them unreachable
//   - Pointers and slices obtained from a container are valid only while
//     the container is reachable and not released
//   - Nothing here retries a failed allocation
package fallible
