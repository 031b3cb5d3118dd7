package fallible

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables read once at package initialisation.
const (
	// EnvAllocator selects the default allocator: "heap" or "mmap".
	EnvAllocator = "FALLIBLE_ALLOCATOR"
	// EnvMaxAlloc, when set to a positive byte count, makes the default
	// allocator decline any single request larger than that.
	EnvMaxAlloc = "FALLIBLE_MAX_ALLOC"
)

func init() {
	SetDefaultAllocator(allocatorFromEnv(os.LookupEnv))
}

// allocatorFromEnv builds the default allocator from the environment.
// Unknown or malformed values fall back to the heap with no limit.
func allocatorFromEnv(lookup func(string) (string, bool)) Allocator {
	var mem Allocator = NewHeapAllocator()
	if val, ok := lookup(EnvAllocator); ok && strings.EqualFold(strings.TrimSpace(val), "mmap") {
		mem = NewMmapAllocator()
	}
	if val, ok := lookup(EnvMaxAlloc); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil && n > 0 {
			mem = NewLimitedAllocator(mem, n, 0)
		}
	}
	return mem
}
