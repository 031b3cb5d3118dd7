package fallible

import "sync"

// memoryCeiling is the most memory this process could ever be given, in
// bytes, or 0 if the platform does not say. Read once.
var memoryCeiling = sync.OnceValue(systemMemoryLimit)

// exceedsMemory reports whether a block of size bytes can never be backed
// on this machine. Such requests are declined before the Go runtime or the
// kernel sees them; the runtime treats a heap it cannot grow as fatal.
func exceedsMemory(size int) bool {
	limit := memoryCeiling()
	return limit > 0 && uint64(size) > limit
}
