//go:build linux

package fallible

import "golang.org/x/sys/unix"

// systemMemoryLimit returns physical memory plus swap, lowered to
// RLIMIT_AS when that is set.
func systemMemoryLimit() uint64 {
	var limit uint64
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err == nil {
		unit := uint64(info.Unit)
		if unit == 0 {
			unit = 1
		}
		limit = (uint64(info.Totalram) + uint64(info.Totalswap)) * unit
	}

	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_AS, &rl); err == nil {
		if cur := uint64(rl.Cur); cur != unix.RLIM_INFINITY && (limit == 0 || cur < limit) {
			limit = cur
		}
	}
	return limit
}
