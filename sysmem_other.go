//go:build !linux

package fallible

func systemMemoryLimit() uint64 { return 0 }
