// Command fallocprobe tries allocations against a chosen allocator and
// reports whether they succeed, without crashing when they do not.
package main

func main() {
	execute()
}
