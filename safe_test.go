package fallible

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSafeArena(t *testing.T) {
	s := NewSafeArena(ArenaConfig{ChunkSize: 1024})
	require.NotNil(t, s)
	require.NotNil(t, s.a)
	assert.Equal(t, 1024, s.Metrics().ChunkSize)
}

func TestSafeArenaOperations(t *testing.T) {
	s := NewSafeArena(ArenaConfig{ChunkSize: 1024})

	require.NotNil(t, s.Allocate(mustLayout(t, 100, 8)))
	assert.NotZero(t, s.Metrics().SizeInUse)

	s.Reset()
	assert.Zero(t, s.Metrics().SizeInUse)

	s.Release()
	assert.Nil(t, s.Allocate(mustLayout(t, 100, 8)))
	assert.Panics(t, s.Reset)
}

func TestSafeArenaContainers(t *testing.T) {
	s := NewSafeArena(ArenaConfig{ChunkSize: 1024})

	box, err := AllocZeroedIn[int64](s)
	require.NoError(t, err)
	assert.Zero(t, *box.Get())

	shared, err := AllocSharedIn[counters](s)
	require.NoError(t, err)
	assert.Equal(t, int64(1), shared.RefCount())

	v, err := AllocSliceZeroedIn[int](s, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 0}, v.Slice())
}

func TestSafeArenaConcurrency(t *testing.T) {
	s := NewSafeArena(ArenaConfig{ChunkSize: 1024})
	const numGoroutines = 10
	const numAllocsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	errs := make(chan error, numGoroutines*numAllocsPerGoroutine)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < numAllocsPerGoroutine; j++ {
				// Mix different allocation types
				var err error
				switch j % 3 {
				case 0:
					_, err = AllocIn[int](s)
				case 1:
					_, err = AllocSliceIn[byte](s, 32)
				case 2:
					_, err = AllocSharedIn[counters](s)
				}
				if err != nil {
					errs <- err
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent allocation failed: %v", err)
	}

	assert.NotZero(t, s.Metrics().SizeInUse)
	assert.NotZero(t, s.Metrics().NumChunks)
}

func TestSafeArenaCappedConcurrency(t *testing.T) {
	s := NewSafeArena(ArenaConfig{ChunkSize: 1024, MaxBytes: 4096})
	const numWorkers = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := AllocSliceIn[uint64](s, 16)
				mu.Lock()
				if err != nil {
					assert.True(t, IsFailedAllocation(err))
					fail++
				} else {
					ok++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// 4 chunks of 1024 bytes hold 8 blocks of 128 bytes each.
	assert.Equal(t, 32, ok)
	assert.Equal(t, numWorkers*50-32, fail)
	assert.LessOrEqual(t, s.Metrics().Capacity, 4096)
}

func TestSafeArenaConcurrentResetRelease(t *testing.T) {
	s := NewSafeArena(ArenaConfig{ChunkSize: 1024})
	const numWorkers = 5

	var wg sync.WaitGroup
	wg.Add(numWorkers)

	l := mustLayout(t, 32, 8)
	for i := 0; i < numWorkers-2; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Allocate(l)
				runtime.Gosched() // Yield to allow other goroutines to run
			}
		}()
	}

	// Worker doing periodic resets
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			runtime.Gosched()
			s.Reset()
		}
	}()

	// Worker doing metrics reads
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_ = s.Metrics()
			runtime.Gosched()
		}
	}()

	wg.Wait()
}

func BenchmarkSafeArenaConcurrent(b *testing.B) {
	s := NewSafeArena(ArenaConfig{ChunkSize: 1024 * 1024})
	l := mustLayout(b, 64, 8)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			s.Allocate(l)
			i++
			if i%1000 == 999 {
				s.Reset()
			}
		}
	})
}
