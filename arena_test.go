package fallible

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLayout(tb testing.TB, size, align int) Layout {
	tb.Helper()
	l, err := NewLayout(size, align)
	require.NoError(tb, err)
	return l
}

func TestNewArena(t *testing.T) {
	tests := []struct {
		name      string
		cfg       ArenaConfig
		chunkSize int
		maxBytes  int
	}{
		{"default chunk size", ArenaConfig{}, DefaultChunkSize, 0},
		{"negative chunk size", ArenaConfig{ChunkSize: -1}, DefaultChunkSize, 0},
		{"custom chunk size", ArenaConfig{ChunkSize: 8192}, 8192, 0},
		{"capped", ArenaConfig{ChunkSize: 512, MaxBytes: 4096}, 512, 4096},
		{"negative cap", ArenaConfig{MaxBytes: -5}, DefaultChunkSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewArena(tt.cfg).Metrics()
			if m.ChunkSize != tt.chunkSize {
				t.Errorf("NewArena(%+v) chunk size = %d, want %d", tt.cfg, m.ChunkSize, tt.chunkSize)
			}
			if m.MaxBytes != tt.maxBytes {
				t.Errorf("NewArena(%+v) max bytes = %d, want %d", tt.cfg, m.MaxBytes, tt.maxBytes)
			}
			if m.NumChunks != 0 {
				t.Errorf("NewArena(%+v) chunks = %d, want 0", tt.cfg, m.NumChunks)
			}
		})
	}
}

func TestArenaAllocate(t *testing.T) {
	a := NewArena(ArenaConfig{ChunkSize: 1024})

	p1 := a.Allocate(mustLayout(t, 100, 8))
	require.NotNil(t, p1)
	assert.Equal(t, 1, a.Metrics().NumChunks)

	// Zero-sized requests never reach an arena through the invoker; called
	// directly it declines them.
	assert.Nil(t, a.Allocate(mustLayout(t, 0, 8)))

	// Allocation that forces chunk growth
	p2 := a.Allocate(mustLayout(t, 2000, 8))
	require.NotNil(t, p2)
	assert.Equal(t, 2, a.Metrics().NumChunks)
	assert.GreaterOrEqual(t, a.Metrics().Capacity, 1024+2000)
}

func TestArenaAlignment(t *testing.T) {
	a := NewArena(ArenaConfig{ChunkSize: 4096})

	for _, align := range []int{1, 2, 8, 16, 64, 256} {
		a.Allocate(mustLayout(t, 3, 1))
		p := a.Allocate(mustLayout(t, 24, align))
		require.NotNil(t, p)
		assert.Zero(t, uintptr(p)%uintptr(align), "align %d: %p", align, p)
	}
}

func TestArenaMaxBytes(t *testing.T) {
	a := NewArena(ArenaConfig{ChunkSize: 1024, MaxBytes: 2048})

	require.NotNil(t, a.Allocate(mustLayout(t, 1000, 8)))
	require.NotNil(t, a.Allocate(mustLayout(t, 1000, 8)))
	assert.Equal(t, 2048, a.Metrics().Capacity)

	assert.Nil(t, a.Allocate(mustLayout(t, 1000, 8)))
	assert.Equal(t, 2, a.Metrics().NumChunks)

	// Reset makes the existing chunks available again without growing.
	a.Reset()
	require.NotNil(t, a.Allocate(mustLayout(t, 1000, 8)))
	require.NotNil(t, a.Allocate(mustLayout(t, 1000, 8)))
	assert.Equal(t, 2, a.Metrics().NumChunks)
}

func TestArenaAllocateZeroed(t *testing.T) {
	a := NewArena(ArenaConfig{ChunkSize: 256})
	l := mustLayout(t, 128, 8)

	p := a.Allocate(l)
	require.NotNil(t, p)
	buf := unsafe.Slice((*byte)(p), l.Size())
	for i := range buf {
		buf[i] = 0xaa
	}

	a.Reset()
	p = a.AllocateZeroed(l)
	require.NotNil(t, p)
	for i, b := range unsafe.Slice((*byte)(p), l.Size()) {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, b)
		}
	}
}

func TestArenaReset(t *testing.T) {
	a := NewArena(ArenaConfig{ChunkSize: 1024})

	a.Allocate(mustLayout(t, 100, 8))
	a.Allocate(mustLayout(t, 200, 8))

	if a.Metrics().SizeInUse == 0 {
		t.Error("Expected non-zero size in use after allocations")
	}

	a.Reset()
	if got := a.Metrics().SizeInUse; got != 0 {
		t.Errorf("SizeInUse after Reset() = %d, want 0", got)
	}
	if a.Metrics().NumChunks == 0 {
		t.Error("Expected chunks to remain after Reset()")
	}
}

func TestArenaRelease(t *testing.T) {
	a := NewArena(ArenaConfig{ChunkSize: 1024})
	a.Allocate(mustLayout(t, 100, 8))

	a.Release()
	assert.Nil(t, a.chunks)
	assert.Nil(t, a.Allocate(mustLayout(t, 100, 8)), "allocation after Release must fail")

	_, err := AllocIn[int64](a)
	assert.True(t, IsFailedAllocation(err))

	assert.PanicsWithValue(t, "fallible: arena use after Release()", a.Reset)
}

func BenchmarkArenaAllocate(b *testing.B) {
	a := NewArena(ArenaConfig{ChunkSize: 1024 * 1024}) // 1MB chunks
	sizes := []int{8, 64, 256, 1024}

	for _, size := range sizes {
		l := mustLayout(b, size, 8)
		b.Run(fmt.Sprintf("size-%d", size), func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				a.Allocate(l)
				if i%1000 == 999 { // Reset periodically to avoid growing too much
					a.Reset()
				}
			}
		})
	}
}

func BenchmarkArenaVsHeap(b *testing.B) {
	l := mustLayout(b, 64, 8)

	b.Run("arena", func(b *testing.B) {
		a := NewArena(ArenaConfig{ChunkSize: 1024 * 1024})
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			a.Allocate(l)
			if i%1000 == 999 {
				a.Reset()
			}
		}
	})

	b.Run("heap", func(b *testing.B) {
		h := NewHeapAllocator()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			h.Allocate(l)
		}
	})
}
